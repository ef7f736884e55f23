package workoutlog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/healthify/internal/auth"
	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/pkg"

	log "github.com/sirupsen/logrus"
)

type historyService interface {
	History(ctx context.Context, userID, days int, now time.Time) ([]Entry, error)
}

type Handler struct {
	service historyService
	nowFunc func() time.Time
}

func NewHandler(service historyService) *Handler {
	return &Handler{
		service: service,
		nowFunc: time.Now,
	}
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workoutlog.history")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteErrorResponse(w, http.StatusUnauthorized, pkg.ErrCodeUnauthorized, "unauthorized")
		return
	}

	days := DefaultHistoryDays
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil || parsed <= 0 {
			pkg.WriteErrorResponse(w, http.StatusBadRequest, pkg.ErrCodeBadRequest, "invalid days parameter")
			return
		}
		days = parsed
	}

	entries, err := h.service.History(ctx, userID, days, h.nowFunc())
	if err != nil {
		log.Errorf("workout history for user %d: %s", userID, err)
		if pkg.IsTransientDBError(err) {
			pkg.WriteErrorResponse(w, http.StatusServiceUnavailable, pkg.ErrCodeTransient, "workout history unavailable, try again")
			return
		}
		pkg.WriteErrorResponse(w, http.StatusInternalServerError, pkg.ErrCodeInternal, "failed to get workout history")
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, entries)
}
