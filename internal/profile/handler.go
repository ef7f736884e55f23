package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/healthify/internal/auth"
	"github.com/2beens/healthify/internal/progress"
	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/internal/users"
	"github.com/2beens/healthify/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=profile_test

type usersGetter interface {
	Get(ctx context.Context, id int) (*users.User, error)
}

type goalsUpdater interface {
	UpdateGoals(ctx context.Context, userID int, update progress.GoalUpdate) (*users.User, error)
}

type Handler struct {
	users usersGetter
	goals goalsUpdater
}

func NewHandler(users usersGetter, goals goalsUpdater) *Handler {
	return &Handler{
		users: users,
		goals: goals,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteErrorResponse(w, http.StatusUnauthorized, pkg.ErrCodeUnauthorized, "unauthorized")
		return
	}
	span.SetAttributes(attribute.Int("user-id", userID))

	u, err := h.users.Get(ctx, userID)
	if err != nil {
		log.Errorf("get profile of user %d: %s", userID, err)
		writeProfileError(w, err)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, u)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteErrorResponse(w, http.StatusUnauthorized, pkg.ErrCodeUnauthorized, "unauthorized")
		return
	}
	span.SetAttributes(attribute.Int("user-id", userID))

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		pkg.WriteErrorResponse(w, http.StatusBadRequest, pkg.ErrCodeBadRequest, "invalid content type")
		return
	}

	var update progress.GoalUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Errorf("update profile, unmarshal json params: %s", err)
		pkg.WriteErrorResponse(w, http.StatusBadRequest, pkg.ErrCodeBadRequest, "invalid json body")
		return
	}

	u, err := h.goals.UpdateGoals(ctx, userID, update)
	if err != nil {
		log.Errorf("update profile of user %d: %s", userID, err)
		writeProfileError(w, err)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, u)
}

func writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		pkg.WriteErrorResponse(w, http.StatusNotFound, pkg.ErrCodeNotFound, "user not found")
	case errors.Is(err, progress.ErrInvalidGoalStatus):
		pkg.WriteErrorResponse(w, http.StatusBadRequest, pkg.ErrCodeBadRequest, err.Error())
	case errors.Is(err, progress.ErrProgressUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		pkg.IsTransientDBError(err):
		pkg.WriteErrorResponse(w, http.StatusServiceUnavailable, pkg.ErrCodeTransient, "profile temporarily unavailable, try again")
	default:
		pkg.WriteErrorResponse(w, http.StatusInternalServerError, pkg.ErrCodeInternal, "failed to process profile")
	}
}
