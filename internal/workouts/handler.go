package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/healthify/internal/auth"
	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type workoutsService interface {
	List(ctx context.Context, userID int, now time.Time) ([]Workout, error)
	Create(ctx context.Context, userID int, in Input) (*Workout, error)
	Update(ctx context.Context, userID, id int, in Input, now time.Time) (*Workout, error)
	Delete(ctx context.Context, userID, id int) error
	ResolveSuggestion(ctx context.Context, userID, id int, decision SuggestionDecision) (*Workout, error)
}

type Handler struct {
	service workoutsService
	nowFunc func() time.Time
}

func NewHandler(service workoutsService) *Handler {
	return &Handler{
		service: service,
		nowFunc: time.Now,
	}
}

// WithNowFunc replaces the clock used to decide rollovers and completions.
func (h *Handler) WithNowFunc(nowFunc func() time.Time) *Handler {
	h.nowFunc = nowFunc
	return h
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteErrorResponse(w, http.StatusUnauthorized, pkg.ErrCodeUnauthorized, "unauthorized")
		return
	}
	span.SetAttributes(attribute.Int("user-id", userID))

	workouts, err := h.service.List(ctx, userID, h.nowFunc())
	if err != nil {
		log.Errorf("list workouts for user %d: %s", userID, err)
		writeServiceError(w, err, "failed to get workouts")
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, workouts)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.create")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteErrorResponse(w, http.StatusUnauthorized, pkg.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var in Input
	if !decodeJSONBody(w, r, &in) {
		return
	}

	created, err := h.service.Create(ctx, userID, in)
	if err != nil {
		log.Errorf("create workout for user %d: %s", userID, err)
		writeServiceError(w, err, "failed to create workout")
		return
	}

	pkg.WriteJSONResponse(w, http.StatusCreated, created)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteErrorResponse(w, http.StatusUnauthorized, pkg.ErrCodeUnauthorized, "unauthorized")
		return
	}
	id, ok := workoutIDFromRequest(w, r)
	if !ok {
		return
	}

	var in Input
	if !decodeJSONBody(w, r, &in) {
		return
	}

	updated, err := h.service.Update(ctx, userID, id, in, h.nowFunc())
	if err != nil {
		log.Errorf("update workout %d for user %d: %s", id, userID, err)
		writeServiceError(w, err, "failed to update workout")
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, updated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteErrorResponse(w, http.StatusUnauthorized, pkg.ErrCodeUnauthorized, "unauthorized")
		return
	}
	id, ok := workoutIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, userID, id); err != nil {
		log.Errorf("delete workout %d for user %d: %s", id, userID, err)
		writeServiceError(w, err, "failed to delete workout")
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

func (h *Handler) HandleSuggestion(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.suggestion")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteErrorResponse(w, http.StatusUnauthorized, pkg.ErrCodeUnauthorized, "unauthorized")
		return
	}
	id, ok := workoutIDFromRequest(w, r)
	if !ok {
		return
	}

	var decision SuggestionDecision
	if !decodeJSONBody(w, r, &decision) {
		return
	}

	updated, err := h.service.ResolveSuggestion(ctx, userID, id, decision)
	if err != nil {
		log.Errorf("resolve suggestion of workout %d for user %d: %s", id, userID, err)
		writeServiceError(w, err, "failed to resolve suggestion")
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, updated)
}

func workoutIDFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		pkg.WriteErrorResponse(w, http.StatusBadRequest, pkg.ErrCodeBadRequest, "invalid workout id")
		return 0, false
	}
	return id, true
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		pkg.WriteErrorResponse(w, http.StatusBadRequest, pkg.ErrCodeBadRequest, "invalid content type")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Errorf("unmarshal json body: %s", err)
		pkg.WriteErrorResponse(w, http.StatusBadRequest, pkg.ErrCodeBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, ErrWorkoutNotFound):
		pkg.WriteErrorResponse(w, http.StatusNotFound, pkg.ErrCodeNotFound, "workout not found")
	case errors.Is(err, ErrInvalidWorkout):
		pkg.WriteErrorResponse(w, http.StatusBadRequest, pkg.ErrCodeBadRequest, err.Error())
	case errors.Is(err, ErrCompletionNotRecorded),
		errors.Is(err, context.DeadlineExceeded),
		pkg.IsTransientDBError(err):
		pkg.WriteErrorResponse(w, http.StatusServiceUnavailable, pkg.ErrCodeTransient, message+", try again")
	default:
		pkg.WriteErrorResponse(w, http.StatusInternalServerError, pkg.ErrCodeInternal, message)
	}
}
