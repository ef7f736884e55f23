package workouts

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/healthify/internal/telemetry/metrics"
	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type workoutsRepo interface {
	ListForUser(ctx context.Context, userID int) ([]Workout, error)
	Get(ctx context.Context, userID, id int) (*Workout, error)
	Add(ctx context.Context, w Workout) (*Workout, error)
	Update(ctx context.Context, w *Workout) error
	Delete(ctx context.Context, userID, id int) error
}

// CompletionRecorder updates the user's progress after a workout was done for the day.
type CompletionRecorder interface {
	OnWorkoutCompleted(ctx context.Context, userID int, now time.Time) error
}

// CompletionLogger keeps the per-set history of a workout done for the day.
type CompletionLogger interface {
	LogCompletion(ctx context.Context, w Workout, at time.Time) error
}

// SuggestionDecision accepts or rejects the suggestion applied to one set.
type SuggestionDecision struct {
	ActivityID string `json:"activityId"`
	SetIndex   int    `json:"setIndex"`
	Accept     bool   `json:"accept"`
}

type Service struct {
	repo     workoutsRepo
	recorder CompletionRecorder
	logger   CompletionLogger
	metrics  *metrics.Manager
	loc      *time.Location
}

func NewService(
	repo workoutsRepo,
	recorder CompletionRecorder,
	logger CompletionLogger,
	metricsManager *metrics.Manager,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
		metrics:  metricsManager,
		loc:      loc,
	}
}

// List returns the user's workouts, rolling over (and persisting) every
// workout completed on an earlier day. Nothing is written if no workout
// needed a rollover.
func (s *Service) List(ctx context.Context, userID int, now time.Time) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.list")
	defer func() { tracing.EndSpan(span, err) }()

	stored, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	result := make([]Workout, len(stored))
	rolledCount := 0
	for i, w := range stored {
		rolled, changed := Rollover(w, now, s.loc)
		if !changed {
			result[i] = w
			continue
		}
		if err := s.repo.Update(ctx, &rolled); err != nil {
			return nil, fmt.Errorf("persist rollover of workout %d: %w", w.ID, err)
		}
		s.metrics.CounterRollovers.Inc()
		rolledCount++
		result[i] = rolled
	}
	span.SetAttributes(attribute.Int("rolled-over", rolledCount))

	if rolledCount == 0 {
		return stored, nil
	}
	log.Debugf("user %d: %d workouts rolled over", userID, rolledCount)
	return result, nil
}

func (s *Service) Create(ctx context.Context, userID int, in Input) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.create")
	defer func() { tracing.EndSpan(span, err) }()

	if err := in.Normalize(); err != nil {
		return nil, err
	}

	return s.repo.Add(ctx, Workout{
		UserID:            userID,
		Day:               in.Day,
		Title:             in.Title,
		Activities:        in.Activities,
		LastCompletedDate: in.LastCompletedDate,
	})
}

// Update overwrites the workout with the input. When the input marks the
// workout as done today, the completed sets are logged (first time that day
// only) and the user's progress gets updated. If only the progress update fails, the saved
// workout is returned together with ErrCompletionNotRecorded.
func (s *Service) Update(ctx context.Context, userID, id int, in Input, now time.Time) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.update")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("id", id))

	if err := in.Normalize(); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	loggedToday := existing.LastCompletedDate != nil && pkg.SameCivilDay(*existing.LastCompletedDate, now, s.loc)

	updated := existing.Clone()
	updated.Day = in.Day
	updated.Title = in.Title
	updated.Activities = in.Activities
	if in.LastCompletedDate != nil {
		updated.LastCompletedDate = in.LastCompletedDate
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update workout %d: %w", id, err)
	}

	doneToday := in.LastCompletedDate != nil && pkg.SameCivilDay(*in.LastCompletedDate, now, s.loc)
	span.SetAttributes(attribute.Bool("done-today", doneToday))
	if !doneToday {
		return &updated, nil
	}

	// the sets of a workout are logged once per day
	if s.logger != nil && !loggedToday {
		if err := s.logger.LogCompletion(ctx, updated, now); err != nil {
			log.Errorf("user %d: log completion of workout %d: %s", userID, id, err)
			s.metrics.CounterProgressFailures.WithLabelValues(metrics.StageWorkoutLog).Inc()
		}
	}

	if s.recorder != nil {
		if err := s.recorder.OnWorkoutCompleted(ctx, userID, now); err != nil {
			return &updated, fmt.Errorf("%w: %w", ErrCompletionNotRecorded, err)
		}
	}

	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.delete")
	defer func() { tracing.EndSpan(span, err) }()

	return s.repo.Delete(ctx, userID, id)
}

// ResolveSuggestion accepts or rejects the suggestion applied to a set.
// Sets without an applied suggestion are left as they are.
func (s *Service) ResolveSuggestion(ctx context.Context, userID, id int, decision SuggestionDecision) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.suggestion")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(
		attribute.Int("id", id),
		attribute.String("activity-id", decision.ActivityID),
		attribute.Bool("accept", decision.Accept),
	)

	w, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	activity := w.activity(decision.ActivityID)
	if activity == nil {
		return nil, fmt.Errorf("%w: unknown activity %q", ErrInvalidWorkout, decision.ActivityID)
	}
	if decision.SetIndex < 0 || decision.SetIndex >= len(activity.Sets) {
		return nil, fmt.Errorf("%w: activity %q has no set %d", ErrInvalidWorkout, activity.Name, decision.SetIndex)
	}

	set := &activity.Sets[decision.SetIndex]
	var changed bool
	if decision.Accept {
		changed = set.AcceptSuggestion()
	} else {
		changed = set.RejectSuggestion()
	}
	if !changed {
		return w, nil
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("update workout %d: %w", id, err)
	}
	return w, nil
}
