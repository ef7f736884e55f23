package workoutlog

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/internal/workouts"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultHistoryDays = 14
	MaxHistoryDays     = 366
)

type logRepo interface {
	AddBatch(ctx context.Context, entries []Entry) (int64, error)
	List(ctx context.Context, userID int, from, to time.Time) ([]Entry, error)
}

type Service struct {
	repo logRepo
}

func NewService(repo logRepo) *Service {
	return &Service{
		repo: repo,
	}
}

// LogCompletion stores the finished sets of a workout done for the day.
func (s *Service) LogCompletion(ctx context.Context, w workouts.Workout, at time.Time) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workoutlog.logcompletion")
	defer func() { tracing.EndSpan(span, err) }()

	entries := EntriesFromWorkout(w, at)
	span.SetAttributes(attribute.Int("entries", len(entries)))
	if len(entries) == 0 {
		return nil
	}

	added, err := s.repo.AddBatch(ctx, entries)
	if err != nil {
		return fmt.Errorf("add %d log entries: %w", len(entries), err)
	}
	log.Tracef("user %d: workout %d: %d log entries added", w.UserID, w.ID, added)
	return nil
}

// History returns the entries of the last days, oldest first.
func (s *Service) History(ctx context.Context, userID, days int, now time.Time) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workoutlog.history")
	defer func() { tracing.EndSpan(span, err) }()

	if days <= 0 {
		days = DefaultHistoryDays
	}
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}
	span.SetAttributes(attribute.Int("days", days))

	return s.repo.List(ctx, userID, now.AddDate(0, 0, -days), now)
}
