package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/healthify/internal/badges"
	"github.com/2beens/healthify/internal/telemetry/metrics"
	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/internal/users"
	"github.com/2beens/healthify/internal/workouts"
	"github.com/2beens/healthify/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultTimeout = 5 * time.Second

type usersRepo interface {
	Update(ctx context.Context, id int, fn users.UpdateFunc) (*users.User, error)
}

type completedWorkoutsSource interface {
	ListCompletedBetween(ctx context.Context, userID int, from, to time.Time) ([]workouts.Workout, error)
}

type badgeCatalog interface {
	List(ctx context.Context) ([]badges.Badge, error)
}

type NewEngineParams struct {
	Users    usersRepo
	Workouts completedWorkoutsSource
	Catalog  badgeCatalog
	Locker   Locker
	Metrics  *metrics.Manager
	Location *time.Location
	// bounds each engine call, lock wait included
	Timeout time.Duration
}

// Engine owns every progress counter on the user record. Each call runs
// under the user's lock and writes the user in a single transaction.
type Engine struct {
	users    usersRepo
	workouts completedWorkoutsSource
	catalog  badgeCatalog
	locker   Locker
	metrics  *metrics.Manager
	loc      *time.Location
	timeout  time.Duration
}

func NewEngine(params NewEngineParams) *Engine {
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	locker := params.Locker
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Engine{
		users:    params.Users,
		workouts: params.Workouts,
		catalog:  params.Catalog,
		locker:   locker,
		metrics:  params.Metrics,
		loc:      loc,
		timeout:  timeout,
	}
}

// RecordCompletion applies a "done for today" event: streak, then the
// day's completion score, then badges. Failing to read today's workouts or
// the badge catalog only skips that stage.
func (e *Engine) RecordCompletion(ctx context.Context, userID int, now time.Time) (_ *users.User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.engine.recordcompletion")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("user-id", userID))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	unlock, err := e.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	startedAt := time.Now()
	defer func() {
		e.metrics.HistProgressDuration.Observe(time.Since(startedAt).Seconds())
	}()

	today := pkg.CivilDate(now, e.loc)
	dayStart := pkg.StartOfDay(now, e.loc)
	todaysWorkouts, workoutsErr := e.workouts.ListCompletedBetween(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1))
	if workoutsErr != nil {
		e.stageFailed(userID, metrics.StageDailyCompletion, workoutsErr)
	}
	catalog, catalogErr := e.catalog.List(ctx)
	if catalogErr != nil {
		e.stageFailed(userID, metrics.StageBadges, catalogErr)
	}

	var (
		streak    StreakResult
		newBadges []string
	)
	u, err := e.users.Update(ctx, userID, func(u *users.User) (bool, error) {
		streak = ApplyStreak(u, now, e.loc)

		if workoutsErr == nil {
			if score, ok := DailyScore(todaysWorkouts); ok {
				setDailyCompletion(u, today, score)
			}
		}

		if catalogErr == nil {
			newBadges = grantBadges(u, catalog)
		}
		return true, nil
	})
	if err != nil {
		return nil, e.wrapUpdateErr(userID, err)
	}

	if streak.Counted {
		e.metrics.CounterStreakDaysCounted.Inc()
	}
	if streak.CycleEnded {
		result := "failed"
		if streak.CycleSucceeded {
			result = "succeeded"
		}
		e.metrics.CounterCycles.WithLabelValues(result).Inc()
		log.Debugf("user %d: commitment cycle ended, %s", userID, result)
	}
	e.countBadges(userID, catalog, newBadges)

	span.SetAttributes(
		attribute.Int("current-streak", u.CurrentStreak),
		attribute.Bool("cycle-ended", streak.CycleEnded),
		attribute.Int("new-badges", len(newBadges)),
	)
	return u, nil
}

// OnWorkoutCompleted records the completion and drops the resulting user.
func (e *Engine) OnWorkoutCompleted(ctx context.Context, userID int, now time.Time) error {
	_, err := e.RecordCompletion(ctx, userID, now)
	return err
}

// UpdateGoals applies a profile update, maintains the goal counters and
// re-evaluates badges in the same write.
func (e *Engine) UpdateGoals(ctx context.Context, userID int, update GoalUpdate) (_ *users.User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.engine.updategoals")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("user-id", userID))

	if err := update.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	unlock, err := e.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	catalog, catalogErr := e.catalog.List(ctx)
	if catalogErr != nil {
		e.stageFailed(userID, metrics.StageBadges, catalogErr)
	}

	var newBadges []string
	u, err := e.users.Update(ctx, userID, func(u *users.User) (bool, error) {
		applyGoalUpdate(u, update)
		if catalogErr == nil {
			newBadges = grantBadges(u, catalog)
		}
		return true, nil
	})
	if err != nil {
		return nil, e.wrapUpdateErr(userID, err)
	}

	e.countBadges(userID, catalog, newBadges)
	return u, nil
}

// EvaluateBadges grants any badge the user's counters qualify for.
// The user is written only if a badge was granted.
func (e *Engine) EvaluateBadges(ctx context.Context, userID int) (_ *users.User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.engine.evaluatebadges")
	defer func() { tracing.EndSpan(span, err) }()
	span.SetAttributes(attribute.Int("user-id", userID))

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	unlock, err := e.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	catalog, err := e.catalog.List(ctx)
	if err != nil {
		e.stageFailed(userID, metrics.StageBadges, err)
		return nil, fmt.Errorf("%w: get badge catalog: %w", ErrProgressUnavailable, err)
	}

	var newBadges []string
	u, err := e.users.Update(ctx, userID, func(u *users.User) (bool, error) {
		newBadges = grantBadges(u, catalog)
		return len(newBadges) > 0, nil
	})
	if err != nil {
		return nil, e.wrapUpdateErr(userID, err)
	}

	e.countBadges(userID, catalog, newBadges)
	return u, nil
}

func (e *Engine) lock(ctx context.Context, userID int) (func(), error) {
	unlock, err := e.locker.Lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: lock user %d: %w", ErrProgressUnavailable, userID, err)
	}
	return unlock, nil
}

func (e *Engine) wrapUpdateErr(userID int, err error) error {
	if errors.Is(err, users.ErrUserNotFound) {
		return err
	}
	e.metrics.CounterProgressFailures.WithLabelValues(metrics.StageStreak).Inc()
	return fmt.Errorf("%w: update user %d: %w", ErrProgressUnavailable, userID, err)
}

func (e *Engine) stageFailed(userID int, stage string, err error) {
	log.Errorf("user %d: progress stage %s skipped: %s", userID, stage, err)
	e.metrics.CounterProgressFailures.WithLabelValues(stage).Inc()
}

func (e *Engine) countBadges(userID int, catalog []badges.Badge, granted []string) {
	for _, name := range granted {
		e.metrics.CounterBadgesGranted.WithLabelValues(string(badges.CriteriaOf(catalog, name))).Inc()
	}
	if len(granted) > 0 {
		log.Debugf("user %d: badges granted: %v", userID, granted)
	}
}

func grantBadges(u *users.User, catalog []badges.Badge) []string {
	newBadges := badges.Evaluate(catalog, u.Badges, u.BadgeCounters())
	u.Badges = append(u.Badges, newBadges...)
	return newBadges
}
