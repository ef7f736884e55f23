package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/2beens/healthify/internal/badges"
	"github.com/2beens/healthify/internal/telemetry/metrics"
	"github.com/2beens/healthify/internal/users"
	"github.com/2beens/healthify/internal/workouts"
	"github.com/2beens/healthify/pkg"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usersRepoMock struct {
	mutex  sync.Mutex
	users  map[int]users.User
	writes int
	err    error
}

func newUsersRepoMock(us ...*users.User) *usersRepoMock {
	r := &usersRepoMock{users: map[int]users.User{}}
	for _, u := range us {
		r.users[u.ID] = *u
	}
	return r
}

func (r *usersRepoMock) get(id int) users.User {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.users[id]
}

// Update reads and writes without holding the mutex in between, so only
// the engine's locker keeps concurrent updates apart.
func (r *usersRepoMock) Update(_ context.Context, id int, fn users.UpdateFunc) (*users.User, error) {
	r.mutex.Lock()
	if r.err != nil {
		r.mutex.Unlock()
		return nil, r.err
	}
	stored, ok := r.users[id]
	r.mutex.Unlock()
	if !ok {
		return nil, users.ErrUserNotFound
	}

	u := stored
	u.StreakDates = append([]time.Time(nil), stored.StreakDates...)
	u.Badges = append([]string(nil), stored.Badges...)
	u.DailyCompletions = map[string]int{}
	for k, v := range stored.DailyCompletions {
		u.DailyCompletions[k] = v
	}

	changed, err := fn(&u)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &u, nil
	}

	// widen the race window for unguarded callers
	time.Sleep(time.Millisecond)

	r.mutex.Lock()
	r.users[id] = u
	r.writes++
	r.mutex.Unlock()
	return &u, nil
}

type workoutsSourceMock struct {
	workouts []workouts.Workout
	err      error
	from, to time.Time
}

func (w *workoutsSourceMock) ListCompletedBetween(_ context.Context, _ int, from, to time.Time) ([]workouts.Workout, error) {
	w.from, w.to = from, to
	return w.workouts, w.err
}

type catalogMock struct {
	catalog []badges.Badge
	err     error
}

func (c *catalogMock) List(_ context.Context) ([]badges.Badge, error) {
	return c.catalog, c.err
}

type engineTestSetup struct {
	engine   *Engine
	users    *usersRepoMock
	workouts *workoutsSourceMock
	catalog  *catalogMock
	metrics  *metrics.Manager
}

func newEngineTestSetup(u *users.User) *engineTestSetup {
	s := &engineTestSetup{
		users: newUsersRepoMock(u),
		workouts: &workoutsSourceMock{
			workouts: []workouts.Workout{
				{Activities: []workouts.Activity{
					activity(workouts.SetStatusCompleted),
					activity(workouts.SetStatusPartial),
					activity(workouts.SetStatusNone),
				}},
			},
		},
		catalog: &catalogMock{catalog: badges.DefaultCatalog()},
		metrics: metrics.NewTestManager(),
	}
	s.engine = NewEngine(NewEngineParams{
		Users:    s.users,
		Workouts: s.workouts,
		Catalog:  s.catalog,
		Locker:   NewLocalLocker(),
		Metrics:  s.metrics,
		Location: time.UTC,
		Timeout:  time.Second,
	})
	return s
}

func TestEngine_RecordCompletion(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -3))
	u.CurrentStreak = 3
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))
	s := newEngineTestSetup(u)

	updated, err := s.engine.RecordCompletion(context.Background(), u.ID, testToday)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.CurrentStreak)
	assert.Equal(t, map[string]int{"2025-03-10": 50}, updated.DailyCompletions)
	assert.Empty(t, updated.Badges)

	dayStart := pkg.StartOfDay(testToday, time.UTC)
	assert.Equal(t, dayStart, s.workouts.from)
	assert.Equal(t, dayStart.AddDate(0, 0, 1), s.workouts.to)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CounterStreakDaysCounted))
	assert.Equal(t, 1, s.users.writes)
}

func TestEngine_RecordCompletion_SameDayTwice(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -3))
	s := newEngineTestSetup(u)
	ctx := context.Background()

	_, err := s.engine.RecordCompletion(ctx, u.ID, testToday)
	require.NoError(t, err)

	// another workout completed the same day
	s.workouts.workouts = append(s.workouts.workouts, workouts.Workout{
		Activities: []workouts.Activity{activity(workouts.SetStatusCompleted)},
	})
	updated, err := s.engine.RecordCompletion(ctx, u.ID, testToday.Add(2*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, updated.CurrentStreak)
	assert.Len(t, updated.StreakDates, 1)
	// (100 + 50 + 0 + 100) / 4
	assert.Equal(t, 63, updated.DailyCompletions["2025-03-10"])
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CounterStreakDaysCounted))
}

func TestEngine_RecordCompletion_CycleGrantsStreakBadge(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -25))
	u.CurrentStreak = 19
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))
	s := newEngineTestSetup(u)

	updated, err := s.engine.RecordCompletion(context.Background(), u.ID, testToday)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentStreak)
	assert.Equal(t, 1, updated.StreakCompletions)
	assert.Equal(t, []string{"Streak Bronze"}, updated.Badges)
	// daily score is recorded even though the cycle rolled over
	assert.Equal(t, 50, updated.DailyCompletions["2025-03-10"])

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CounterCycles.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.CounterBadgesGranted.WithLabelValues("streak")))
}

func TestEngine_RecordCompletion_WorkoutsReadFails(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -3))
	s := newEngineTestSetup(u)
	s.workouts.err = errors.New("db timeout")

	updated, err := s.engine.RecordCompletion(context.Background(), u.ID, testToday)
	require.NoError(t, err)
	// streak kept, score skipped
	assert.Equal(t, 1, updated.CurrentStreak)
	assert.Empty(t, updated.DailyCompletions)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		s.metrics.CounterProgressFailures.WithLabelValues(metrics.StageDailyCompletion),
	))
}

func TestEngine_RecordCompletion_CatalogFails(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -25))
	u.CurrentStreak = 19
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))
	s := newEngineTestSetup(u)
	s.catalog.err = errors.New("db timeout")

	updated, err := s.engine.RecordCompletion(context.Background(), u.ID, testToday)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.StreakCompletions)
	assert.Empty(t, updated.Badges)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		s.metrics.CounterProgressFailures.WithLabelValues(metrics.StageBadges),
	))

	// next pass catches up
	s.catalog.err = nil
	updated, err = s.engine.EvaluateBadges(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Streak Bronze"}, updated.Badges)
}

func TestEngine_RecordCompletion_UserWriteFails(t *testing.T) {
	u := newTestUser(testToday)
	s := newEngineTestSetup(u)
	s.users.err = errors.New("connection reset")

	_, err := s.engine.RecordCompletion(context.Background(), u.ID, testToday)
	assert.ErrorIs(t, err, ErrProgressUnavailable)
}

func TestEngine_RecordCompletion_UnknownUser(t *testing.T) {
	s := newEngineTestSetup(newTestUser(testToday))

	_, err := s.engine.RecordCompletion(context.Background(), 999, testToday)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrProgressUnavailable)
}

func TestEngine_RecordCompletion_LockTimeout(t *testing.T) {
	u := newTestUser(testToday)
	s := newEngineTestSetup(u)
	locker := NewLocalLocker()
	s.engine.locker = locker
	s.engine.timeout = 10 * time.Millisecond

	unlock, err := locker.Lock(context.Background(), u.ID)
	require.NoError(t, err)
	defer unlock()

	_, err = s.engine.RecordCompletion(context.Background(), u.ID, testToday)
	assert.ErrorIs(t, err, ErrProgressUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngine_RecordCompletion_Concurrent(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -3))
	u.CurrentStreak = 2
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))
	s := newEngineTestSetup(u)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.engine.RecordCompletion(context.Background(), u.ID, testToday)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored := s.users.get(u.ID)
	assert.Equal(t, 3, stored.CurrentStreak)
	assert.Len(t, stored.StreakDates, 1)
	assert.Equal(t, 10, s.users.writes)
}

func TestEngine_UpdateGoals(t *testing.T) {
	u := newTestUser(testToday)
	u.WeeklyGoalStatus = users.GoalInProgress
	u.WeeklyGoalCompletions = 1
	s := newEngineTestSetup(u)
	ctx := context.Background()

	updated, err := s.engine.UpdateGoals(ctx, u.ID, GoalUpdate{WeeklyGoalStatus: goalStatus(users.GoalCompleted)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.WeeklyGoalCompletions)
	assert.Equal(t, []string{"Weekly Bronze"}, updated.Badges)

	// unchanged counters never duplicate badges
	updated, err = s.engine.UpdateGoals(ctx, u.ID, GoalUpdate{WeeklyGoalStatus: goalStatus(users.GoalCompleted)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.WeeklyGoalCompletions)
	assert.Equal(t, []string{"Weekly Bronze"}, updated.Badges)

	_, err = s.engine.UpdateGoals(ctx, u.ID, GoalUpdate{WeeklyGoalStatus: goalStatus("finished")})
	assert.ErrorIs(t, err, ErrInvalidGoalStatus)
}

func TestEngine_EvaluateBadges_NoWriteWithoutNewBadges(t *testing.T) {
	u := newTestUser(testToday)
	u.ThreeMonthGoalCompletions = 1
	s := newEngineTestSetup(u)
	ctx := context.Background()

	updated, err := s.engine.EvaluateBadges(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"3-Month Bronze"}, updated.Badges)
	assert.Equal(t, 1, s.users.writes)

	updated, err = s.engine.EvaluateBadges(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"3-Month Bronze"}, updated.Badges)
	assert.Equal(t, 1, s.users.writes)

	s.catalog.err = errors.New("db down")
	_, err = s.engine.EvaluateBadges(ctx, u.ID)
	assert.ErrorIs(t, err, ErrProgressUnavailable)
}
