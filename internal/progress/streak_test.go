package progress

import (
	"testing"
	"time"

	"github.com/2beens/healthify/internal/users"
	"github.com/2beens/healthify/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func civil(t time.Time) *time.Time {
	d := pkg.CivilDate(t, time.UTC)
	return &d
}

func newTestUser(commitmentStart time.Time) *users.User {
	return &users.User{
		ID:                  1,
		CommitmentStartDate: commitmentStart,
		StreakGoal:          users.DefaultStreakGoal,
		DailyCompletions:    map[string]int{},
	}
}

func TestApplyStreak_FirstCompletion(t *testing.T) {
	u := newTestUser(testToday)

	res := ApplyStreak(u, testToday, time.UTC)
	assert.True(t, res.Counted)
	assert.False(t, res.CycleEnded)
	assert.Equal(t, 1, u.CurrentStreak)
	require.NotNil(t, u.LastActiveDate)
	assert.Equal(t, *civil(testToday), *u.LastActiveDate)
	assert.Equal(t, []time.Time{*civil(testToday)}, u.StreakDates)
}

func TestApplyStreak_SameDayIdempotent(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -3))
	u.CurrentStreak = 3
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))

	ApplyStreak(u, testToday, time.UTC)
	require.Equal(t, 4, u.CurrentStreak)

	for i := 0; i < 3; i++ {
		res := ApplyStreak(u, testToday.Add(time.Duration(i)*time.Hour), time.UTC)
		assert.False(t, res.Counted)
		assert.Equal(t, 4, u.CurrentStreak)
		assert.Len(t, u.StreakDates, 1)
	}
}

func TestApplyStreak_ConsecutiveDay(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -7))
	u.CurrentStreak = 7
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))

	res := ApplyStreak(u, testToday, time.UTC)
	assert.True(t, res.Counted)
	assert.Equal(t, 8, u.CurrentStreak)
	assert.Equal(t, *civil(testToday), *u.LastActiveDate)
}

func TestApplyStreak_GapResets(t *testing.T) {
	for _, gap := range []int{2, 3, 15} {
		u := newTestUser(testToday.AddDate(0, 0, -16))
		u.CurrentStreak = 9
		u.LastActiveDate = civil(testToday.AddDate(0, 0, -gap))

		res := ApplyStreak(u, testToday, time.UTC)
		assert.True(t, res.Counted)
		assert.Equal(t, 1, u.CurrentStreak, "gap %d", gap)
	}
}

func TestApplyStreak_CycleCompletion(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -25))
	u.CurrentStreak = 19
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))
	u.StreakDates = []time.Time{*civil(testToday.AddDate(0, 0, -2)), *civil(testToday.AddDate(0, 0, -1))}
	u.StreakCompletions = 2

	res := ApplyStreak(u, testToday, time.UTC)
	assert.True(t, res.CycleEnded)
	assert.True(t, res.CycleSucceeded)
	assert.Equal(t, 0, u.CurrentStreak)
	assert.Equal(t, 3, u.StreakCompletions)
	assert.Empty(t, u.StreakDates)
	assert.Nil(t, u.LastActiveDate)
	assert.Equal(t, testToday, u.CommitmentStartDate)
}

func TestApplyStreak_CycleFailsOnBrokenStreak(t *testing.T) {
	// active on days 2..20 of the cycle, missed day 1
	start := testToday.AddDate(0, 0, -19)
	u := newTestUser(start)
	u.CurrentStreak = 18
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))

	res := ApplyStreak(u, testToday, time.UTC)
	assert.True(t, res.CycleEnded)
	assert.False(t, res.CycleSucceeded)
	assert.Equal(t, 0, u.StreakCompletions)
	assert.Equal(t, 0, u.CurrentStreak)
	assert.Empty(t, u.StreakDates)
}

func TestApplyStreak_CycleEndsOnGoalDay(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -18))
	u.CurrentStreak = 18
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))

	// day 19 of 20
	res := ApplyStreak(u, testToday, time.UTC)
	assert.False(t, res.CycleEnded)
	assert.Equal(t, 19, u.CurrentStreak)

	// day 20 of 20
	res = ApplyStreak(u, testToday.AddDate(0, 0, 1), time.UTC)
	assert.True(t, res.CycleEnded)
	assert.True(t, res.CycleSucceeded)
	assert.Equal(t, 1, u.StreakCompletions)
}

func TestApplyStreak_CustomAndInvalidGoal(t *testing.T) {
	u := newTestUser(testToday.AddDate(0, 0, -2))
	u.StreakGoal = 3
	u.CurrentStreak = 2
	u.LastActiveDate = civil(testToday.AddDate(0, 0, -1))

	res := ApplyStreak(u, testToday, time.UTC)
	assert.True(t, res.CycleSucceeded)

	u = newTestUser(testToday.AddDate(0, 0, -2))
	u.StreakGoal = 0
	res = ApplyStreak(u, testToday, time.UTC)
	assert.False(t, res.CycleEnded)
	assert.Equal(t, 1, u.CurrentStreak)
}

func TestApplyStreak_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 02:00 UTC on the 11th is still the 10th in UTC-5
	now := time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC)
	u := newTestUser(now.AddDate(0, 0, -5))
	u.CurrentStreak = 4
	u.LastActiveDate = civil(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))

	res := ApplyStreak(u, now, loc)
	assert.False(t, res.Counted)
	assert.Equal(t, 4, u.CurrentStreak)

	res = ApplyStreak(u, now, time.UTC)
	assert.True(t, res.Counted)
	assert.Equal(t, 5, u.CurrentStreak)
}
