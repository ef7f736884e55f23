package users

import (
	"errors"
	"time"

	"github.com/2beens/healthify/internal/badges"
)

const DefaultStreakGoal = 20

var (
	ErrUserNotFound = errors.New("user not found")
	// username or email already taken
	ErrUserExists = errors.New("user already exists")
)

type GoalStatus string

const (
	GoalNotStarted GoalStatus = "not_started"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
)

func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalNotStarted, GoalInProgress, GoalCompleted:
		return true
	default:
		return false
	}
}

type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Purpose   string `json:"purpose"`

	ThreeMonthGoal string `json:"threeMonthGoal"`
	MonthlyGoal    string `json:"monthlyGoal"`
	WeeklyGoal     string `json:"weeklyGoal"`

	WeeklyGoalStatus          GoalStatus `json:"weeklyGoalStatus"`
	ThreeMonthGoalStatus      GoalStatus `json:"threeMonthGoalStatus"`
	WeeklyGoalCompletions     int        `json:"weeklyGoalCompletions"`
	ThreeMonthGoalCompletions int        `json:"threeMonthGoalCompletions"`
	WeeklyGoalLockIn          *time.Time `json:"weeklyGoalLockIn"`
	ThreeMonthGoalLockIn      *time.Time `json:"threeMonthGoalLockIn"`
	WeeklyGoalLockInCount     int        `json:"weeklyGoalLockInCount"`
	ThreeMonthGoalLockInCount int        `json:"threeMonthGoalLockInCount"`

	// streak state; all dates are civil dates (UTC midnight)
	CurrentStreak       int            `json:"currentStreak"`
	LastActiveDate      *time.Time     `json:"lastActiveDate"`
	StreakDates         []time.Time    `json:"streakDates"`
	CommitmentStartDate time.Time      `json:"commitmentStartDate"`
	StreakGoal          int            `json:"streakGoal"`
	StreakCompletions   int            `json:"streakCompletions"`
	DailyCompletions    map[string]int `json:"dailyCompletions"`

	// earned badge names, in the order they were earned
	Badges []string `json:"badges"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BadgeCounters() badges.Counters {
	return badges.Counters{
		WeeklyGoalCompletions:     u.WeeklyGoalCompletions,
		ThreeMonthGoalCompletions: u.ThreeMonthGoalCompletions,
		StreakCompletions:         u.StreakCompletions,
	}
}

// EffectiveStreakGoal falls back to the default for unset or invalid goals.
func (u *User) EffectiveStreakGoal() int {
	if u.StreakGoal <= 0 {
		return DefaultStreakGoal
	}
	return u.StreakGoal
}

func (u *User) HasStreakDate(date time.Time) bool {
	for _, d := range u.StreakDates {
		if d.Equal(date) {
			return true
		}
	}
	return false
}

func (u *User) HasBadge(name string) bool {
	for _, b := range u.Badges {
		if b == name {
			return true
		}
	}
	return false
}
