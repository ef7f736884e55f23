package progress

import (
	"fmt"
	"time"

	"github.com/2beens/healthify/internal/users"
)

// GoalUpdate is a partial profile update. Nil fields are left as they are.
type GoalUpdate struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Purpose        *string `json:"purpose"`
	ThreeMonthGoal *string `json:"threeMonthGoal"`
	MonthlyGoal    *string `json:"monthlyGoal"`
	WeeklyGoal     *string `json:"weeklyGoal"`

	WeeklyGoalStatus     *users.GoalStatus `json:"weeklyGoalStatus"`
	ThreeMonthGoalStatus *users.GoalStatus `json:"threeMonthGoalStatus"`

	WeeklyGoalLockIn     *time.Time `json:"weeklyGoalLockIn"`
	ThreeMonthGoalLockIn *time.Time `json:"threeMonthGoalLockIn"`
}

func (g GoalUpdate) Validate() error {
	if g.WeeklyGoalStatus != nil && !g.WeeklyGoalStatus.IsValid() {
		return fmt.Errorf("%w: weekly goal status %q", ErrInvalidGoalStatus, *g.WeeklyGoalStatus)
	}
	if g.ThreeMonthGoalStatus != nil && !g.ThreeMonthGoalStatus.IsValid() {
		return fmt.Errorf("%w: three month goal status %q", ErrInvalidGoalStatus, *g.ThreeMonthGoalStatus)
	}
	return nil
}

type goalCounter struct {
	status      *users.GoalStatus
	completions *int
	lockIn      **time.Time
	lockInCount *int
}

// applyGoalUpdate copies the update onto the user and maintains the goal
// counters:
//   - a status moving into completed counts one completion and releases
//     the lock-in, so the next period can be locked again
//   - a lock-in counts only when none is held
func applyGoalUpdate(u *users.User, g GoalUpdate) {
	setIfPresent(&u.FirstName, g.FirstName)
	setIfPresent(&u.LastName, g.LastName)
	setIfPresent(&u.Purpose, g.Purpose)
	setIfPresent(&u.ThreeMonthGoal, g.ThreeMonthGoal)
	setIfPresent(&u.MonthlyGoal, g.MonthlyGoal)
	setIfPresent(&u.WeeklyGoal, g.WeeklyGoal)

	weekly := goalCounter{
		status:      &u.WeeklyGoalStatus,
		completions: &u.WeeklyGoalCompletions,
		lockIn:      &u.WeeklyGoalLockIn,
		lockInCount: &u.WeeklyGoalLockInCount,
	}
	weekly.apply(g.WeeklyGoalStatus, g.WeeklyGoalLockIn)

	threeMonth := goalCounter{
		status:      &u.ThreeMonthGoalStatus,
		completions: &u.ThreeMonthGoalCompletions,
		lockIn:      &u.ThreeMonthGoalLockIn,
		lockInCount: &u.ThreeMonthGoalLockInCount,
	}
	threeMonth.apply(g.ThreeMonthGoalStatus, g.ThreeMonthGoalLockIn)
}

func (c goalCounter) apply(status *users.GoalStatus, lockIn *time.Time) {
	if status != nil {
		if *status == users.GoalCompleted && *c.status != users.GoalCompleted {
			*c.completions++
			*c.lockIn = nil
		}
		*c.status = *status
	}

	if lockIn != nil && *c.lockIn == nil {
		at := *lockIn
		*c.lockIn = &at
		*c.lockInCount++
	}
}

func setIfPresent(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}
