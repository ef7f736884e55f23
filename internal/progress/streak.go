package progress

import (
	"time"

	"github.com/2beens/healthify/internal/users"
	"github.com/2beens/healthify/pkg"
)

type StreakResult struct {
	// Counted is true when today changed the streak counter.
	Counted        bool
	CycleEnded     bool
	CycleSucceeded bool
}

// ApplyStreak counts today towards the user's streak and closes the
// commitment cycle once it has run for streakGoal days.
//
// A cycle only succeeds if the consecutive streak reached the goal. Active
// days before a missed day do not count, even when the user was active on
// every remaining day of the cycle.
func ApplyStreak(u *users.User, now time.Time, loc *time.Location) StreakResult {
	var res StreakResult
	today := pkg.CivilDate(now, loc)

	if u.LastActiveDate == nil {
		u.CurrentStreak = 1
		u.LastActiveDate = &today
		res.Counted = true
	} else {
		diffDays := pkg.DaysBetween(pkg.CivilDate(*u.LastActiveDate, time.UTC), today)
		switch {
		case diffDays == 1:
			u.CurrentStreak++
			u.LastActiveDate = &today
			res.Counted = true
		case diffDays > 1:
			u.CurrentStreak = 1
			u.LastActiveDate = &today
			res.Counted = true
		}
		// diffDays <= 0: already counted
	}

	if !u.HasStreakDate(today) {
		u.StreakDates = append(u.StreakDates, today)
	}

	goal := u.EffectiveStreakGoal()
	daysSinceStart := pkg.DaysBetween(pkg.CivilDate(u.CommitmentStartDate, loc), today) + 1
	if daysSinceStart >= goal {
		res.CycleEnded = true
		if u.CurrentStreak >= goal {
			u.StreakCompletions++
			res.CycleSucceeded = true
		}
		u.CurrentStreak = 0
		u.StreakDates = []time.Time{}
		u.LastActiveDate = nil
		u.CommitmentStartDate = now
	}

	return res
}
