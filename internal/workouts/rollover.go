package workouts

import (
	"time"

	"github.com/2beens/healthify/pkg"
)

// Rollover prepares a workout completed on an earlier day for a fresh day:
// all sets become incomplete, staged suggestions are applied and the
// completion date is cleared. The input is never mutated.
// Returns the resulting workout and whether anything changed.
func Rollover(w Workout, now time.Time, loc *time.Location) (Workout, bool) {
	if w.LastCompletedDate == nil {
		return w, false
	}
	if !pkg.CivilDate(*w.LastCompletedDate, loc).Before(pkg.CivilDate(now, loc)) {
		return w, false
	}

	rolled := w.Clone()
	for i := range rolled.Activities {
		for j := range rolled.Activities[i].Sets {
			rolled.Activities[i].Sets[j].resetForNewDay()
		}
	}

	resetAt := now
	rolled.LastCompletedDate = nil
	rolled.LastResetDate = &resetAt

	return rolled, true
}
