package progress

import (
	"math"
	"time"

	"github.com/2beens/healthify/internal/users"
	"github.com/2beens/healthify/internal/workouts"
	"github.com/2beens/healthify/pkg"
)

// DailyScore averages set scores per activity, then averages the activity
// scores of all given workouts. Activities without sets are skipped;
// ok is false when no activity had any set.
func DailyScore(ws []workouts.Workout) (score int, ok bool) {
	var total float64
	activities := 0
	for _, w := range ws {
		for _, a := range w.Activities {
			if len(a.Sets) == 0 {
				continue
			}
			var setsTotal float64
			for _, s := range a.Sets {
				setsTotal += s.Status.Score()
			}
			total += setsTotal / float64(len(a.Sets))
			activities++
		}
	}
	if activities == 0 {
		return 0, false
	}
	return int(math.Round(total / float64(activities))), true
}

func setDailyCompletion(u *users.User, civilDate time.Time, score int) {
	if u.DailyCompletions == nil {
		u.DailyCompletions = map[string]int{}
	}
	u.DailyCompletions[pkg.DateKey(civilDate)] = score
}
