package pkg

import "time"

// DateKeyLayout is the ISO layout used for date-only map keys (e.g. daily completions).
const DateKeyLayout = "2006-01-02"

// CivilDate returns the calendar date of t as seen in loc, represented as
// midnight UTC of that date. Date-only values are stored and compared this way,
// so day differences never depend on DST transitions.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns local midnight (in loc) of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameCivilDay reports whether a and b fall on the same calendar date in loc.
func SameCivilDay(a, b time.Time, loc *time.Location) bool {
	return CivilDate(a, loc).Equal(CivilDate(b, loc))
}

// DaysBetween returns the number of whole calendar days from one civil date to another.
// Both arguments must come from CivilDate.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func DateKey(civilDate time.Time) string {
	return civilDate.Format(DateKeyLayout)
}
