package workouts

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWorkoutNotFound = errors.New("workout not found")
	ErrInvalidWorkout  = errors.New("invalid workout")
	// ErrCompletionNotRecorded is returned together with a saved workout when
	// the progress update that should follow it failed. Retrying is safe.
	ErrCompletionNotRecorded = errors.New("workout saved, completion not recorded")
)

type Activity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sets []Set  `json:"sets"`
}

type Workout struct {
	ID                int        `json:"id"`
	UserID            int        `json:"userId"`
	Day               string     `json:"day"`
	Title             string     `json:"title"`
	Activities        []Activity `json:"activities"`
	LastCompletedDate *time.Time `json:"lastCompletedDate"`
	LastResetDate     *time.Time `json:"lastResetDate"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Input is what clients send when creating or updating a workout.
type Input struct {
	Day               string     `json:"day"`
	Title             string     `json:"title"`
	Activities        []Activity `json:"activities"`
	LastCompletedDate *time.Time `json:"lastCompletedDate"`
}

// Clone returns a deep copy of the workout.
func (w Workout) Clone() Workout {
	c := w
	c.LastCompletedDate = copyTime(w.LastCompletedDate)
	c.LastResetDate = copyTime(w.LastResetDate)
	if w.Activities != nil {
		c.Activities = make([]Activity, len(w.Activities))
		for i, a := range w.Activities {
			c.Activities[i] = a
			if a.Sets != nil {
				c.Activities[i].Sets = make([]Set, len(a.Sets))
				copy(c.Activities[i].Sets, a.Sets)
			}
		}
	}
	return c
}

// CompletedBetween reports whether the workout was last completed within [from, to).
func (w Workout) CompletedBetween(from, to time.Time) bool {
	if w.LastCompletedDate == nil {
		return false
	}
	return !w.LastCompletedDate.Before(from) && w.LastCompletedDate.Before(to)
}

func (w Workout) activity(id string) *Activity {
	for i := range w.Activities {
		if w.Activities[i].ID == id {
			return &w.Activities[i]
		}
	}
	return nil
}

// Normalize validates the input and fills in defaults: missing set
// statuses become "none" and activities without an id get a fresh one.
func (in *Input) Normalize() error {
	if in.Title == "" {
		return fmt.Errorf("%w: title missing", ErrInvalidWorkout)
	}
	if in.Day == "" {
		return fmt.Errorf("%w: day missing", ErrInvalidWorkout)
	}
	if in.Activities == nil {
		in.Activities = []Activity{}
	}

	for i := range in.Activities {
		a := &in.Activities[i]
		if a.Name == "" {
			return fmt.Errorf("%w: activity %d has no name", ErrInvalidWorkout, i)
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Sets == nil {
			a.Sets = []Set{}
		}
		for j := range a.Sets {
			s := &a.Sets[j]
			if !s.Parameter.IsValid() {
				return fmt.Errorf("%w: activity %q set %d: unknown parameter %q", ErrInvalidWorkout, a.Name, j, s.Parameter)
			}
			if s.Status == "" {
				s.Status = SetStatusNone
			}
			if !s.Status.IsValid() {
				return fmt.Errorf("%w: activity %q set %d: unknown status %q", ErrInvalidWorkout, a.Name, j, s.Status)
			}
		}
	}

	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
