package workoutlog

import (
	"time"

	"github.com/2beens/healthify/internal/workouts"
)

type Entry struct {
	ID           int                `json:"id"`
	UserID       int                `json:"userId"`
	Date         time.Time          `json:"date"`
	WorkoutTitle string             `json:"workoutTitle"`
	ActivityName string             `json:"activityName"`
	Parameter    workouts.Parameter `json:"parameter"`
	Value        float64            `json:"value"`
	Unit         string             `json:"unit"`
}

// EntriesFromWorkout makes one entry per completed or partially completed set.
func EntriesFromWorkout(w workouts.Workout, at time.Time) []Entry {
	var entries []Entry
	for _, a := range w.Activities {
		for _, s := range a.Sets {
			if s.Status != workouts.SetStatusCompleted && s.Status != workouts.SetStatusPartial {
				continue
			}
			entries = append(entries, Entry{
				UserID:       w.UserID,
				Date:         at,
				WorkoutTitle: w.Title,
				ActivityName: a.Name,
				Parameter:    s.Parameter,
				Value:        s.Value,
				Unit:         s.Unit,
			})
		}
	}
	return entries
}
