package workouts

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Parameter is the tracked dimension of a set.
type Parameter string

const (
	ParameterWeight     Parameter = "Weight"
	ParameterTime       Parameter = "Time"
	ParameterDistance   Parameter = "Distance"
	ParameterReps       Parameter = "Reps"
	ParameterSets       Parameter = "Sets"
	ParameterRest       Parameter = "Rest"
	ParameterIncline    Parameter = "Incline"
	ParameterSpeed      Parameter = "Speed"
	ParameterResistance Parameter = "Resistance"
	ParameterCadence    Parameter = "Cadence"
	ParameterHeight     Parameter = "Height"
)

func (p Parameter) IsValid() bool {
	switch p {
	case ParameterWeight,
		ParameterTime,
		ParameterDistance,
		ParameterReps,
		ParameterSets,
		ParameterRest,
		ParameterIncline,
		ParameterSpeed,
		ParameterResistance,
		ParameterCadence,
		ParameterHeight:
		return true
	default:
		return false
	}
}

// SetStatus can be one of:
//   - none (never touched)
//   - completed
//   - partial
//   - incomplete (reset by a rollover, or explicitly marked)
type SetStatus string

const (
	SetStatusNone       SetStatus = "none"
	SetStatusCompleted  SetStatus = "completed"
	SetStatusPartial    SetStatus = "partial"
	SetStatusIncomplete SetStatus = "incomplete"
)

func (s SetStatus) String() string {
	return string(s)
}

func (s SetStatus) IsValid() bool {
	switch s {
	case SetStatusNone,
		SetStatusCompleted,
		SetStatusPartial,
		SetStatusIncomplete:
		return true
	default:
		return false
	}
}

// Score maps a status to its daily completion weight.
func (s SetStatus) Score() float64 {
	switch s {
	case SetStatusCompleted:
		return 100
	case SetStatusPartial:
		return 50
	default:
		return 0
	}
}

// OptionalValue is a number that may be absent.
// Decoding never fails: null, a missing field, or anything that is not a
// number (or a numeric string) yields an absent value.
type OptionalValue struct {
	Value float64
	Valid bool
}

func SomeValue(v float64) OptionalValue {
	return OptionalValue{Value: v, Valid: true}
}

func (o OptionalValue) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *OptionalValue) UnmarshalJSON(data []byte) error {
	*o = OptionalValue{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case float64:
		o.Value, o.Valid = v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			o.Value, o.Valid = f, true
		}
	}
	return nil
}

type Set struct {
	Parameter          Parameter     `json:"parameter"`
	Value              float64       `json:"value"`
	Unit               string        `json:"unit"`
	Status             SetStatus     `json:"status"`
	NextSuggestedValue OptionalValue `json:"nextSuggestedValue"`
	PreviousValue      OptionalValue `json:"previousValue"`
	SuggestionApplied  bool          `json:"suggestionApplied"`
}

// HasSuggestion reports whether a usable next value is staged.
// Zero is never a usable target.
func (s *Set) HasSuggestion() bool {
	return s.NextSuggestedValue.Valid && s.NextSuggestedValue.Value != 0
}

// resetForNewDay marks the set incomplete and applies a staged suggestion.
// Returns true if anything changed.
func (s *Set) resetForNewDay() bool {
	changed := false
	if s.Status != SetStatusIncomplete {
		s.Status = SetStatusIncomplete
		changed = true
	}
	if s.HasSuggestion() {
		s.PreviousValue = SomeValue(s.Value)
		s.Value = s.NextSuggestedValue.Value
		s.SuggestionApplied = true
		s.NextSuggestedValue = OptionalValue{}
		changed = true
	}
	return changed
}

// AcceptSuggestion keeps the suggested value and forgets the previous one.
func (s *Set) AcceptSuggestion() bool {
	if !s.SuggestionApplied {
		return false
	}
	s.SuggestionApplied = false
	s.PreviousValue = OptionalValue{}
	return true
}

// RejectSuggestion restores the value active before the suggestion was applied.
func (s *Set) RejectSuggestion() bool {
	if !s.SuggestionApplied {
		return false
	}
	if s.PreviousValue.Valid {
		s.Value = s.PreviousValue.Value
	}
	s.SuggestionApplied = false
	s.PreviousValue = OptionalValue{}
	return true
}
