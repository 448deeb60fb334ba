package workouts

import (
	"fmt"
	"time"
)

type WorkoutType string

const (
	WorkoutTypeStrength    WorkoutType = "strength"
	WorkoutTypeCardio      WorkoutType = "cardio"
	WorkoutTypeFlexibility WorkoutType = "flexibility"
	WorkoutTypeSport       WorkoutType = "sport"
	WorkoutTypeOther       WorkoutType = "other"
)

func (wt WorkoutType) Valid() bool {
	switch wt {
	case WorkoutTypeStrength, WorkoutTypeCardio, WorkoutTypeFlexibility, WorkoutTypeSport, WorkoutTypeOther:
		return true
	}
	return false
}

// Exercise is a single exercise performed within a workout.
type Exercise struct {
	ID        int     `json:"id"`
	WorkoutID int     `json:"workoutId"`
	Name      string  `json:"name"`
	Sets      int     `json:"sets"`
	Reps      int     `json:"reps"`
	WeightKg  float64 `json:"weight"`
}

// Workout is a single logged training session, with its exercises.
type Workout struct {
	ID              int         `json:"id"`
	UserID          int         `json:"userId"`
	Timestamp       time.Time   `json:"timestamp"`
	Name            string      `json:"name"`
	Type            WorkoutType `json:"type"`
	DurationMinutes int         `json:"durationMinutes"`
	Notes           string      `json:"notes,omitempty"`
	Exercises       []Exercise  `json:"exercises"`
}

func (w Workout) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workout name is empty")
	}
	if !w.Type.Valid() {
		return fmt.Errorf("invalid workout type: %s", w.Type)
	}
	if w.DurationMinutes <= 0 {
		return fmt.Errorf("workout duration must be positive")
	}
	for _, ex := range w.Exercises {
		if ex.Name == "" {
			return fmt.Errorf("exercise name is empty")
		}
		if ex.Sets < 0 || ex.Reps < 0 || ex.WeightKg < 0 {
			return fmt.Errorf("exercise %s has negative values", ex.Name)
		}
	}
	return nil
}
