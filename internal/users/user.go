package users

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GoalSet holds the targets a user tracks progress against.
// At most one goal set is active per user at a time.
type GoalSet struct {
	ID                   int       `json:"id"`
	UserID               int       `json:"userId"`
	TargetWeight         float64   `json:"targetWeight"` // kilograms
	TargetDailyCalories  int       `json:"targetDailyCalories"`
	TargetDailyProtein   float64   `json:"targetDailyProtein"` // grams
	TargetWeeklyWorkouts int       `json:"targetWeeklyWorkouts"`
	Active               bool      `json:"active"`
	CreatedAt            time.Time `json:"createdAt"`
}

// DefaultGoalSet is used when a user never saved goals.
// The values mirror the defaults shown in the UI before any setup.
func DefaultGoalSet(userID int) GoalSet {
	return GoalSet{
		UserID:               userID,
		TargetWeight:         79.4, // 175 lb placeholder
		TargetDailyCalories:  2500,
		TargetDailyProtein:   150,
		TargetWeeklyWorkouts: 5,
	}
}
