package nutrition

import (
	"fmt"
	"time"
)

type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

func (mt MealType) Valid() bool {
	switch mt {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	}
	return false
}

// Entry is a single logged meal or snack.
type Entry struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	Timestamp   time.Time `json:"timestamp"`
	FoodName    string    `json:"foodName"`
	ServingSize string    `json:"servingSize,omitempty"`
	Calories    int       `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fat         float64   `json:"fat"`
	MealType    MealType  `json:"mealType"`
}

func (e Entry) Validate() error {
	if e.FoodName == "" {
		return fmt.Errorf("food name is empty")
	}
	if e.Calories < 0 {
		return fmt.Errorf("calories cannot be negative")
	}
	if e.Protein < 0 || e.Carbs < 0 || e.Fat < 0 {
		return fmt.Errorf("macros cannot be negative")
	}
	if !e.MealType.Valid() {
		return fmt.Errorf("invalid meal type: %s", e.MealType)
	}
	return nil
}
