package weightlog

import "time"

// Entry is a single logged body weight reading.
type Entry struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	WeightKg  float64   `json:"weight"`
	Notes     string    `json:"notes,omitempty"`
}
