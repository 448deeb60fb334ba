package activity

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/2beens/fittrack/internal/nutrition"
	"github.com/2beens/fittrack/internal/weightlog"
	"github.com/2beens/fittrack/internal/workouts"
)

type RecordType string

const (
	RecordTypeWeight    RecordType = "weight"
	RecordTypeNutrition RecordType = "nutrition"
	RecordTypeWorkout   RecordType = "workout"
)

func (rt RecordType) Valid() bool {
	switch rt {
	case RecordTypeWeight, RecordTypeNutrition, RecordTypeWorkout:
		return true
	}
	return false
}

// Record is a uniform projection of one logged entry of any kind,
// the unit of the activity feed and history export.
type Record struct {
	ID        int        `json:"id"`
	Type      RecordType `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Title     string     `json:"title"`
	Metric    string     `json:"metric"`
	Value     string     `json:"value"`
	Notes     string     `json:"notes,omitempty"`
}

// CompileFeed merges all entry kinds into one reverse-chronological
// feed, newest first. Records with equal timestamps keep their
// insertion order: weight, then nutrition, then workouts. A limit of
// zero or less means no truncation; the limit applies after sorting.
func CompileFeed(
	weightEntries []weightlog.Entry,
	nutritionEntries []nutrition.Entry,
	workoutEntries []workouts.Workout,
	limit int,
) []Record {
	feed := make([]Record, 0, len(weightEntries)+len(nutritionEntries)+len(workoutEntries))

	for _, e := range weightEntries {
		feed = append(feed, Record{
			ID:        e.ID,
			Type:      RecordTypeWeight,
			Timestamp: e.Timestamp,
			Title:     "Weight Log",
			Metric:    "Weight",
			Value:     fmt.Sprintf("%s kg", strconv.FormatFloat(e.WeightKg, 'f', -1, 64)),
			Notes:     e.Notes,
		})
	}
	for _, e := range nutritionEntries {
		feed = append(feed, Record{
			ID:        e.ID,
			Type:      RecordTypeNutrition,
			Timestamp: e.Timestamp,
			Title:     fmt.Sprintf("%s (%s)", e.FoodName, e.MealType),
			Metric:    "Calories",
			Value:     strconv.Itoa(e.Calories),
		})
	}
	for _, w := range workoutEntries {
		feed = append(feed, Record{
			ID:        w.ID,
			Type:      RecordTypeWorkout,
			Timestamp: w.Timestamp,
			Title:     w.Name,
			Metric:    "Duration",
			Value:     fmt.Sprintf("%d minutes", w.DurationMinutes),
			Notes:     w.Notes,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})

	if limit > 0 && len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}

// FeedFilter narrows a compiled feed. The zero value filters nothing.
type FeedFilter struct {
	Type RecordType
	From *time.Time
	To   *time.Time
}

// FilterFeed applies an optional type equality filter and an optional
// inclusive date range, preserving the feed order.
func FilterFeed(feed []Record, filter FeedFilter) []Record {
	filtered := make([]Record, 0, len(feed))
	for _, record := range feed {
		if filter.Type != "" && record.Type != filter.Type {
			continue
		}
		if filter.From != nil && record.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && record.Timestamp.After(*filter.To) {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}

// ToCSV renders the feed as RFC 4180 CSV, free text quoted as needed.
func ToCSV(feed []Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Date", "ActivityType", "Description", "Values"}); err != nil {
		return nil, err
	}
	for _, record := range feed {
		row := []string{
			record.Timestamp.UTC().Format("2006-01-02 15:04"),
			string(record.Type),
			record.Title,
			fmt.Sprintf("%s: %s", record.Metric, record.Value),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
