package activity

import (
	"strings"
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/nutrition"
	"github.com/2beens/fittrack/internal/weightlog"
	"github.com/2beens/fittrack/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFeed_mappings(t *testing.T) {
	timestamp := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	feed := CompileFeed(
		[]weightlog.Entry{{ID: 1, Timestamp: timestamp, WeightKg: 80.5, Notes: "morning"}},
		[]nutrition.Entry{{ID: 2, Timestamp: timestamp.Add(-time.Hour), FoodName: "Oatmeal", Calories: 320, MealType: nutrition.MealTypeBreakfast}},
		[]workouts.Workout{{ID: 3, Timestamp: timestamp.Add(-2 * time.Hour), Name: "Morning Run", DurationMinutes: 30, Notes: "easy pace"}},
		0,
	)

	require.Len(t, feed, 3)

	assert.Equal(t, RecordTypeWeight, feed[0].Type)
	assert.Equal(t, "Weight Log", feed[0].Title)
	assert.Equal(t, "Weight", feed[0].Metric)
	assert.Equal(t, "80.5 kg", feed[0].Value)
	assert.Equal(t, "morning", feed[0].Notes)

	assert.Equal(t, RecordTypeNutrition, feed[1].Type)
	assert.Equal(t, "Oatmeal (breakfast)", feed[1].Title)
	assert.Equal(t, "Calories", feed[1].Metric)
	assert.Equal(t, "320", feed[1].Value)
	assert.Empty(t, feed[1].Notes)

	assert.Equal(t, RecordTypeWorkout, feed[2].Type)
	assert.Equal(t, "Morning Run", feed[2].Title)
	assert.Equal(t, "Duration", feed[2].Metric)
	assert.Equal(t, "30 minutes", feed[2].Value)
}

func TestCompileFeed_sortAndTies(t *testing.T) {
	timestamp := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	// all three share the exact same timestamp
	feed := CompileFeed(
		[]weightlog.Entry{{ID: 1, Timestamp: timestamp, WeightKg: 80}},
		[]nutrition.Entry{{ID: 2, Timestamp: timestamp, FoodName: "Eggs", Calories: 210, MealType: nutrition.MealTypeBreakfast}},
		[]workouts.Workout{{ID: 3, Timestamp: timestamp, Name: "Stretching", DurationMinutes: 15}},
		0,
	)

	require.Len(t, feed, 3)
	// ties keep insertion order: weight, nutrition, workout
	assert.Equal(t, RecordTypeWeight, feed[0].Type)
	assert.Equal(t, RecordTypeNutrition, feed[1].Type)
	assert.Equal(t, RecordTypeWorkout, feed[2].Type)
}

func TestCompileFeed_newestFirstAndLimit(t *testing.T) {
	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	weightEntries := []weightlog.Entry{
		{ID: 1, Timestamp: base, WeightKg: 80},
		{ID: 2, Timestamp: base.AddDate(0, 0, 2), WeightKg: 79.5},
	}
	nutritionEntries := []nutrition.Entry{
		{ID: 3, Timestamp: base.AddDate(0, 0, 1), FoodName: "Pasta", Calories: 640, MealType: nutrition.MealTypeLunch},
	}

	feed := CompileFeed(weightEntries, nutritionEntries, nil, 0)
	require.Len(t, feed, 3)
	assert.Equal(t, 2, feed[0].ID)
	assert.Equal(t, 3, feed[1].ID)
	assert.Equal(t, 1, feed[2].ID)

	// limit truncates after sorting, keeping the newest records
	limited := CompileFeed(weightEntries, nutritionEntries, nil, 2)
	require.Len(t, limited, 2)
	assert.Equal(t, 2, limited[0].ID)
	assert.Equal(t, 3, limited[1].ID)
}

func TestCompileFeed_empty(t *testing.T) {
	feed := CompileFeed(nil, nil, nil, 0)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestFilterFeed(t *testing.T) {
	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	feed := CompileFeed(
		[]weightlog.Entry{
			{ID: 1, Timestamp: base, WeightKg: 80},
			{ID: 2, Timestamp: base.AddDate(0, 0, 5), WeightKg: 79},
		},
		[]nutrition.Entry{{ID: 3, Timestamp: base.AddDate(0, 0, 2), FoodName: "Pasta", Calories: 640, MealType: nutrition.MealTypeLunch}},
		nil,
		0,
	)

	byType := FilterFeed(feed, FeedFilter{Type: RecordTypeWeight})
	require.Len(t, byType, 2)
	assert.Equal(t, 2, byType[0].ID)
	assert.Equal(t, 1, byType[1].ID)

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	byRange := FilterFeed(feed, FeedFilter{From: &from, To: &to})
	require.Len(t, byRange, 1)
	assert.Equal(t, 3, byRange[0].ID)

	// inclusive bounds
	inclusiveFrom := base
	byInclusive := FilterFeed(feed, FeedFilter{From: &inclusiveFrom, To: &inclusiveFrom})
	require.Len(t, byInclusive, 1)
	assert.Equal(t, 1, byInclusive[0].ID)

	assert.Len(t, FilterFeed(feed, FeedFilter{}), 3)
}

func TestToCSV(t *testing.T) {
	timestamp := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	feed := CompileFeed(
		[]weightlog.Entry{{ID: 1, Timestamp: timestamp, WeightKg: 80.5}},
		[]nutrition.Entry{{ID: 2, Timestamp: timestamp.Add(-time.Hour), FoodName: "Rice, beans \"extra\"", Calories: 550, MealType: nutrition.MealTypeLunch}},
		nil,
		0,
	)

	out, err := ToCSV(feed)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,ActivityType,Description,Values", lines[0])
	assert.Equal(t, "2024-03-10 08:30,weight,Weight Log,Weight: 80.5 kg", lines[1])
	// embedded comma and quotes survive via RFC 4180 quoting
	assert.Equal(t, `2024-03-10 07:30,nutrition,"Rice, beans ""extra"" (lunch)",Calories: 550`, lines[2])
}

func TestToCSV_emptyFeed(t *testing.T) {
	out, err := ToCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Date,ActivityType,Description,Values\n", string(out))
}
