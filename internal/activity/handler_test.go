package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/nutrition"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/weightlog"
	"github.com/2beens/fittrack/internal/workouts"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weightRepoStub struct {
	entries []weightlog.Entry
}

func (s *weightRepoStub) ListAll(_ context.Context, params weightlog.EntryParams) ([]weightlog.Entry, error) {
	entries := make([]weightlog.Entry, 0)
	for _, e := range s.entries {
		if e.UserID == params.UserID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

type nutritionRepoStub struct {
	entries []nutrition.Entry
}

func (s *nutritionRepoStub) ListAll(_ context.Context, params nutrition.EntryParams) ([]nutrition.Entry, error) {
	entries := make([]nutrition.Entry, 0)
	for _, e := range s.entries {
		if e.UserID == params.UserID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

type workoutsRepoStub struct {
	workouts []workouts.Workout
}

func (s *workoutsRepoStub) ListAll(_ context.Context, params workouts.WorkoutParams) ([]workouts.Workout, error) {
	entries := make([]workouts.Workout, 0)
	for _, w := range s.workouts {
		if w.UserID == params.UserID {
			entries = append(entries, w)
		}
	}
	return entries, nil
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	handler := NewHandler(
		&weightRepoStub{entries: []weightlog.Entry{
			{ID: 1, UserID: 42, Timestamp: base, WeightKg: 80.5},
			{ID: 2, UserID: 42, Timestamp: base.AddDate(0, 0, 3), WeightKg: 80.1},
		}},
		&nutritionRepoStub{entries: []nutrition.Entry{
			{ID: 3, UserID: 42, Timestamp: base.AddDate(0, 0, 1), FoodName: "Pasta", Calories: 640, MealType: nutrition.MealTypeLunch},
		}},
		&workoutsRepoStub{workouts: []workouts.Workout{
			{ID: 4, UserID: 42, Timestamp: base.AddDate(0, 0, 2), Name: "Push Day", Type: workouts.WorkoutTypeStrength, DurationMinutes: 60},
		}},
		metrics.NewTestManager(),
	)

	router := mux.NewRouter()
	handler.SetupRoutes(router)
	return router
}

func reqWithUser(method, target string, userID int) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestHandler_History(t *testing.T) {
	router := newTestRouter(t)

	req := reqWithUser("GET", "/history", 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var feed []Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feed))
	require.Len(t, feed, 4)
	// newest first: weight(+3d), workout(+2d), nutrition(+1d), weight(0)
	assert.Equal(t, 2, feed[0].ID)
	assert.Equal(t, 4, feed[1].ID)
	assert.Equal(t, 3, feed[2].ID)
	assert.Equal(t, 1, feed[3].ID)
}

func TestHandler_History_typeFilterAndLimit(t *testing.T) {
	router := newTestRouter(t)

	req := reqWithUser("GET", "/history?type=weight&limit=1", 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var feed []Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, 2, feed[0].ID)
	assert.Equal(t, RecordTypeWeight, feed[0].Type)
}

func TestHandler_History_invalidParams(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{
		"/history?type=sleep",
		"/history?limit=0",
		"/history?limit=100000",
		"/history?from=not-a-timestamp",
	} {
		req := reqWithUser("GET", target, 42)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestHandler_Export(t *testing.T) {
	router := newTestRouter(t)

	req := reqWithUser("GET", "/history/export", 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))

	expectedFilename := fmt.Sprintf("fittrack-history-%s.csv", time.Now().UTC().Format("2006-01-02"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), expectedFilename)

	lines := strings.Split(strings.TrimRight(rr.Body.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Date,ActivityType,Description,Values", lines[0])
	assert.Contains(t, lines[1], "Weight: 80.1 kg")
}
