package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*repoMock, *mux.Router) {
	t.Helper()
	repo := newRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	router := mux.NewRouter()
	handler.SetupRoutes(router)
	return repo, router
}

func reqWithUser(method, target string, body []byte, userID int) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestHandler_Add(t *testing.T) {
	repo, router := newTestHandler(t)

	entryJson, err := json.Marshal(Entry{
		Timestamp:   time.Date(2024, 3, 10, 12, 15, 0, 0, time.UTC),
		FoodName:    "Chicken salad",
		ServingSize: "1 bowl",
		Calories:    430,
		Protein:     38,
		Carbs:       12,
		Fat:         22,
		MealType:    MealTypeLunch,
	})
	require.NoError(t, err)

	req := reqWithUser("POST", "/nutrition", entryJson, 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var added Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, 1, added.ID)
	assert.Equal(t, 42, added.UserID)
	assert.Equal(t, 430, added.Calories)

	stored, err := repo.Get(context.Background(), 42, added.ID)
	require.NoError(t, err)
	assert.Equal(t, MealTypeLunch, stored.MealType)
}

func TestHandler_Add_invalid(t *testing.T) {
	_, router := newTestHandler(t)

	testCases := []struct {
		name  string
		entry Entry
	}{
		{
			name:  "empty food name",
			entry: Entry{Calories: 100, MealType: MealTypeSnack},
		},
		{
			name:  "negative calories",
			entry: Entry{FoodName: "Something", Calories: -10, MealType: MealTypeSnack},
		},
		{
			name:  "negative protein",
			entry: Entry{FoodName: "Something", Calories: 10, Protein: -1, MealType: MealTypeSnack},
		},
		{
			name:  "bogus meal type",
			entry: Entry{FoodName: "Something", Calories: 10, MealType: "brunch"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entryJson, err := json.Marshal(tc.entry)
			require.NoError(t, err)

			req := reqWithUser("POST", "/nutrition", entryJson, 42)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHandler_List(t *testing.T) {
	repo, router := newTestHandler(t)

	now := time.Now().UTC()
	meals := []Entry{
		{UserID: 42, Timestamp: now.Add(-2 * time.Hour), FoodName: "Oatmeal", Calories: 320, MealType: MealTypeBreakfast},
		{UserID: 42, Timestamp: now.Add(-1 * time.Hour), FoodName: "Pasta", Calories: 640, MealType: MealTypeLunch},
		{UserID: 7, Timestamp: now, FoodName: "Burger", Calories: 800, MealType: MealTypeDinner},
	}
	for _, meal := range meals {
		_, err := repo.Add(context.Background(), meal)
		require.NoError(t, err)
	}

	req := reqWithUser("GET", "/nutrition?window=30days", nil, 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var entries []Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Pasta", entries[0].FoodName)
	assert.Equal(t, "Oatmeal", entries[1].FoodName)
}

func TestHandler_List_MealTypeFilter(t *testing.T) {
	repo, router := newTestHandler(t)

	now := time.Now().UTC()
	meals := []Entry{
		{UserID: 42, Timestamp: now.Add(-2 * time.Hour), FoodName: "Oatmeal", Calories: 320, MealType: MealTypeBreakfast},
		{UserID: 42, Timestamp: now.Add(-1 * time.Hour), FoodName: "Pasta", Calories: 640, MealType: MealTypeLunch},
		{UserID: 42, Timestamp: now, FoodName: "Apple", Calories: 90, MealType: MealTypeSnack},
	}
	for _, meal := range meals {
		_, err := repo.Add(context.Background(), meal)
		require.NoError(t, err)
	}

	req := reqWithUser("GET", "/nutrition?window=30days&mealType=lunch", nil, 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var entries []Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Pasta", entries[0].FoodName)

	req = reqWithUser("GET", "/nutrition?mealType=brunch", nil, 42)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
