package weightlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/metrics"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *repoMock, *mux.Router) {
	t.Helper()
	repo := newRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())
	router := mux.NewRouter()
	handler.SetupRoutes(router)
	return handler, repo, router
}

func reqWithUser(method, target string, body []byte, userID int) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestHandler_Add(t *testing.T) {
	_, repo, router := newTestHandler(t)

	entryJson, err := json.Marshal(Entry{
		Timestamp: time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC),
		WeightKg:  81.4,
		Notes:     "morning",
	})
	require.NoError(t, err)

	req := reqWithUser("POST", "/weight", entryJson, 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var added Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, 1, added.ID)
	assert.Equal(t, 42, added.UserID)
	assert.Equal(t, 81.4, added.WeightKg)

	stored, err := repo.Get(context.Background(), 42, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "morning", stored.Notes)
}

func TestHandler_Add_invalidWeight(t *testing.T) {
	_, _, router := newTestHandler(t)

	entryJson, err := json.Marshal(Entry{WeightKg: -2})
	require.NoError(t, err)

	req := reqWithUser("POST", "/weight", entryJson, 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_List_windowPreset(t *testing.T) {
	_, repo, router := newTestHandler(t)

	now := time.Now().UTC()
	for i, weight := range []float64{82.1, 81.7, 81.2} {
		_, err := repo.Add(context.Background(), Entry{
			UserID:    42,
			Timestamp: now.AddDate(0, 0, -i),
			WeightKg:  weight,
			Notes:     gofakeit.Sentence(3),
		})
		require.NoError(t, err)
	}
	// old entry, outside any recent window
	_, err := repo.Add(context.Background(), Entry{
		UserID:    42,
		Timestamp: now.AddDate(-1, 0, 0),
		WeightKg:  90,
	})
	require.NoError(t, err)
	// other user
	_, err = repo.Add(context.Background(), Entry{
		UserID:    7,
		Timestamp: now,
		WeightKg:  70,
	})
	require.NoError(t, err)

	req := reqWithUser("GET", "/weight?window=30days", nil, 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var entries []Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	// newest first
	assert.Equal(t, 82.1, entries[0].WeightKg)
	assert.Equal(t, 81.2, entries[2].WeightKg)
}

func TestHandler_List_unknownPreset(t *testing.T) {
	_, _, router := newTestHandler(t)

	req := reqWithUser("GET", "/weight?window=fortnight", nil, 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	_, repo, router := newTestHandler(t)

	added, err := repo.Add(context.Background(), Entry{
		UserID:    42,
		Timestamp: time.Now().UTC(),
		WeightKg:  80,
	})
	require.NoError(t, err)

	updatedJson, err := json.Marshal(Entry{
		Timestamp: added.Timestamp,
		WeightKg:  79.5,
	})
	require.NoError(t, err)

	req := reqWithUser("PUT", fmt.Sprintf("/weight/%d", added.ID), updatedJson, 42)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	stored, err := repo.Get(context.Background(), 42, added.ID)
	require.NoError(t, err)
	assert.Equal(t, 79.5, stored.WeightKg)

	req = reqWithUser("DELETE", fmt.Sprintf("/weight/%d", added.ID), nil, 42)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, fmt.Sprintf("deleted:%d", added.ID), rr.Body.String())

	_, err = repo.Get(context.Background(), 42, added.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestHandler_Delete_otherUser(t *testing.T) {
	_, repo, router := newTestHandler(t)

	added, err := repo.Add(context.Background(), Entry{
		UserID:    42,
		Timestamp: time.Now().UTC(),
		WeightKg:  80,
	})
	require.NoError(t, err)

	req := reqWithUser("DELETE", fmt.Sprintf("/weight/%d", added.ID), nil, 7)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
