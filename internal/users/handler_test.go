package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/pkg"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func newTestHandler(t *testing.T) (*Handler, *repoMock, *auth.Service) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	mock.MatchExpectationsInOrder(false)
	mock.Regexp().ExpectSet(`fittrack-session\|\|.*`, `.*`, 0).SetVal("OK")
	mock.Regexp().ExpectSAdd("fittrack-sessions", `.*`).SetVal(1)

	authService := auth.NewService(auth.DefaultTTL, db)
	repo := NewMockUsersRepo()
	return NewHandler(repo, authService), repo, authService
}

func TestHandler_Register(t *testing.T) {
	handler, repo, _ := newTestHandler(t)

	registerJson, err := json.Marshal(RegisterRequest{
		Username:    "serj",
		DisplayName: "Serj",
		Password:    "hunter2",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/a/register", bytes.NewReader(registerJson))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleRegister(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var addedUser User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &addedUser))
	assert.Equal(t, "serj", addedUser.Username)
	assert.NotZero(t, addedUser.ID)

	storedUser, err := repo.GetByUsername(context.Background(), "serj")
	require.NoError(t, err)
	// password hash never leaves the server
	assert.NotContains(t, rec.Body.String(), storedUser.PasswordHash)
	assert.True(t, pkg.CheckPasswordHash("hunter2", storedUser.PasswordHash))
}

func TestHandler_Register_MissingFields(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	registerJson, err := json.Marshal(RegisterRequest{Username: "serj"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/a/register", bytes.NewReader(registerJson))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleRegister(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Login(t *testing.T) {
	handler, repo, _ := newTestHandler(t)

	passwordHash, err := pkg.HashPassword("hunter2")
	require.NoError(t, err)
	_, err = repo.Add(context.Background(), User{
		Username:     "serj",
		PasswordHash: passwordHash,
	})
	require.NoError(t, err)

	loginJson := []byte(`{"username":"serj","password":"hunter2"}`)
	req := httptest.NewRequest("POST", "/a/login", bytes.NewReader(loginJson))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleLogin(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "token")
}

func TestHandler_Login_WrongPassword(t *testing.T) {
	handler, repo, _ := newTestHandler(t)

	passwordHash, err := pkg.HashPassword("hunter2")
	require.NoError(t, err)
	_, err = repo.Add(context.Background(), User{
		Username:     "serj",
		PasswordHash: passwordHash,
	})
	require.NoError(t, err)

	loginJson := []byte(`{"username":"serj","password":"wrong"}`)
	req := httptest.NewRequest("POST", "/a/login", bytes.NewReader(loginJson))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleLogin(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetGoals_Defaults(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/goals", nil)
	req = req.WithContext(auth.ContextWithUserID(req.Context(), 42))
	rec := httptest.NewRecorder()

	handler.HandleGetGoals(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var goals GoalSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &goals))
	assert.Equal(t, 42, goals.UserID)
	assert.InDelta(t, 79.4, goals.TargetWeight, 0.001)
	assert.Equal(t, 2500, goals.TargetDailyCalories)
	assert.InDelta(t, 150.0, goals.TargetDailyProtein, 0.001)
	assert.Equal(t, 5, goals.TargetWeeklyWorkouts)
}

func TestHandler_SetGoals(t *testing.T) {
	handler, repo, _ := newTestHandler(t)

	goalsJson := []byte(`{"targetWeight":80,"targetDailyCalories":2200,"targetDailyProtein":160,"targetWeeklyWorkouts":4}`)
	req := httptest.NewRequest("POST", "/goals", bytes.NewReader(goalsJson))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), 42))
	rec := httptest.NewRecorder()

	handler.HandleSetGoals(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	storedGoals, err := repo.ActiveGoalSet(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, storedGoals.Active)
	assert.Equal(t, 2200, storedGoals.TargetDailyCalories)
}

func TestHandler_SetGoals_NegativeValues(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	goalsJson := []byte(`{"targetWeight":-1}`)
	req := httptest.NewRequest("POST", "/goals", bytes.NewReader(goalsJson))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), 42))
	rec := httptest.NewRecorder()

	handler.HandleSetGoals(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
