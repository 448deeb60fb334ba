package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/fittrack/internal/auth"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware_AllowedPath(t *testing.T) {
	db, _ := redismock.NewClientMock()
	loginChecker := auth.NewLoginChecker(time.Hour, db)
	authMiddleware := NewAuthMiddlewareHandler(loginChecker)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	req := httptest.NewRequest("POST", "/a/login", nil)
	rec := httptest.NewRecorder()
	authMiddleware.AuthCheck()(next).ServeHTTP(rec, req)

	assert.True(t, nextCalled)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	db, _ := redismock.NewClientMock()
	loginChecker := auth.NewLoginChecker(time.Hour, db)
	authMiddleware := NewAuthMiddlewareHandler(loginChecker)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	})

	req := httptest.NewRequest("GET", "/dashboard", nil)
	rec := httptest.NewRecorder()
	authMiddleware.AuthCheck()(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	db, mock := redismock.NewClientMock()
	loginChecker := auth.NewLoginChecker(time.Hour, db)
	authMiddleware := NewAuthMiddlewareHandler(loginChecker)

	mock.ExpectGet("fittrack-session||test-token").
		SetVal(fmt.Sprintf("42:%d", time.Now().Unix()))

	var gotUserID int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		require.True(t, ok)
		gotUserID = userID
	})

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set(AuthTokenHeader, "test-token")
	rec := httptest.NewRecorder()
	authMiddleware.AuthCheck()(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42, gotUserID)
}

func TestAuthMiddleware_Options(t *testing.T) {
	db, _ := redismock.NewClientMock()
	loginChecker := auth.NewLoginChecker(time.Hour, db)
	authMiddleware := NewAuthMiddlewareHandler(loginChecker)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called for OPTIONS")
	})

	req := httptest.NewRequest("OPTIONS", "/dashboard", nil)
	rec := httptest.NewRecorder()
	authMiddleware.AuthCheck()(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Allow"))
}
