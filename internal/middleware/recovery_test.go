package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/fittrack/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
)

func TestPanicRecovery(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("ouch")
	})

	req := httptest.NewRequest("GET", "/panics", nil)
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		PanicRecovery(metrics.NewTestManager())(next).ServeHTTP(rec, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
