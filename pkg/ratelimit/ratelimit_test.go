package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"designforge/pkg/ratelimit"
)

func TestAllowWithinWindow(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(3, time.Minute)
	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("1.2.3.4"), "request %d", i+1)
	}
	require.False(t, l.Allow("1.2.3.4"), "fourth request exceeds the window")

	// Other keys are unaffected.
	require.True(t, l.Allow("5.6.7.8"))
}

func TestWindowResets(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(1, 10*time.Millisecond)
	require.True(t, l.Allow("k"))
	require.False(t, l.Allow("k"))

	time.Sleep(20 * time.Millisecond)
	require.True(t, l.Allow("k"), "a fresh window grants tokens again")
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	l := ratelimit.New(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
