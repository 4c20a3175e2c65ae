package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, d time.Duration) (*Limiter, *time.Time) {
	t.Helper()
	l := New(limit, d)
	t.Cleanup(l.Stop)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_AllowUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("k"), "request %d should pass", i+1)
	}
	assert.False(t, l.Allow("k"))
	assert.Equal(t, 0, l.Remaining("k"))
	assert.True(t, l.Allow("other"), "keys are independent")
}

func TestLimiter_WindowResets(t *testing.T) {
	l, now := newTestLimiter(t, 1, time.Minute)

	require.True(t, l.Allow("k"))
	require.False(t, l.Allow("k"))
	assert.Equal(t, time.Minute, l.RetryAfter("k"))

	*now = now.Add(time.Minute)
	assert.True(t, l.Allow("k"))
}

func TestLimiter_ResetAndSweep(t *testing.T) {
	l, now := newTestLimiter(t, 1, time.Minute)

	require.True(t, l.Allow("a"))
	l.Reset("a")
	assert.True(t, l.Allow("a"))

	*now = now.Add(2 * time.Minute)
	l.sweep()
	l.mu.Lock()
	n := len(l.windows)
	l.mu.Unlock()
	assert.Equal(t, 0, n)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := New(1, time.Second)
	l.Stop()
	l.Stop()
}

func TestMiddleware_Returns429(t *testing.T) {
	l, _ := newTestLimiter(t, 2, time.Minute)

	var limitedKey string
	h := l.Middleware(ClientIP, func(_ *http.Request, key string) { limitedKey = key })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/update", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	rec := do()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"msg":"Too many requests, please try again later"}`, rec.Body.String())
	assert.Equal(t, "10.0.0.7", limitedKey)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "9.9.9.9:1", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 5.6.7.8 "}, "9.9.9.9:1", "5.6.7.8"},
		{"remote addr", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"remote without port", nil, "9.9.9.9", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
