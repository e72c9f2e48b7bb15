package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/application"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubAuthorizer struct {
	err error
}

func (s stubAuthorizer) RequireAdmin(ctx context.Context, identity *application.Identity) error {
	return s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		identity *application.Identity
		err      error
		want     int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "not an admin", identity: &application.Identity{UID: "u"}, err: &application.AuthorizationError{}, want: http.StatusForbidden},
		{name: "lookup failure fails closed", identity: &application.Identity{UID: "u"}, err: errors.New("db down"), want: http.StatusInternalServerError},
		{name: "admin", identity: &application.Identity{UID: "u"}, want: http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := RequireAdmin(stubAuthorizer{err: tt.err}, discardLogger)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
			if tt.identity != nil {
				req = req.WithContext(ContextWithIdentity(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	handler := RateLimit(NewIPRateLimiter(0, 1), "X-Forwarded-For", discardLogger)(okHandler())

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusTeapot, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))
	assert.Equal(t, http.StatusTeapot, send("203.0.113.7, 10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7"))
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req, ""))
	assert.Equal(t, "192.0.2.1", clientIP(req, "X-Real-IP"))

	req.Header.Set("X-Real-IP", " 198.51.100.2 ")
	assert.Equal(t, "198.51.100.2", clientIP(req, "X-Real-IP"))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(req, ""))
}

func TestRequestLoggerAndRecoverer(t *testing.T) {
	t.Parallel()

	var seen *slog.Logger
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = LoggerFromContext(r.Context())
		panic("boom")
	})
	handler := RequestLogger(discardLogger)(Recoverer(discardLogger)(panicking))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	require.NotNil(t, seen)

	rec = httptest.NewRecorder()
	RequestLogger(discardLogger)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
