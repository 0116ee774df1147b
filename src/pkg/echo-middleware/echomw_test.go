package echomw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestRequireBearerToken(t *testing.T) {
	t.Setenv(EnvBearerToken, "s3cret")
	e := echo.New()
	handler := RequireBearerToken(okHandler)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer s3cret", http.StatusOK},
		{"scheme is case insensitive", "bearer   s3cret ", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"basic scheme", "Basic s3cret", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ocr/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			assert.NoError(t, handler(e.NewContext(req, rec)))
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "condo-plates")
			}
		})
	}
}

func TestRequireBearerTokenFailsClosed(t *testing.T) {
	t.Setenv(EnvBearerToken, "")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()

	assert.NoError(t, RequireBearerToken(okHandler)(echo.New().NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiterPerIP(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 2, time.Minute)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 1, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")
	assert.Equal(t, 2, limiter.tracked())

	now = now.Add(2 * time.Minute)
	limiter.Allow("10.0.0.3")
	assert.Equal(t, 1, limiter.tracked())
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	limiter := NewRateLimiter(1, 1, time.Minute)
	handler := limiter.Middleware(okHandler)

	codes := []int{}
	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRealIP, "192.0.2.7")
		rec := httptest.NewRecorder()
		assert.NoError(t, handler(e.NewContext(req, rec)))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
