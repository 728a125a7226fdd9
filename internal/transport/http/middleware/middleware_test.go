package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"snapcaption/internal/pkg/jwtutil"
	"snapcaption/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLimiter struct {
	decision ratelimit.Decision
	err      error
	clients  []string
}

func (f *fakeLimiter) Allow(_ context.Context, clientID string) (ratelimit.Decision, error) {
	f.clients = append(f.clients, clientID)
	return f.decision, f.err
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextClientIDKey))
	})
	r.GET("/", handlers...)
	return r
}

func TestRequestLoggerRequestID(t *testing.T) {
	r := newEngine(RequestLogger(nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("request id = %q, want client supplied id", got)
	}
}

func TestAuthJWT(t *testing.T) {
	token, err := jwtutil.GenerateToken("s3cret", "snapcaption", time.Hour, "client-7")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	r := newEngine(AuthJWT("s3cret", "snapcaption"))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Body.String() != "client-7" {
				t.Errorf("client id = %q", rec.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		limiter := &fakeLimiter{decision: ratelimit.Decision{Allowed: true, Limit: 10, Remaining: 9}}
		rec := httptest.NewRecorder()
		newEngine(RateLimit(limiter, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Remaining") != "9" {
			t.Errorf("remaining header = %q", rec.Header().Get("X-RateLimit-Remaining"))
		}
		if len(limiter.clients) != 1 || limiter.clients[0] != "ip:192.0.2.1" {
			t.Errorf("clients = %v", limiter.clients)
		}
	})

	t.Run("denied", func(t *testing.T) {
		limiter := &fakeLimiter{decision: ratelimit.Decision{Allowed: false, Limit: 10, ResetIn: 1500 * time.Millisecond}}
		rec := httptest.NewRecorder()
		newEngine(RateLimit(limiter, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") != "2" {
			t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
		}
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		limiter := &fakeLimiter{err: errors.New("redis down")}
		rec := httptest.NewRecorder()
		newEngine(RateLimit(limiter, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("uses token subject", func(t *testing.T) {
		token, err := jwtutil.GenerateToken("k", "", time.Hour, "sub-1")
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		limiter := &fakeLimiter{decision: ratelimit.Decision{Allowed: true}}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		newEngine(AuthJWT("k", ""), RateLimit(limiter, nil)).ServeHTTP(rec, req)

		if len(limiter.clients) != 1 || limiter.clients[0] != "sub-1" {
			t.Errorf("clients = %v", limiter.clients)
		}
	})
}
