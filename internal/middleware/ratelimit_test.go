package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func setupRateLimitRouter(l *RateLimiter, onLimit gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.POST("/newsletter", l.Middleware(onLimit), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func postFrom(r *gin.Engine, ip string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/newsletter", nil)
	req.RemoteAddr = ip + ":1234"
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	l := NewRateLimiter(0.01, 2, time.Minute)
	r := setupRateLimitRouter(l, nil)

	for i := 0; i < 2; i++ {
		if w := postFrom(r, "10.0.0.1", false); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := postFrom(r, "10.0.0.1", false)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if !strings.Contains(w.Body.String(), "Demasiadas solicitudes") {
		t.Errorf("expected envelope message, got %s", w.Body.String())
	}

	if w := postFrom(r, "10.0.0.2", false); w.Code != http.StatusOK {
		t.Errorf("other client should not be limited, got %d", w.Code)
	}
}

func TestRateLimiter_RejectedRequestDoesNotConsumeTokens(t *testing.T) {
	l := NewRateLimiter(1, 1, time.Minute)
	base := time.Now()
	now := base
	l.now = func() time.Time { return now }

	if ok, _ := l.reserve("ip"); !ok {
		t.Fatal("first request should pass")
	}
	for i := 0; i < 5; i++ {
		if ok, _ := l.reserve("ip"); ok {
			t.Fatal("request within the same instant should be limited")
		}
	}
	now = base.Add(1100 * time.Millisecond)
	if ok, _ := l.reserve("ip"); !ok {
		t.Error("token should be available after one second")
	}
}

func TestRateLimiter_HTMXToast(t *testing.T) {
	l := NewRateLimiter(0.01, 1, time.Minute)
	r := setupRateLimitRouter(l, nil)

	postFrom(r, "10.0.0.3", true)
	w := postFrom(r, "10.0.0.3", true)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), "showToast") {
		t.Errorf("expected toast trigger, got %q", w.Header().Get("HX-Trigger"))
	}
}

func TestRateLimiter_CustomBody(t *testing.T) {
	l := NewRateLimiter(0.01, 1, time.Minute)
	r := setupRateLimitRouter(l, func(c *gin.Context) {
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": RateLimitMessage})
	})

	postFrom(r, "10.0.0.4", false)
	w := postFrom(r, "10.0.0.4", false)
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Errorf("expected custom body, got %s", w.Body.String())
	}
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, 1, time.Minute)
	base := time.Now()
	now := base
	l.now = func() time.Time { return now }

	l.reserve("a")
	now = base.Add(30 * time.Second)
	l.reserve("b")
	now = base.Add(90 * time.Second)
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.clients["a"]; ok {
		t.Error("idle client a should be dropped")
	}
	if _, ok := l.clients["b"]; !ok {
		t.Error("recent client b should be kept")
	}
}

func TestRateLimiter_RunStopsOnCancel(t *testing.T) {
	l := NewRateLimiter(1, 1, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
