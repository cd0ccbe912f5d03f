package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_CheckUserLimit(t *testing.T) {
	rl := NewRateLimiter(3, 100, time.Minute)
	defer rl.Stop()

	for i := 1; i <= 3; i++ {
		if !rl.CheckUserLimit(7) {
			t.Fatalf("CheckUserLimit() request %d = false, want true", i)
		}
	}

	if rl.CheckUserLimit(7) {
		t.Error("CheckUserLimit() over limit = true, want false")
	}

	if !rl.CheckUserLimit(8) {
		t.Error("CheckUserLimit() for another user = false, want true")
	}

	if got := rl.GetUserRemaining(7); got != 0 {
		t.Errorf("GetUserRemaining(7) = %d, want 0", got)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	if !rl.CheckIPLimit("10.0.0.1") {
		t.Fatal("CheckIPLimit() first request = false, want true")
	}
	if rl.CheckIPLimit("10.0.0.1") {
		t.Fatal("CheckIPLimit() second request = true, want false")
	}

	now = now.Add(2 * time.Minute)
	if !rl.CheckIPLimit("10.0.0.1") {
		t.Error("CheckIPLimit() after window = false, want true")
	}
	if got := rl.GetIPRemaining("10.0.0.1"); got != 0 {
		t.Errorf("GetIPRemaining() = %d, want 0", got)
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	defer rl.Stop()

	rl.CheckUserLimit(1)
	rl.Reset()

	if got := rl.GetUserRemaining(1); got != 1 {
		t.Errorf("GetUserRemaining() after Reset = %d, want 1", got)
	}
}

func TestRateLimiter_LimitIPMiddleware(t *testing.T) {
	rl := NewRateLimiter(10, 2, time.Minute)
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.LimitIP())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		wantStatus    int
		wantRemaining string
	}{
		{wantStatus: http.StatusOK, wantRemaining: "1"},
		{wantStatus: http.StatusOK, wantRemaining: "0"},
		{wantStatus: http.StatusTooManyRequests, wantRemaining: ""},
	}
	for i, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		router.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Errorf("request %d status = %d, want %d", i+1, rec.Code, tt.wantStatus)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != tt.wantRemaining {
			t.Errorf("request %d X-RateLimit-Remaining = %q, want %q", i+1, got, tt.wantRemaining)
		}
	}
}

func TestRateLimiter_LimitUserMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, 100, time.Minute)
	defer rl.Stop()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(contextUserID, uint(5))
		c.Next()
	})
	router.Use(rl.LimitUser())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want %d", first.Code, http.StatusOK)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want %d", second.Code, http.StatusTooManyRequests)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want %q", second.Header().Get("Retry-After"), "60")
	}
}
