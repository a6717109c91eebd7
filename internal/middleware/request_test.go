package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"task-manager/api/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	router := gin.New()
	router.Use(middleware.RequestID(zerolog.Nop()))
	router.GET("/test", func(c *gin.Context) {
		seen = middleware.RequestIDFrom(c)
		c.Status(http.StatusNoContent)
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	header := w.Header().Get(middleware.HeaderRequestID)
	if _, err := uuid.FromString(header); err != nil {
		t.Errorf("Expected generated UUID request id, got %q", header)
	}
	if seen != header {
		t.Errorf("Expected handler to see %q, got %q", header, seen)
	}
}

func TestRequestID_KeepsCallerValue(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequestID(zerolog.Nop()))
	router.GET("/test", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.Status(http.StatusNoContent)
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(middleware.HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get(middleware.HeaderRequestID); got != "abc-123" {
		t.Errorf("Expected request id abc-123, got %q", got)
	}
}

func TestRequestLogger_LogsFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logs bytes.Buffer
	router := gin.New()
	router.Use(middleware.RequestID(zerolog.Nop()), middleware.RequestLogger(zerolog.New(&logs)))
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	req, _ := http.NewRequest("GET", "/missing", nil)
	req.Header.Set(middleware.HeaderRequestID, "req-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", logs.String(), err)
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected warn level for 404, got %v", entry["level"])
	}
	if entry["path"] != "/missing" || entry["request_id"] != "req-1" {
		t.Errorf("Unexpected log entry %v", entry)
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Errorf("Expected status 404 in log, got %v", entry["status"])
	}
}

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := middleware.NewIPRateLimiter(1, 2, time.Minute)
	router := gin.New()
	router.POST("/login", middleware.RateLimit(limiter, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests && w.Header().Get("Retry-After") == "" {
			t.Errorf("Expected Retry-After header on 429")
		}
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected [200 200 429], got %v", codes)
	}

	req, _ := http.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected other client to be allowed, got %d", w.Code)
	}
}
