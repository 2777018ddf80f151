package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/HyungsunSo/AI-NutriCurator/internal/platform/logger"
)

var dashboardOrigins = []string{"https://dashboard.nutricurator.kr", "http://localhost:*"}

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{"exact origin", "https://dashboard.nutricurator.kr", dashboardOrigins, true},
		{"any local port", "http://localhost:5173", dashboardOrigins, true},
		{"scheme is part of the origin", "http://dashboard.nutricurator.kr", dashboardOrigins, false},
		{"suffix lookalike", "https://dashboard.nutricurator.kr.evil.io", dashboardOrigins, false},
		{"no origin header", "", dashboardOrigins, false},
		{"bare wildcard still needs an origin", "", []string{"*"}, false},
		{"bare wildcard", "https://partner.example", []string{"*"}, true},
		{"nothing configured", "http://localhost:3000", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isAllowedOrigin(tt.origin, tt.allowed))
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantCORS   bool
	}{
		{"allowed match request", http.MethodPost, "http://localhost:3000", http.StatusOK, true},
		{"allowed preflight", http.MethodOptions, "https://dashboard.nutricurator.kr", http.StatusNoContent, true},
		{"foreign origin is served without headers", http.MethodPost, "https://other.example", http.StatusOK, false},
		{"foreign preflight still short-circuits", http.MethodOptions, "https://other.example", http.StatusNoContent, false},
		{"server to server call", http.MethodPost, "", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(dashboardOrigins))
			router.POST("/api/v1/match", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/api/v1/match", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCORS {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
				assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"success logs at info", http.StatusOK, "info"},
		{"client error logs at warn", http.StatusBadRequest, "warn"},
		{"server error logs at error", http.StatusBadGateway, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(logger.Options{Level: "debug", Format: "json", Writer: &buf})

			router := gin.New()
			router.Use(LoggerMiddleware(&log))
			router.GET("/test", func(c *gin.Context) {
				c.String(tt.status, "body")
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test?q=1", nil))

			var line map[string]any
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
				t.Fatalf("access log is not one JSON line: %v (%q)", err, buf.String())
			}
			if line["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", line["level"], tt.wantLevel)
			}
			if line["path"] != "/test" || line["method"] != "GET" {
				t.Errorf("path/method = %v %v", line["path"], line["method"])
			}
			if int(line["status"].(float64)) != tt.status {
				t.Errorf("status = %v, want %d", line["status"], tt.status)
			}
		})
	}
}

func TestRecoveryMiddleware_LogsPanic(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: "debug", Format: "json", Writer: &buf})

	router := gin.New()
	router.Use(RecoveryMiddleware(&log))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Errorf("body = %s, want error message", w.Body.String())
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("panic value not logged: %s", buf.String())
	}
}
