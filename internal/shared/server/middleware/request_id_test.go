package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"incident-backend/internal/shared/telemetry"
)

func TestRequestIDPropagatesHeaderAndContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c)+"|"+telemetry.RequestIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Body.String() != "abc|abc" {
		t.Fatalf("unexpected ids %q", resp.Body.String())
	}
	if resp.Header().Get("X-Request-Id") != "abc" {
		t.Fatalf("expected response header to echo request id")
	}
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	if len(resp.Header().Get("X-Request-Id")) != 36 {
		t.Fatalf("expected generated uuid, got %q", resp.Header().Get("X-Request-Id"))
	}
}
