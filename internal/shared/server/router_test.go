package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"incident-backend/internal/services/health"
	"incident-backend/internal/shared/config"
)

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "picture"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "picture", "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRouter(RouterDeps{
		Config:   config.Config{Env: "dev", CORSAllowOrigin: []string{"http://localhost:3000"}},
		Health:   health.NewService(nil),
		MediaDir: dir,
	})

	cases := []struct {
		path string
		want int
	}{
		{"/api/v1/health", http.StatusOK},
		{"/api/v1/metrics", http.StatusOK},
		{"/media/picture/a.txt", http.StatusOK},
		{"/api/v1/reports", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.want, resp.Code)
		}
		if resp.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: missing request id header", tc.path)
		}
	}
}
