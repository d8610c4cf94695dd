package bootstrap

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"incident-backend/internal/shared/auth"
	"incident-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("ENV", "dev")
	t.Setenv("JWT_SECRET", "test-secret")
	app, err := Build(config.Config{
		Env:                "dev",
		ObjectStoreType:    "local",
		LocalStoreDir:      t.TempDir(),
		PublicBaseURL:      "http://localhost:8080",
		MaxUploadBytes:     1 << 20,
		ExportFetchTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return app
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return "Bearer " + token
}

func do(t *testing.T, app *App, req *http.Request, user string) *httptest.ResponseRecorder {
	t.Helper()
	if user != "" {
		req.Header.Set("Authorization", bearer(t, user))
	}
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func TestBuildUsesMemoryReposInDev(t *testing.T) {
	app := newTestApp(t)
	if app.DB != nil {
		t.Fatalf("expected no database in dev without DATABASE_URL")
	}
	if app.MediaDir == "" || app.Queue != nil {
		t.Fatalf("unexpected store wiring: dir=%q queue=%v", app.MediaDir, app.Queue)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	if _, err := Build(config.Config{Env: "production"}); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestReportLifecycleThroughRouter(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil), "alice")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create report: expected 201, got %d (%s)", resp.Code, resp.Body.String())
	}
	var report struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("mediaType", "audio")
	_ = mw.WriteField("title", "Dripping tap")
	part, _ := mw.CreateFormFile("file", "tap.mp3")
	_, _ = part.Write([]byte("ID3 not really audio"))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/"+report.ID+"/attachments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp = do(t, app, req, "alice")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create attachment: expected 201, got %d (%s)", resp.Code, resp.Body.String())
	}
	var att struct {
		ID       string `json:"id"`
		MediaURL string `json:"mediaUrl"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &att); err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	if !strings.HasPrefix(att.MediaURL, "http://localhost:8080/media/audio/") {
		t.Fatalf("unexpected media url %q", att.MediaURL)
	}

	mediaPath := strings.TrimPrefix(att.MediaURL, "http://localhost:8080")
	resp = do(t, app, httptest.NewRequest(http.MethodGet, mediaPath, nil), "")
	if resp.Code != http.StatusOK || resp.Body.String() != "ID3 not really audio" {
		t.Fatalf("serve media: got %d %q", resp.Code, resp.Body.String())
	}

	resp = do(t, app, httptest.NewRequest(http.MethodDelete, "/api/v1/reports/"+report.ID, nil), "alice")
	if resp.Code != http.StatusConflict {
		t.Fatalf("delete with attachments: expected 409, got %d", resp.Code)
	}

	resp = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+report.ID+"/export", nil), "alice")
	if resp.Code != http.StatusOK || resp.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("export: got %d %q", resp.Code, resp.Header().Get("Content-Type"))
	}

	resp = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+report.ID, nil), "mallory")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("foreign read: expected 403, got %d", resp.Code)
	}

	resp = do(t, app, httptest.NewRequest(http.MethodDelete, "/api/v1/attachments/"+att.ID, nil), "alice")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete attachment: expected 204, got %d", resp.Code)
	}
	resp = do(t, app, httptest.NewRequest(http.MethodGet, mediaPath, nil), "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("blob should be gone, got %d", resp.Code)
	}

	resp = do(t, app, httptest.NewRequest(http.MethodDelete, "/api/v1/reports/"+report.ID, nil), "alice")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete report: expected 204, got %d (%s)", resp.Code, resp.Body.String())
	}
}
