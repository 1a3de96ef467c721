package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"kpiboard/internal/config"
)

func newTestServer(t *testing.T) (*Server, *config.AppConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Server.DevMode = true
	cfg.Data.DataDir = t.TempDir()

	srv, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = srv.GetStore().Close() })
	return srv, cfg
}

func TestNewServer_CreatesDataLayout(t *testing.T) {
	srv, cfg := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: want 200 got %d body=%s", w.Code, w.Body.String())
	}

	for _, sub := range []string{"uploads", "exports", DBFileName} {
		if _, err := os.Stat(filepath.Join(cfg.Data.DataDir, sub)); err != nil {
			t.Fatalf("missing %s dir: %v", sub, err)
		}
	}
}

func TestServer_Routing(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodGet, "/somewhere", http.StatusTemporaryRedirect},
		{http.MethodOptions, "/api/status", http.StatusNoContent},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s: want %d got %d", tc.method, tc.path, tc.want, w.Code)
		}
	}
}
