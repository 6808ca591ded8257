package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/crease/internal/metrics"
)

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "uptime")
	return body
}

func TestServer_Health(t *testing.T) {
	t.Run("without app", func(t *testing.T) {
		body := decodeHealth(t, serve(New(Config{}), http.MethodGet, "/api/health"))
		assert.NotContains(t, body, "camera")
	})

	t.Run("reports camera state", func(t *testing.T) {
		a := newTestApp(t, nil)
		s := New(Config{App: a})

		body := decodeHealth(t, serve(s, http.MethodGet, "/api/health"))
		assert.Equal(t, false, body["camera"])

		require.NoError(t, a.Start(context.Background()))
		body = decodeHealth(t, serve(s, http.MethodGet, "/api/health"))
		assert.Equal(t, true, body["camera"])

		a.Stop()
		body = decodeHealth(t, serve(s, http.MethodGet, "/api/health"))
		assert.Equal(t, false, body["camera"])
	})

	t.Run("only allows GET", func(t *testing.T) {
		s := New(Config{})
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
			assert.Equal(t, http.StatusMethodNotAllowed, serve(s, method, "/api/health").Code, method)
		}
	})
}

func TestServer_Metrics(t *testing.T) {
	metrics.RecordFrame("bowling", "batch", 72)
	s := New(Config{})

	rec := serve(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	out := rec.Body.String()
	for _, name := range []string{
		"crease_frames_analyzed_total{",
		"crease_frame_overall_score_bucket{",
		"crease_live_sessions_active",
		"go_goroutines",
	} {
		assert.Contains(t, out, name)
	}
}

func TestServer_Routes(t *testing.T) {
	tests := []struct {
		name   string
		config func(t *testing.T) Config
		path   string
		want   int
	}{
		{"unknown api path", func(*testing.T) Config { return Config{} }, "/api/nonexistent", http.StatusNotFound},
		{"analyses need a store", func(*testing.T) Config { return Config{} }, "/api/analyses", http.StatusNotFound},
		{"analyze needs an app", func(*testing.T) Config { return Config{} }, "/api/analyze", http.StatusNotFound},
		{"live needs an app", func(*testing.T) Config { return Config{} }, "/api/live/status", http.StatusNotFound},
		{"stream needs an app", func(*testing.T) Config { return Config{} }, "/api/stream", http.StatusNotFound},
		{"root without static dir", func(*testing.T) Config { return Config{} }, "/", http.StatusNotFound},
		{
			name:   "live status with app",
			config: func(t *testing.T) Config { return Config{App: newTestApp(t, nil)} },
			path:   "/api/live/status",
			want:   http.StatusOK,
		},
		{
			name:   "analyze only accepts POST",
			config: func(t *testing.T) Config { return Config{App: newTestApp(t, nil)} },
			path:   "/api/analyze",
			want:   http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.config(t))
			assert.Equal(t, tt.want, serve(s, http.MethodGet, tt.path).Code)
		})
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	index := "<html><body>crease</body></html>"
	css := "body { color: red; }"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte(css), 0644))

	s := New(Config{StaticDir: dir})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, index},
		{"/style.css", http.StatusOK, css},
		{"/nonexistent.html", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(s, http.MethodGet, tt.path)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
