package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/crease/internal/app"
	"github.com/ayusman/crease/internal/capture"
	"github.com/ayusman/crease/internal/detector"
	"github.com/ayusman/crease/internal/store"
	"github.com/ayusman/crease/internal/technique"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T, s *store.Store) *app.App {
	t.Helper()

	frames := capture.NewBlankFrames(2)
	t.Cleanup(func() {
		for _, f := range frames {
			f.Close()
		}
	})

	det := detector.NewMockDetector()
	det.SetPose(detector.BattingStanceLandmarks())

	live := app.DefaultLiveConfig()
	live.TickInterval = 10 * time.Millisecond

	a := app.New(app.Config{
		Store:    s,
		Live:     live,
		Camera:   capture.NewMockCamera(frames, true),
		Detector: det,
		Scorer:   technique.NewSeededScorer(5),
	})
	t.Cleanup(func() { a.Close() })
	return a
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func samples(n int, pose func() detector.Landmarks) []app.Sample {
	out := make([]app.Sample, n)
	for i := range out {
		out[i] = app.Sample{Timestamp: float64(i) * 0.2, Landmarks: pose()}
	}
	return out
}

func seedAnalysis(t *testing.T, s *store.Store, kind string, score int) *store.Analysis {
	t.Helper()
	a := &store.Analysis{FileName: kind + ".mp4", Type: kind, OverallScore: score, FrameCount: 10}
	require.NoError(t, s.Analyses().Create(a))
	return a
}
