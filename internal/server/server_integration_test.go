package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/crease/internal/app"
	"github.com/ayusman/crease/internal/capture"
	"github.com/ayusman/crease/internal/detector"
	"github.com/ayusman/crease/internal/store"
	"github.com/ayusman/crease/internal/technique"
)

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
		Scorer:   technique.NewSeededScorer(9),
	})
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAPI_AnalysisWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	srv := New(Config{Store: s, App: newTestApp(t, s)})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Analyze and save a sequence
	samples := make([]app.Sample, 5)
	for i := range samples {
		samples[i] = app.Sample{Timestamp: float64(i) / 5, Landmarks: detector.BattingStanceLandmarks()}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"type":     "batting",
		"samples":  samples,
		"save":     true,
		"fileName": "cover-drive.mp4",
	})
	resp, err := client.Post(ts.URL+"/api/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/analyze error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var analyzed struct {
		ID      string             `json:"id"`
		Summary *technique.Summary `json:"summary"`
	}
	json.NewDecoder(resp.Body).Decode(&analyzed)
	resp.Body.Close()

	if analyzed.ID == "" {
		t.Fatal("expected a saved analysis id")
	}
	if analyzed.Summary.FrameCount != 5 {
		t.Errorf("frameCount = %d, want 5", analyzed.Summary.FrameCount)
	}

	// 2. List analyses
	resp, _ = client.Get(ts.URL + "/api/analyses?type=batting")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/analyses status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Analyses []struct {
			ID       string `json:"id"`
			FileName string `json:"fileName"`
		} `json:"analyses"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Analyses) != 1 {
		t.Fatalf("len(analyses) = %d, want 1", len(listed.Analyses))
	}
	if listed.Analyses[0].FileName != "cover-drive.mp4" {
		t.Errorf("fileName = %s, want cover-drive.mp4", listed.Analyses[0].FileName)
	}

	// 3. Get the stored summary back
	resp, _ = client.Get(ts.URL + "/api/analyses/" + analyzed.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/analyses/%s status = %d, want %d", analyzed.ID, resp.StatusCode, http.StatusOK)
	}
	var stored struct {
		Summary technique.Summary `json:"summary"`
	}
	json.NewDecoder(resp.Body).Decode(&stored)
	resp.Body.Close()

	if stored.Summary.OverallScore != analyzed.Summary.OverallScore {
		t.Errorf("stored overallScore = %d, want %d", stored.Summary.OverallScore, analyzed.Summary.OverallScore)
	}

	// 4. Delete
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/analyses/"+analyzed.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	// 5. Verify deleted
	resp, _ = client.Get(ts.URL + "/api/analyses/" + analyzed.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_LiveEvents(t *testing.T) {
	a := newTestApp(t, nil)
	srv := New(Config{App: a})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	var hello struct {
		Event  string     `json:"event"`
		Status app.Status `json:"status"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if hello.Event != "status" || hello.Status.Running {
		t.Fatalf("unexpected hello %+v", hello)
	}

	resp, err := ts.Client().Post(ts.URL+"/api/live/start", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/live/start error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	for {
		var e app.Event
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("read event: %v", err)
		}
		if e.Kind != app.EventFrame {
			continue
		}
		if e.Frame == nil || len(e.Frame.Checks) != 5 {
			t.Fatalf("expected a batting frame, got %+v", e.Frame)
		}
		break
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}
