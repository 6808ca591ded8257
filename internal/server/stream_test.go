package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/crease/internal/capture"
	"github.com/ayusman/crease/internal/detector"
)

type stillSource struct {
	frame gocv.Mat
	pose  detector.Landmarks
}

func (s *stillSource) Snapshot() (gocv.Mat, detector.Landmarks, bool) {
	return s.frame.Clone(), s.pose.Clone(), true
}

func TestDrawPose(t *testing.T) {
	img := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	defer img.Close()

	drawPose(&img, detector.FieldingCrouchLandmarks())
	assert.Positive(t, gocv.CountNonZero(img.Reshape(1, 0)), "skeleton drawn")

	blank := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	defer blank.Close()
	drawPose(&blank, detector.FieldingCrouchLandmarks()[:3])
	assert.Zero(t, gocv.CountNonZero(blank.Reshape(1, 0)), "partial poses are not drawn")
}

func TestStreamHandler(t *testing.T) {
	src := &stillSource{
		frame: gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3),
		pose:  detector.BattingStanceLandmarks(),
	}
	defer src.frame.Close()

	h := NewStreamHandler(src)
	h.interval = 5 * time.Millisecond
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "--frame", strings.TrimSpace(line))
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Content-Type: image/jpeg", strings.TrimSpace(line))
}
