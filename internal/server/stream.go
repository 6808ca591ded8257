package server

import (
	"fmt"
	"image"
	"image/color"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/crease/internal/detector"
)

// minOverlayVisibility hides joints the detector is unsure about.
const minOverlayVisibility = 0.5

var (
	boneColor  = color.RGBA{R: 0, G: 200, B: 255, A: 0}
	jointColor = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// FrameSource returns the latest camera frame and its detected pose.
type FrameSource interface {
	Snapshot() (gocv.Mat, detector.Landmarks, bool)
}

// StreamHandler serves MJPEG frames with the detected skeleton drawn on top.
type StreamHandler struct {
	source   FrameSource
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler reading from source.
func NewStreamHandler(source FrameSource) *StreamHandler {
	return &StreamHandler{source: source, interval: 66 * time.Millisecond}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, pose, ok := h.source.Snapshot()
		if !ok {
			continue
		}
		drawPose(&frame, pose)
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
		frame.Close()
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// drawPose overlays the skeleton on img. Landmarks are normalized, so they are
// scaled to the frame size.
func drawPose(img *gocv.Mat, pose detector.Landmarks) {
	if len(pose) != detector.NumLandmarks || img.Empty() {
		return
	}
	w, h := img.Cols(), img.Rows()
	at := func(i int) image.Point {
		return image.Pt(int(pose[i].X*float64(w)), int(pose[i].Y*float64(h)))
	}
	visible := func(i int) bool {
		return pose[i].Visibility >= minOverlayVisibility
	}

	for _, bone := range detector.Skeleton {
		if visible(bone[0]) && visible(bone[1]) {
			gocv.Line(img, at(bone[0]), at(bone[1]), boneColor, 2)
		}
	}
	for i := range pose {
		if visible(i) {
			gocv.Circle(img, at(i), 3, jointColor, -1)
		}
	}
}
