package app

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/crease/internal/capture"
	"github.com/ayusman/crease/internal/detector"
)

// CameraPoses reads one frame per call and runs pose detection on it. It
// keeps the latest frame and pose for the MJPEG overlay stream.
type CameraPoses struct {
	source   capture.Source
	detector detector.Detector

	mu       sync.Mutex
	frame    gocv.Mat
	hasFrame bool
	pose     detector.Landmarks
}

func NewCameraPoses(source capture.Source, d detector.Detector) *CameraPoses {
	return &CameraPoses{source: source, detector: d}
}

// SetDetector swaps the pose detector.
func (c *CameraPoses) SetDetector(d detector.Detector) {
	c.mu.Lock()
	c.detector = d
	c.mu.Unlock()
}

// NextPose reads a frame and detects a pose on it. No person in view is not
// an error; it returns nil landmarks.
func (c *CameraPoses) NextPose() (detector.Landmarks, error) {
	frame, err := c.source.ReadFrame()
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	c.mu.Lock()
	d := c.detector
	c.mu.Unlock()

	landmarks, err := d.Detect(frame)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.hasFrame {
		c.frame.Close()
	}
	c.frame = frame.Clone()
	c.hasFrame = true
	c.pose = landmarks.Clone()
	c.mu.Unlock()

	return landmarks, nil
}

// Snapshot returns a copy of the latest frame and its pose. The caller closes
// the Mat. ok is false before the first frame.
func (c *CameraPoses) Snapshot() (frame gocv.Mat, pose detector.Landmarks, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasFrame {
		return gocv.Mat{}, nil, false
	}
	return c.frame.Clone(), c.pose.Clone(), true
}

// Reset drops the cached frame.
func (c *CameraPoses) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasFrame {
		c.frame.Close()
		c.hasFrame = false
	}
	c.pose = nil
}
