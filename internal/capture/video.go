package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// fallbackFPS is assumed when a container does not report a frame rate.
const fallbackFPS = 30.0

// VideoFile decodes a recorded clip frame by frame.
type VideoFile struct {
	mu      sync.Mutex
	path    string
	capture *gocv.VideoCapture
	fps     float64
	frames  int
	index   int
}

// OpenVideoFile opens path for sequential decoding.
func OpenVideoFile(path string) (*VideoFile, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open video %s: unsupported or missing file", path)
	}

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = fallbackFPS
	}

	return &VideoFile{
		path:    path,
		capture: vc,
		fps:     fps,
		frames:  int(vc.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

// ReadFrame returns the next decoded frame, or io.EOF after the last one.
func (v *VideoFile) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil, io.EOF
	}
	mat, err := readMat(v.capture)
	if errors.Is(err, errRead) || errors.Is(err, ErrEmptyFrame) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	v.index++
	return mat, nil
}

// Index is the number of frames decoded so far.
func (v *VideoFile) Index() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.index
}

// FPS is the container frame rate.
func (v *VideoFile) FPS() float64 { return v.fps }

// FrameCount is the container's reported frame count; it may be 0 when the
// container does not carry one.
func (v *VideoFile) FrameCount() int { return v.frames }

// Path returns the file the clip was opened from.
func (v *VideoFile) Path() string { return v.path }

func (v *VideoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.capture == nil {
		return nil
	}
	err := v.capture.Close()
	v.capture = nil
	return err
}
