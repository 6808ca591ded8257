package technique

import (
	"sync"

	"github.com/ayusman/crease/internal/detector"
)

const (
	// HandWindow is the number of recent frames the detector keeps.
	HandWindow = 30
	// MinHandFrames is the fewest frames needed before the detector decides.
	MinHandFrames = 10
	// handMargin is how much more active one arm must be to win.
	handMargin = 1.2
)

// HandDetector infers the bowling arm from which wrist and elbow move more
// across a rolling window of recent poses. A manual override wins while set.
type HandDetector struct {
	mu       sync.Mutex
	window   *Ring[detector.Landmarks]
	current  Hand
	override Hand
}

// NewHandDetector creates a detector that reports fallback until it has
// enough evidence. An empty fallback means right.
func NewHandDetector(fallback Hand) *HandDetector {
	if fallback == "" {
		fallback = Right
	}
	return &HandDetector{
		window:  NewRing[detector.Landmarks](HandWindow),
		current: fallback,
	}
}

// Observe adds one frame and returns the hand to use for it. Invalid frames
// are ignored.
func (d *HandDetector) Observe(landmarks detector.Landmarks) Hand {
	d.mu.Lock()
	defer d.mu.Unlock()

	if landmarks.Validate() == nil {
		d.window.Push(landmarks)
		if d.window.Len() >= MinHandFrames {
			d.classify()
		}
	}
	return d.hand()
}

// Current returns the hand in effect without observing a frame.
func (d *HandDetector) Current() Hand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hand()
}

// Detected returns the automatically inferred hand, ignoring any override.
func (d *HandDetector) Detected() Hand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// SetOverride pins the hand until ClearOverride is called.
func (d *HandDetector) SetOverride(h Hand) error {
	if h != Left && h != Right {
		return ErrUnknownHand
	}
	d.mu.Lock()
	d.override = h
	d.mu.Unlock()
	return nil
}

// ClearOverride returns the detector to automatic mode.
func (d *HandDetector) ClearOverride() {
	d.mu.Lock()
	d.override = ""
	d.mu.Unlock()
}

// Override returns the pinned hand, or empty in automatic mode.
func (d *HandDetector) Override() Hand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.override
}

// Reset drops the window. The last inferred hand and any override are kept.
func (d *HandDetector) Reset() {
	d.mu.Lock()
	d.window.Reset()
	d.mu.Unlock()
}

func (d *HandDetector) hand() Hand {
	if d.override != "" {
		return d.override
	}
	return d.current
}

func (d *HandDetector) classify() {
	var left, right float64
	for i := 1; i < d.window.Len(); i++ {
		prev, cur := d.window.At(i-1), d.window.At(i)
		left += Distance(prev[detector.LeftWrist], cur[detector.LeftWrist]) +
			Distance(prev[detector.LeftElbow], cur[detector.LeftElbow])
		right += Distance(prev[detector.RightWrist], cur[detector.RightWrist]) +
			Distance(prev[detector.RightElbow], cur[detector.RightElbow])
	}

	switch {
	case right > left*handMargin:
		d.current = Right
	case left > right*handMargin:
		d.current = Left
	}
}
