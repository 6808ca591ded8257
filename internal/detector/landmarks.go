// Package detector provides pose detection interfaces and landmark types for technique analysis.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Pose landmark indices following the MediaPipe BlazePose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// ErrInvalidLandmarkSet is returned when a frame does not carry exactly
// NumLandmarks finite landmarks.
var ErrInvalidLandmarkSet = errors.New("invalid landmark set")

// Landmark is one tracked body keypoint. X and Y are normalized to image
// space, Z is depth relative to the hips, Visibility is detector confidence.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Landmarks is the full set of pose landmarks for a single frame.
type Landmarks []Landmark

// Validate checks the landmark count and that every coordinate is finite.
func (l Landmarks) Validate() error {
	if len(l) != NumLandmarks {
		return fmt.Errorf("%w: got %d landmarks, want %d", ErrInvalidLandmarkSet, len(l), NumLandmarks)
	}
	for i, p := range l {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("%w: landmark %d has non-finite coordinates", ErrInvalidLandmarkSet, i)
		}
	}
	return nil
}

// Clone returns a copy that shares no memory with l.
func (l Landmarks) Clone() Landmarks {
	if l == nil {
		return nil
	}
	out := make(Landmarks, len(l))
	copy(out, l)
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Skeleton lists the landmark pairs joined when drawing a pose overlay.
var Skeleton = [][2]int{
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightHip},
	{LeftHip, RightHip},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
	{LeftAnkle, LeftHeel},
	{RightAnkle, RightHeel},
	{LeftHeel, LeftFootIndex},
	{RightHeel, RightFootIndex},
}
