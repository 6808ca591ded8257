package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It plays back a fixed sequence of poses, one per Detect call.
type MockDetector struct {
	mu    sync.Mutex
	poses []Landmarks
	index int
	loop  bool
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{loop: true}
}

// SetPose makes every Detect call return the given landmarks.
func (m *MockDetector) SetPose(pose Landmarks) {
	m.SetPoses([]Landmarks{pose}, true)
}

// SetPoses sets the sequence returned by Detect. A nil entry simulates a
// frame where nobody was detected.
func (m *MockDetector) SetPoses(poses []Landmarks, loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
	m.index = 0
	m.loop = loop
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next pre-configured pose or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Landmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.poses) == 0 {
		return nil, nil
	}
	if m.index >= len(m.poses) {
		if !m.loop {
			return nil, nil
		}
		m.index = 0
	}

	pose := m.poses[m.index]
	m.index++
	return pose.Clone(), nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// BendLimb returns the end point of a limb segment of the given length that
// leaves vertex at angleDeg degrees from the ray vertex->start. Positive
// angles rotate clockwise on screen (image y grows downwards).
func BendLimb(start, vertex Landmark, angleDeg, length float64) Landmark {
	base := math.Atan2(start.Y-vertex.Y, start.X-vertex.X)
	dir := base + angleDeg*math.Pi/180
	return Landmark{
		X:          vertex.X + length*math.Cos(dir),
		Y:          vertex.Y + length*math.Sin(dir),
		Visibility: 0.99,
	}
}

func pt(x, y float64) Landmark {
	return Landmark{X: x, Y: y, Visibility: 0.99}
}

// basePose fills every landmark so callers only override the joints they care about.
func basePose(noseX, noseY float64) Landmarks {
	l := make(Landmarks, NumLandmarks)
	for i := range l {
		l[i] = pt(noseX, noseY)
	}
	l[LeftEyeInner] = pt(noseX+0.01, noseY-0.01)
	l[LeftEye] = pt(noseX+0.015, noseY-0.01)
	l[LeftEyeOuter] = pt(noseX+0.02, noseY-0.01)
	l[RightEyeInner] = pt(noseX-0.01, noseY-0.01)
	l[RightEye] = pt(noseX-0.015, noseY-0.01)
	l[RightEyeOuter] = pt(noseX-0.02, noseY-0.01)
	l[LeftEar] = pt(noseX+0.03, noseY)
	l[RightEar] = pt(noseX-0.03, noseY)
	l[MouthLeft] = pt(noseX+0.01, noseY+0.02)
	l[MouthRight] = pt(noseX-0.01, noseY+0.02)
	return l
}

func finishHandsAndFeet(l Landmarks) {
	for _, side := range []struct{ wrist, pinky, index, thumb int }{
		{LeftWrist, LeftPinky, LeftIndex, LeftThumb},
		{RightWrist, RightPinky, RightIndex, RightThumb},
	} {
		w := l[side.wrist]
		l[side.pinky] = pt(w.X, w.Y+0.01)
		l[side.index] = pt(w.X, w.Y+0.015)
		l[side.thumb] = pt(w.X, w.Y+0.005)
	}
	la, ra := l[LeftAnkle], l[RightAnkle]
	l[LeftHeel] = pt(la.X-0.01, la.Y+0.01)
	l[RightHeel] = pt(ra.X+0.01, ra.Y+0.01)
	l[LeftFootIndex] = pt(la.X+0.03, la.Y+0.02)
	l[RightFootIndex] = pt(ra.X-0.03, ra.Y+0.02)
}

// BattingStanceLandmarks returns a batting stance with every measured
// quantity at its coaching ideal: feet 1.3 shoulder widths apart, knees
// flexed to 150 degrees, elbows at 135 degrees, head over the base and a
// slight forward weight shift.
func BattingStanceLandmarks() Landmarks {
	l := basePose(0.5, 0.2)

	l[LeftShoulder] = pt(0.6, 0.3)
	l[RightShoulder] = pt(0.4, 0.3)

	l[LeftElbow] = pt(0.6, 0.42)
	l[LeftWrist] = BendLimb(l[LeftShoulder], l[LeftElbow], 135, 0.12)
	l[RightElbow] = pt(0.4, 0.42)
	l[RightWrist] = BendLimb(l[RightShoulder], l[RightElbow], -135, 0.12)

	l[LeftHip] = pt(0.58, 0.55)
	l[RightHip] = pt(0.40, 0.55)

	l[LeftAnkle] = pt(0.62, 0.95)
	l[RightAnkle] = pt(0.36, 0.95)
	l[LeftKnee] = kneeFor(l[LeftHip], l[LeftAnkle], 150, true)
	l[RightKnee] = kneeFor(l[RightHip], l[RightAnkle], 150, false)

	finishHandsAndFeet(l)
	return l
}

// BowlingDeliveryLandmarks returns a delivery-stride pose with a straight
// bowling arm (175 degrees), a 160 degree front arm, hips open to 0.6
// shoulder widths and a 170 degree front knee brace.
func BowlingDeliveryLandmarks(rightHanded bool) Landmarks {
	l := basePose(0.5, 0.2)

	l[LeftShoulder] = pt(0.45, 0.3)
	l[RightShoulder] = pt(0.55, 0.3)
	l[LeftHip] = pt(0.47, 0.55)
	l[RightHip] = pt(0.53, 0.55)

	bowlS, bowlE, bowlW := RightShoulder, RightElbow, RightWrist
	frontS, frontE, frontW := LeftShoulder, LeftElbow, LeftWrist
	frontH, frontK, frontA := LeftHip, LeftKnee, LeftAnkle
	backH, backK, backA := RightHip, RightKnee, RightAnkle
	dir := 1.0
	if !rightHanded {
		bowlS, bowlE, bowlW = LeftShoulder, LeftElbow, LeftWrist
		frontS, frontE, frontW = RightShoulder, RightElbow, RightWrist
		frontH, frontK, frontA = RightHip, RightKnee, RightAnkle
		backH, backK, backA = LeftHip, LeftKnee, LeftAnkle
		dir = -1.0
	}

	l[bowlE] = pt(l[bowlS].X, 0.18)
	l[bowlW] = BendLimb(l[bowlS], l[bowlE], 175, 0.12)

	l[frontE] = pt(l[frontS].X-dir*0.1, 0.32)
	l[frontW] = BendLimb(l[frontS], l[frontE], 160, 0.1)

	l[frontK] = pt(l[frontH].X-dir*0.04, 0.72)
	l[frontA] = BendLimb(l[frontH], l[frontK], 170, 0.2)

	l[backK] = pt(l[backH].X+dir*0.05, 0.72)
	l[backA] = pt(l[backK].X+dir*0.05, 0.92)

	finishHandsAndFeet(l)
	return l
}

// FieldingCrouchLandmarks returns a ground-fielding crouch with knees at
// 110 degrees, a 0.8 body-lean ratio, both hands below the knees and a
// 90 degree throwing elbow on the right arm.
func FieldingCrouchLandmarks() Landmarks {
	l := basePose(0.5, 0.32)

	l[LeftShoulder] = pt(0.6, 0.40)
	l[RightShoulder] = pt(0.4, 0.40)
	l[LeftHip] = pt(0.58, 0.56)
	l[RightHip] = pt(0.42, 0.56)

	l[LeftKnee] = pt(0.62, 0.70)
	l[LeftAnkle] = BendLimb(l[LeftHip], l[LeftKnee], 110, 0.15)
	l[RightKnee] = pt(0.38, 0.70)
	l[RightAnkle] = BendLimb(l[RightHip], l[RightKnee], -110, 0.15)

	l[LeftElbow] = pt(0.6, 0.60)
	l[LeftWrist] = pt(0.62, 0.80)
	l[RightElbow] = pt(0.4, 0.72)
	l[RightWrist] = BendLimb(l[RightShoulder], l[RightElbow], 90, 0.12)

	finishHandsAndFeet(l)
	return l
}

// kneeFor places a knee between hip and ankle so that hip-knee-ankle forms
// the requested angle with equal thigh and shin lengths.
func kneeFor(hip, ankle Landmark, angleDeg float64, outwardRight bool) Landmark {
	mx, my := (hip.X+ankle.X)/2, (hip.Y+ankle.Y)/2
	dx, dy := ankle.X-hip.X, ankle.Y-hip.Y
	half := math.Hypot(dx, dy) / 2
	offset := half / math.Tan(angleDeg/2*math.Pi/180)

	// unit perpendicular to the hip-ankle line
	px, py := dy/(2*half), -dx/(2*half)
	if (px < 0) == outwardRight {
		px, py = -px, -py
	}
	return pt(mx+px*offset, my+py*offset)
}
