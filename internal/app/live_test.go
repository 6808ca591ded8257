package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/crease/internal/detector"
	"github.com/ayusman/crease/internal/technique"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakePoses struct {
	mu    sync.Mutex
	pose  detector.Landmarks
	err   error
	calls int
}

func (p *fakePoses) NextPose() (detector.Landmarks, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.pose.Clone(), nil
}

func (p *fakePoses) set(pose detector.Landmarks, err error) {
	p.mu.Lock()
	p.pose, p.err = pose, err
	p.mu.Unlock()
}

type fakeHistory struct {
	mu    sync.Mutex
	saved []*technique.Summary
}

func (h *fakeHistory) SaveSummary(fileName string, s *technique.Summary) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saved = append(h.saved, s)
	return "analysis-1", nil
}

func (h *fakeHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.saved)
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) take() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

type liveHarness struct {
	session *LiveSession
	clock   *fakeClock
	poses   *fakePoses
	history *fakeHistory
	events  *eventLog
}

// newLiveHarness starts a session whose ticker never fires, so the test
// drives every tick through Step.
func newLiveHarness(t *testing.T, skill technique.SkillType, pose detector.Landmarks) *liveHarness {
	t.Helper()

	h := &liveHarness{
		clock:   newFakeClock(),
		poses:   &fakePoses{pose: pose},
		history: &fakeHistory{},
		events:  &eventLog{},
	}

	cfg := DefaultLiveConfig()
	cfg.Skill = skill
	cfg.TickInterval = time.Hour

	h.session = NewLiveSession(cfg, technique.NewAnalyzer(technique.NewSeededScorer(1)), h.poses, h.history)
	h.session.SetClock(h.clock.Now)
	h.session.Subscribe(h.events.add)

	require.NoError(t, h.session.Start(context.Background()))
	t.Cleanup(h.session.Stop)
	return h
}

func TestLiveSession_StepPublishesFrame(t *testing.T) {
	h := newLiveHarness(t, technique.Batting, detector.BattingStanceLandmarks())

	h.clock.Advance(500 * time.Millisecond)
	h.session.Step()

	events := h.events.take()
	require.Equal(t, []EventKind{EventFrame}, kinds(events))
	f := events[0].Frame
	require.NotNil(t, f)
	assert.Len(t, f.Checks, 5)
	assert.InDelta(t, 0.5, f.Timestamp, 1e-9)
	assert.GreaterOrEqual(t, f.OverallScore, 95)

	assert.Equal(t, f, h.session.LastFrame())
	assert.Equal(t, f.OverallScore, h.session.Status().LastScore)
}

func TestLiveSession_SkipsTickWithoutPose(t *testing.T) {
	h := newLiveHarness(t, technique.Batting, nil)

	h.session.Step()
	assert.Empty(t, h.events.take())

	h.poses.set(nil, errors.New("camera hiccup"))
	h.session.Step()
	assert.Empty(t, h.events.take())

	h.poses.set(detector.BattingStanceLandmarks()[:10], nil)
	h.session.Step()
	assert.Empty(t, h.events.take(), "invalid landmark sets are skipped")
	assert.Nil(t, h.session.LastFrame())
}

func TestLiveSession_CaptureWindow(t *testing.T) {
	h := newLiveHarness(t, technique.Fielding, detector.FieldingCrouchLandmarks())

	require.NoError(t, h.session.ArmCapture())
	events := h.events.take()
	require.Len(t, events, 1)
	assert.Equal(t, PhaseCountdown, events[0].Capture.Phase)
	assert.Equal(t, 3, events[0].Capture.Remaining)

	assert.ErrorIs(t, h.session.ArmCapture(), ErrCaptureInProgress)
	assert.ErrorIs(t, h.session.SetSkill(technique.Batting), ErrCaptureInProgress)

	// Countdown: frames are scored but not captured.
	h.session.Step()
	assert.Equal(t, []EventKind{EventFrame}, kinds(h.events.take()))

	h.clock.Advance(time.Second)
	h.session.Step()
	events = h.events.take()
	require.Equal(t, []EventKind{EventCapture, EventFrame}, kinds(events))
	assert.Equal(t, 2, events[0].Capture.Remaining)

	h.clock.Advance(2 * time.Second)
	h.session.Step()
	events = h.events.take()
	require.Equal(t, []EventKind{EventCapture, EventFrame}, kinds(events))
	assert.Equal(t, PhaseRecording, events[0].Capture.Phase)

	for i := 0; i < 4; i++ {
		h.clock.Advance(time.Second)
		h.session.Step()
	}
	h.events.take()
	assert.Equal(t, 5, h.session.Status().Capture.Frames)
	assert.Equal(t, 0, h.history.count())

	// Window closes 5s after recording began.
	h.clock.Advance(time.Second)
	h.session.Step()
	events = h.events.take()
	require.Equal(t, []EventKind{EventFrame, EventCapture, EventSummary}, kinds(events))

	summary := events[2].Summary
	require.NotNil(t, summary)
	assert.Equal(t, technique.Fielding, summary.Type)
	assert.Equal(t, 5, summary.FrameCount)
	assert.Len(t, summary.Categories, 4)
	assert.Len(t, summary.KeyFrames, 5)
	assert.Equal(t, "analysis-1", events[2].AnalysisID)

	assert.Equal(t, 1, h.history.count())
	assert.Equal(t, PhaseIdle, h.session.Status().Capture.Phase)
	assert.Equal(t, 0, h.session.Status().Capture.Frames)
	assert.Equal(t, summary, h.session.LastSummary())

	// Finalized exactly once.
	h.clock.Advance(10 * time.Second)
	h.session.Step()
	assert.Equal(t, 1, h.history.count())

	require.NoError(t, h.session.ArmCapture())
}

func TestLiveSession_LateTickClosesWindow(t *testing.T) {
	h := newLiveHarness(t, technique.Batting, detector.BattingStanceLandmarks())

	require.NoError(t, h.session.ArmCapture())
	h.clock.Advance(20 * time.Second)
	h.session.Step()

	events := h.events.take()
	require.Equal(t, []EventKind{EventCapture, EventCapture, EventFrame, EventCapture, EventSummary}, kinds(events)[:5])
	assert.Equal(t, 0, events[4].Summary.FrameCount)
	assert.Equal(t, 0, h.history.count(), "empty captures are not saved")
}

func TestLiveSession_CancelCapture(t *testing.T) {
	h := newLiveHarness(t, technique.Batting, detector.BattingStanceLandmarks())

	assert.False(t, h.session.CancelCapture())

	require.NoError(t, h.session.ArmCapture())
	h.clock.Advance(4 * time.Second)
	h.session.Step()
	h.events.take()

	assert.True(t, h.session.CancelCapture())
	events := h.events.take()
	require.Len(t, events, 1)
	assert.Equal(t, "cancelled", events[0].Capture.Reason)

	h.clock.Advance(10 * time.Second)
	h.session.Step()
	assert.NotContains(t, kinds(h.events.take()), EventSummary)
	assert.Equal(t, 0, h.history.count())
}

func TestLiveSession_StopDiscardsCapture(t *testing.T) {
	h := newLiveHarness(t, technique.Batting, detector.BattingStanceLandmarks())

	require.NoError(t, h.session.ArmCapture())
	h.clock.Advance(4 * time.Second)
	h.session.Step()
	h.events.take()

	h.session.Stop()
	events := h.events.take()
	require.Len(t, events, 1)
	assert.Equal(t, "stopped", events[0].Capture.Reason)
	assert.Equal(t, 0, h.history.count())
	assert.False(t, h.session.Running())

	assert.ErrorIs(t, h.session.ArmCapture(), ErrSessionNotRunning)
}

func TestLiveSession_BowlingHand(t *testing.T) {
	h := newLiveHarness(t, technique.Bowling, detector.BowlingDeliveryLandmarks(false))
	require.NoError(t, h.session.Hands().SetOverride(technique.Left))

	h.session.Step()
	events := h.events.take()
	require.Len(t, events, 1)
	assert.Equal(t, technique.Left, events[0].Hand)
	assert.Len(t, events[0].Frame.Checks, 5)
	assert.Equal(t, technique.Left, h.session.Status().HandOverride)
}

func TestLiveSession_SetSkill(t *testing.T) {
	h := newLiveHarness(t, technique.Batting, detector.FieldingCrouchLandmarks())

	require.NoError(t, h.session.SetSkill(technique.Fielding))
	assert.ErrorIs(t, h.session.SetSkill("golf"), technique.ErrUnknownSkill)

	h.session.Step()
	events := h.events.take()
	require.Len(t, events, 1)
	assert.Len(t, events[0].Frame.Checks, 4)
}

func TestLiveSession_RunTicksUntilCancelled(t *testing.T) {
	poses := &fakePoses{pose: detector.BattingStanceLandmarks()}
	cfg := DefaultLiveConfig()
	cfg.TickInterval = 5 * time.Millisecond

	s := NewLiveSession(cfg, technique.NewAnalyzer(technique.NewSeededScorer(2)), poses, nil)

	var mu sync.Mutex
	frames := 0
	s.Subscribe(func(e Event) {
		if e.Kind == EventFrame {
			mu.Lock()
			frames++
			mu.Unlock()
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return frames >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestLiveSession_StartWithoutSource(t *testing.T) {
	s := NewLiveSession(DefaultLiveConfig(), technique.NewAnalyzer(nil), nil, nil)
	assert.Error(t, s.Start(context.Background()))
}
