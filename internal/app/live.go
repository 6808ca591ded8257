package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/crease/internal/detector"
	"github.com/ayusman/crease/internal/metrics"
	"github.com/ayusman/crease/internal/technique"
)

var (
	// ErrCaptureInProgress is returned when arming a capture while one is
	// already counting down or recording.
	ErrCaptureInProgress = errors.New("capture already in progress")
	// ErrSessionNotRunning is returned for capture requests on a stopped session.
	ErrSessionNotRunning = errors.New("live session is not running")
)

// CaptureCapacity bounds the number of frames one capture window can hold.
const CaptureCapacity = 600

// PoseSource yields at most one fresh pose per call. It returns nil
// landmarks when nothing new is available.
type PoseSource interface {
	NextPose() (detector.Landmarks, error)
}

// LiveConfig controls the live loop and its capture window.
type LiveConfig struct {
	Skill technique.SkillType
	// Hand is the fielding throwing arm; empty means right.
	Hand              technique.Hand
	TickInterval      time.Duration
	CountdownSteps    int
	CountdownInterval time.Duration
	CaptureDuration   time.Duration
	CaptureCapacity   int
}

// DefaultLiveConfig returns a ~15 Hz batting session with a 3 s countdown
// and a 5 s capture window.
func DefaultLiveConfig() LiveConfig {
	return LiveConfig{
		Skill:             technique.Batting,
		TickInterval:      66 * time.Millisecond,
		CountdownSteps:    3,
		CountdownInterval: time.Second,
		CaptureDuration:   5 * time.Second,
		CaptureCapacity:   CaptureCapacity,
	}
}

// CapturePhase is the state of the capture window.
type CapturePhase string

const (
	PhaseIdle      CapturePhase = "idle"
	PhaseCountdown CapturePhase = "countdown"
	PhaseRecording CapturePhase = "recording"
)

// CaptureStatus reports the capture window state.
type CaptureStatus struct {
	Phase     CapturePhase `json:"phase"`
	Remaining int          `json:"remaining,omitempty"`
	Frames    int          `json:"frames"`
	Reason    string       `json:"reason,omitempty"`
}

// EventKind names a live event.
type EventKind string

const (
	EventFrame   EventKind = "frame"
	EventCapture EventKind = "capture"
	EventSummary EventKind = "summary"
)

// Event is pushed to listeners after every tick that produced something.
type Event struct {
	Kind       EventKind                `json:"event"`
	Frame      *technique.FrameAnalysis `json:"frame,omitempty"`
	Hand       technique.Hand           `json:"hand,omitempty"`
	Capture    *CaptureStatus           `json:"capture,omitempty"`
	Summary    *technique.Summary       `json:"summary,omitempty"`
	AnalysisID string                   `json:"analysisId,omitempty"`
}

// Status is a point-in-time view of a live session.
type Status struct {
	Running      bool                `json:"running"`
	Skill        technique.SkillType `json:"skill"`
	Hand         technique.Hand      `json:"hand"`
	HandOverride technique.Hand      `json:"handOverride,omitempty"`
	Capture      CaptureStatus       `json:"capture"`
	LastScore    int                 `json:"lastScore"`
}

// LiveSession scores one pose per tick and runs capture windows over the
// resulting frames. Listeners must not call Stop.
type LiveSession struct {
	mu       sync.Mutex
	cfg      LiveConfig
	analyzer *technique.Analyzer
	source   PoseSource
	hands    *technique.HandDetector
	history  HistoryStore
	now      func() time.Time

	running   bool
	startedAt time.Time
	stopCh    chan struct{}
	done      chan struct{}

	phase      CapturePhase
	armedAt    time.Time
	recordFrom time.Time
	remaining  int
	captured   *technique.Ring[*technique.FrameAnalysis]

	last        *technique.FrameAnalysis
	lastSummary *technique.Summary

	listenersMu sync.RWMutex
	listeners   map[int]func(Event)
	nextID      int
}

// NewLiveSession creates a stopped session. history may be nil.
func NewLiveSession(cfg LiveConfig, analyzer *technique.Analyzer, source PoseSource, history HistoryStore) *LiveSession {
	def := DefaultLiveConfig()
	if cfg.Skill == "" {
		cfg.Skill = def.Skill
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.CountdownSteps > 0 && cfg.CountdownInterval <= 0 {
		cfg.CountdownInterval = def.CountdownInterval
	}
	if cfg.CaptureDuration <= 0 {
		cfg.CaptureDuration = def.CaptureDuration
	}
	if cfg.CaptureCapacity <= 0 {
		cfg.CaptureCapacity = def.CaptureCapacity
	}

	return &LiveSession{
		cfg:       cfg,
		analyzer:  analyzer,
		source:    source,
		hands:     technique.NewHandDetector(technique.Right),
		history:   history,
		now:       time.Now,
		phase:     PhaseIdle,
		captured:  technique.NewRing[*technique.FrameAnalysis](cfg.CaptureCapacity),
		listeners: make(map[int]func(Event)),
	}
}

// SetClock replaces the wall clock. Used by tests.
func (s *LiveSession) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Hands returns the bowling-hand detector fed by this session.
func (s *LiveSession) Hands() *technique.HandDetector {
	return s.hands
}

// Subscribe registers fn for every event and returns a func that removes it.
func (s *LiveSession) Subscribe(fn func(Event)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *LiveSession) publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	for _, e := range events {
		for _, fn := range s.listeners {
			fn(e)
		}
	}
}

// Start launches the tick loop. It stops when ctx is done or Stop is called.
func (s *LiveSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.source == nil {
		return errors.New("live session has no pose source")
	}

	s.running = true
	s.startedAt = s.now()
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(ctx, s.stopCh, s.done)

	metrics.LiveSessionsActive.Inc()
	log.WithField("skill", s.cfg.Skill).Info("Live session started")
	return nil
}

// Stop cancels the next tick, waits for any in-flight tick and discards an
// unfinished capture without aggregating it.
func (s *LiveSession) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	done := s.done
	events := s.haltLocked()
	s.mu.Unlock()

	<-done
	s.publish(events...)
}

func (s *LiveSession) run(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			var events []Event
			if s.running && s.stopCh == stopCh {
				events = s.haltLocked()
			}
			s.mu.Unlock()
			s.publish(events...)
			return
		case <-stopCh:
			return
		case <-ticker.C:
			select {
			case <-stopCh:
				return
			default:
			}
			s.Step()
		}
	}
}

func (s *LiveSession) haltLocked() []Event {
	s.running = false
	s.stopCh = nil
	s.hands.Reset()
	metrics.LiveSessionsActive.Dec()
	log.Info("Live session stopped")

	if s.phase == PhaseIdle {
		return nil
	}
	return []Event{s.discardLocked("stopped")}
}

// Running reports whether the tick loop is active.
func (s *LiveSession) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Step runs exactly one tick: advance the capture window, pull at most one
// pose, score it and publish the frame.
func (s *LiveSession) Step() {
	defer metrics.ObserveTick()()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	now := s.now()
	events, finished := s.advanceCaptureLocked(now)

	landmarks, err := s.source.NextPose()
	if err != nil {
		metrics.RecordFrameError("live", "source")
		log.WithError(err).Debug("No pose this tick")
	}
	if err != nil || landmarks == nil {
		if err == nil {
			metrics.TicksSkipped.Inc()
		}
		s.mu.Unlock()
		s.finish(now, finished, events)
		return
	}

	hand := s.handLocked()
	frame, err := s.analyzer.AnalyzeFrame(now.Sub(s.startedAt).Seconds(), landmarks, s.cfg.Skill, hand)
	if err != nil {
		metrics.RecordFrameError("live", "invalid")
		log.WithError(err).Warn("Skipping frame")
		s.mu.Unlock()
		s.finish(now, finished, events)
		return
	}
	s.hands.Observe(landmarks)
	metrics.RecordFrame(string(s.cfg.Skill), "live", frame.OverallScore)

	if s.phase == PhaseRecording {
		s.captured.Push(frame)
	}
	s.last = frame
	events = append(events, Event{Kind: EventFrame, Frame: frame, Hand: hand})
	s.mu.Unlock()

	s.finish(now, finished, events)
}

func (s *LiveSession) handLocked() technique.Hand {
	switch s.cfg.Skill {
	case technique.Bowling:
		return s.hands.Current()
	case technique.Fielding:
		if s.cfg.Hand != "" {
			return s.cfg.Hand
		}
		return technique.Right
	}
	return ""
}

// advanceCaptureLocked moves the capture window along the wall clock. When
// the window closes it returns the finished summary.
func (s *LiveSession) advanceCaptureLocked(now time.Time) ([]Event, *technique.Summary) {
	var events []Event

	if s.phase == PhaseCountdown {
		elapsed := now.Sub(s.armedAt)
		remaining := s.cfg.CountdownSteps - int(elapsed/s.cfg.CountdownInterval)
		if remaining > 0 {
			if remaining != s.remaining {
				s.remaining = remaining
				events = append(events, s.captureEventLocked(""))
			}
			return events, nil
		}
		s.phase = PhaseRecording
		s.remaining = 0
		s.recordFrom = s.armedAt.Add(time.Duration(s.cfg.CountdownSteps) * s.cfg.CountdownInterval)
		events = append(events, s.captureEventLocked(""))
	}

	if s.phase == PhaseRecording && !now.Before(s.recordFrom.Add(s.cfg.CaptureDuration)) {
		frames := s.captured.Slice()
		s.captured.Reset()
		s.phase = PhaseIdle

		summary := technique.Summarize(s.cfg.Skill, frames)
		if s.cfg.Skill == technique.Bowling {
			summary.BowlingHand = s.hands.Current()
		}
		s.lastSummary = summary
		metrics.RecordCapture("completed")
		log.WithFields(log.Fields{
			"skill":  s.cfg.Skill,
			"frames": len(frames),
			"score":  summary.OverallScore,
		}).Info("Capture window closed")
		return events, summary
	}
	return events, nil
}

// finish hands a closed capture to the history store outside the lock, then
// publishes everything the tick produced.
func (s *LiveSession) finish(now time.Time, summary *technique.Summary, events []Event) {
	if summary == nil {
		s.publish(events...)
		return
	}

	var id string
	if s.history != nil && summary.FrameCount > 0 {
		var err error
		id, err = s.history.SaveSummary(captureName(now), summary)
		if err != nil {
			log.WithError(err).Error("Failed to save capture summary")
		}
	}

	events = append(events,
		Event{Kind: EventCapture, Capture: &CaptureStatus{Phase: PhaseIdle, Frames: summary.FrameCount}},
		Event{Kind: EventSummary, Summary: summary, AnalysisID: id},
	)
	s.publish(events...)
}

func captureName(t time.Time) string {
	return fmt.Sprintf("live capture %s", t.Format("2006-01-02 15:04:05"))
}

// ArmCapture starts the countdown for a new capture window.
func (s *LiveSession) ArmCapture() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSessionNotRunning
	}
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return ErrCaptureInProgress
	}

	s.captured.Reset()
	s.armedAt = s.now()
	if s.cfg.CountdownSteps > 0 {
		s.phase = PhaseCountdown
		s.remaining = s.cfg.CountdownSteps
	} else {
		s.phase = PhaseRecording
		s.recordFrom = s.armedAt
	}
	event := s.captureEventLocked("")
	s.mu.Unlock()

	log.WithField("skill", s.cfg.Skill).Info("Capture armed")
	s.publish(event)
	return nil
}

// CancelCapture discards an armed or recording capture. It reports whether
// there was one.
func (s *LiveSession) CancelCapture() bool {
	s.mu.Lock()
	if s.phase == PhaseIdle {
		s.mu.Unlock()
		return false
	}
	event := s.discardLocked("cancelled")
	s.mu.Unlock()

	s.publish(event)
	return true
}

func (s *LiveSession) discardLocked(reason string) Event {
	s.captured.Reset()
	s.phase = PhaseIdle
	s.remaining = 0
	metrics.RecordCapture(reason)
	log.WithField("reason", reason).Info("Capture discarded")
	return s.captureEventLocked(reason)
}

func (s *LiveSession) captureEventLocked(reason string) Event {
	st := s.captureStatusLocked()
	st.Reason = reason
	return Event{Kind: EventCapture, Capture: &st}
}

func (s *LiveSession) captureStatusLocked() CaptureStatus {
	return CaptureStatus{
		Phase:     s.phase,
		Remaining: s.remaining,
		Frames:    s.captured.Len(),
	}
}

// SetSkill switches the analyzer. It fails while a capture is open.
func (s *LiveSession) SetSkill(skill technique.SkillType) error {
	if _, err := technique.ParseSkillType(string(skill)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIdle {
		return ErrCaptureInProgress
	}
	if s.cfg.Skill != skill {
		s.cfg.Skill = skill
		s.hands.Reset()
		s.last = nil
	}
	return nil
}

// Skill returns the active skill.
func (s *LiveSession) Skill() technique.SkillType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Skill
}

// Status returns the current session state.
func (s *LiveSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:      s.running,
		Skill:        s.cfg.Skill,
		Hand:         s.hands.Current(),
		HandOverride: s.hands.Override(),
		Capture:      s.captureStatusLocked(),
	}
	if s.last != nil {
		st.LastScore = s.last.OverallScore
	}
	return st
}

// LastFrame returns the most recent scored frame, or nil.
func (s *LiveSession) LastFrame() *technique.FrameAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// LastSummary returns the summary of the most recent capture, or nil.
func (s *LiveSession) LastSummary() *technique.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSummary
}
