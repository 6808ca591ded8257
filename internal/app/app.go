// Package app wires pose detection, technique scoring and history into the
// batch and live drivers.
package app

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/crease/internal/capture"
	"github.com/ayusman/crease/internal/detector"
	"github.com/ayusman/crease/internal/store"
	"github.com/ayusman/crease/internal/technique"
)

// Config holds configuration options for the application.
type Config struct {
	Store    *store.Store
	CameraID int
	Live     LiveConfig
	// Camera replaces the device camera, e.g. with a MockCamera.
	Camera capture.Camera
	// Detector replaces the MediaPipe detector.
	Detector detector.Detector
	// Scorer fixes the top-band jitter source; nil is unseeded.
	Scorer *technique.Scorer
}

// App owns the camera, detector, live session and batch analyzer.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	analyzer *technique.Analyzer
	poses    *CameraPoses
	live     *LiveSession
	batch    *BatchAnalyzer
	history  HistoryStore

	mu       sync.Mutex
	cameraOn bool
	// run identifies the current Start so a stale context cannot stop a
	// later session.
	run uint64
}

// New creates an App. Saved settings (bowling hand, default skill) are
// restored from the store.
func New(config Config) *App {
	a := &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		analyzer: technique.NewAnalyzer(config.Scorer),
	}
	if a.camera == nil {
		a.camera = capture.NewCamera(config.CameraID)
	}

	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Info("Using MediaPipe pose detection")
		} else {
			log.WithError(err).Warn("MediaPipe not available, using mock detector")
			a.detector = detector.NewMockDetector()
		}
	}

	if config.Store != nil {
		a.history = NewStoreHistory(config.Store)
	}

	a.poses = NewCameraPoses(a.camera, a.detector)
	a.live = NewLiveSession(config.Live, a.analyzer, a.poses, a.history)
	a.batch = NewBatchAnalyzer(a.analyzer, a.detector)

	a.restoreSettings()
	return a
}

func (a *App) restoreSettings() {
	if a.config.Store == nil {
		return
	}
	settings := a.config.Store.Settings()

	if v, err := settings.GetOr(store.SettingDefaultSkill, ""); err == nil && v != "" {
		if skill, err := technique.ParseSkillType(v); err == nil {
			a.live.SetSkill(skill)
		}
	}
	if v, err := settings.GetOr(store.SettingBowlingHand, ""); err == nil && v != "" {
		if hand, err := technique.ParseHand(v); err == nil && hand != "" {
			a.live.Hands().SetOverride(hand)
		}
	}
}

// Start opens the camera and starts the live session. Cancelling ctx stops
// the session and releases the camera, after which Start may be called again.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cameraOn {
		if a.live.Running() {
			return nil
		}
		a.releaseLocked()
	}
	if err := a.camera.Open(); err != nil {
		return err
	}
	if err := a.live.Start(ctx); err != nil {
		a.camera.Close()
		return err
	}
	a.cameraOn = true
	a.run++
	run := a.run
	context.AfterFunc(ctx, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.cameraOn && a.run == run {
			a.live.Stop()
			a.releaseLocked()
		}
	})
	return nil
}

// Stop halts the live session and releases the camera. Any open capture is
// discarded.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.live.Stop()
	a.releaseLocked()
}

func (a *App) releaseLocked() {
	if err := a.camera.Close(); err != nil {
		log.WithError(err).Warn("Error closing camera")
	}
	a.poses.Reset()
	a.cameraOn = false
}

// Running reports whether the camera and live loop are on.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cameraOn && a.live.Running()
}

// Close stops everything and shuts down the detector.
func (a *App) Close() error {
	a.Stop()
	if a.detector != nil {
		return a.detector.Close()
	}
	return nil
}

// SetDetector swaps the pose detector used by both drivers.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.detector = d
	a.poses.SetDetector(d)
	a.batch = NewBatchAnalyzer(a.analyzer, d)
}

// SetBowlingHand pins the bowling hand, or returns to auto-detection when
// hand is empty. The choice is persisted.
func (a *App) SetBowlingHand(hand technique.Hand) error {
	if hand == "" {
		a.live.Hands().ClearOverride()
	} else if err := a.live.Hands().SetOverride(hand); err != nil {
		return err
	}
	return a.saveSetting(store.SettingBowlingHand, string(hand))
}

// SetSkill switches the live analyzer and persists it as the default.
func (a *App) SetSkill(skill technique.SkillType) error {
	if err := a.live.SetSkill(skill); err != nil {
		return err
	}
	return a.saveSetting(store.SettingDefaultSkill, string(skill))
}

func (a *App) saveSetting(key, value string) error {
	if a.config.Store == nil {
		return nil
	}
	settings := a.config.Store.Settings()
	if value == "" {
		return settings.Delete(key)
	}
	return settings.Set(key, value)
}

// SaveSummary records a batch summary in the history store.
func (a *App) SaveSummary(fileName string, summary *technique.Summary) (string, error) {
	if a.history == nil {
		return "", errors.New("no history store configured")
	}
	return a.history.SaveSummary(fileName, summary)
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detector
}

// Live returns the live session.
func (a *App) Live() *LiveSession {
	return a.live
}

// Batch returns the batch analyzer.
func (a *App) Batch() *BatchAnalyzer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.batch
}

// Poses returns the camera pose source, which also serves overlay snapshots.
func (a *App) Poses() *CameraPoses {
	return a.poses
}
