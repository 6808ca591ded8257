// Package tray provides a system tray menu for the crease technique coach.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Hand menu choices. HandAuto clears any pinned bowling hand.
const (
	HandAuto  = ""
	HandLeft  = "left"
	HandRight = "right"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(on bool) error
	onCapture   func() error
	onHand      func(hand string) error
	onDashboard func()
	onQuit      func()
	cameraOn    bool
	hand        string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuCapture   *systray.MenuItem
	menuLastScore *systray.MenuItem
	menuHands     map[string]*systray.MenuItem
}

// New creates a new Tray with the camera off and the bowling hand on auto.
func New() *Tray {
	return &Tray{hand: HandAuto}
}

// OnToggle sets the callback run when the camera is switched on or off. A
// returned error leaves the state unchanged.
func (t *Tray) OnToggle(fn func(on bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnCapture sets the callback run when a capture is requested.
func (t *Tray) OnCapture(fn func() error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCapture = fn
}

// OnHand sets the callback run when a bowling hand is picked.
func (t *Tray) OnHand(fn func(hand string) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onHand = fn
}

// OnDashboard sets the callback run when the dashboard item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Crease")
	systray.SetTooltip("Crease cricket technique coach")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.cameraOn), "Start or stop the camera")
	t.menuCapture = systray.AddMenuItem("Capture", "Count down and record a 5 second clip")
	if !t.cameraOn {
		t.menuCapture.Disable()
	}
	systray.AddSeparator()

	handMenu := systray.AddMenuItem("Bowling hand", "Which arm bowls")
	t.menuHands = map[string]*systray.MenuItem{
		HandAuto:  handMenu.AddSubMenuItem("Auto-detect", "Detect the bowling arm from motion"),
		HandLeft:  handMenu.AddSubMenuItem("Left", "Left-arm bowler"),
		HandRight: handMenu.AddSubMenuItem("Right", "Right-arm bowler"),
	}
	t.checkHandLocked()

	t.menuLastScore = systray.AddMenuItem(lastScoreTitle("", -1), "Score of the last capture")
	t.menuLastScore.Disable()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Crease")
	hands := t.menuHands
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuCapture.ClickedCh:
				t.handleCapture()
			case <-hands[HandAuto].ClickedCh:
				t.handleHand(HandAuto)
			case <-hands[HandLeft].ClickedCh:
				t.handleHand(HandLeft)
			case <-hands[HandRight].ClickedCh:
				t.handleHand(HandRight)
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle handles the camera menu item click.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	next := !t.cameraOn
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		if err := callback(next); err != nil {
			return
		}
	}
	t.SetCameraOn(next)
}

func (t *Tray) handleCapture() {
	t.mu.RLock()
	callback := t.onCapture
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleHand(hand string) {
	t.mu.RLock()
	callback := t.onHand
	t.mu.RUnlock()

	if callback != nil {
		if err := callback(hand); err != nil {
			return
		}
	}

	t.mu.Lock()
	t.hand = hand
	t.checkHandLocked()
	t.mu.Unlock()
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

func (t *Tray) checkHandLocked() {
	for hand, item := range t.menuHands {
		if hand == t.hand {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetCameraOn updates the camera state shown in the menu.
func (t *Tray) SetCameraOn(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cameraOn = on
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(on))
	}
	if t.menuCapture != nil {
		if on {
			t.menuCapture.Enable()
		} else {
			t.menuCapture.Disable()
		}
	}
}

// SetHand marks the active bowling hand choice without running callbacks.
func (t *Tray) SetHand(hand string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hand = hand
	t.checkHandLocked()
}

// SetLastScore shows the overall score of the last finished capture.
func (t *Tray) SetLastScore(skill string, score int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastScore != nil {
		t.menuLastScore.SetTitle(lastScoreTitle(skill, score))
	}
}

// CameraOn returns the camera state.
func (t *Tray) CameraOn() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cameraOn
}

// Hand returns the selected bowling hand; empty is auto.
func (t *Tray) Hand() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hand
}

func toggleTitle(on bool) string {
	if on {
		return "● Camera on"
	}
	return "○ Camera off"
}

func lastScoreTitle(skill string, score int) string {
	if score < 0 {
		return "Last: none"
	}
	return fmt.Sprintf("Last: %s %d", skill, score)
}

// Quit closes the tray menu, returning from Run.
func Quit() {
	systray.Quit()
}
