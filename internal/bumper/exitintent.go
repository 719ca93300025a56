package bumper

import (
	"context"
	"sync"
	"time"
)

// Browser identifies the host browser family for edge thresholds.
type Browser string

const (
	BrowserChrome  Browser = "chrome"
	BrowserSafari  Browser = "safari"
	BrowserFirefox Browser = "firefox"
	BrowserEdge    Browser = "edge"
	BrowserOther   Browser = "other"
)

// Viewport is the visible page area in CSS pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Trigger is the signal that fired an exit-intent check.
type Trigger string

const (
	TriggerLeaveTop    Trigger = "leave_top"
	TriggerLeaveCorner Trigger = "leave_corner"
	TriggerVelocity    Trigger = "velocity"
	TriggerVisibility  Trigger = "visibility"
	TriggerPoll        Trigger = "poll"
)

// Exit-intent geometry.
const (
	CornerRegion      = 50.0 // px from a top corner
	VelocityRegion    = 50.0 // px from the top edge
	MinUpwardVelocity = 0.5  // px per ms
)

// TopThreshold is how close to the top edge (px) a leave event must be to
// count, per browser. Safari and Firefox report the last position a few
// pixels inside the viewport.
func TopThreshold(b Browser) float64 {
	switch b {
	case BrowserSafari:
		return 10
	case BrowserFirefox:
		return 5
	default:
		return 0
	}
}

// ExitIntentDetector watches for signs the user is about to leave and asks
// the Machine whether the Exit-Intent Bumper may open.
type ExitIntentDetector struct {
	m         *Machine
	onTrigger func(Trigger)

	mu     sync.Mutex
	lastY  float64
	lastAt time.Time
}

// NewExitIntentDetector creates a detector. onTrigger runs when a signal
// arrives while the Exit-Intent Bumper is eligible.
func NewExitIntentDetector(m *Machine, onTrigger func(Trigger)) *ExitIntentDetector {
	return &ExitIntentDetector{m: m, onTrigger: onTrigger}
}

// Start schedules the floor countdown; once it fires the detector polls
// eligibility every PollInterval.
func (d *ExitIntentDetector) Start() {
	s := d.m.Snapshot()
	remaining := d.m.Thresholds().ExitFloor - elapsed(d.m.Clock().Now(), s.ToolOpenedAt)
	d.m.Timers().Start(TimerExitIntentFloor, remaining, d.schedulePoll)
}

func (d *ExitIntentDetector) schedulePoll() {
	if d.m.Snapshot().ExitIntentSettled() {
		return
	}
	d.m.Timers().Start(TimerPoll, d.m.Thresholds().PollInterval, func() {
		if d.m.Snapshot().ExitIntentSettled() {
			return
		}
		d.fire(TriggerPoll)
		d.schedulePoll()
	})
}

// Attach subscribes the detector to mouseout, mousemove and
// visibilitychange events.
func (d *ExitIntentDetector) Attach(r Registrar) int {
	n := 0
	opts := &ListenerOptions{Passive: true}
	if register(r, "mouseout", opts, func(e Event) { d.Leave(e.X, e.Y, e.Viewport, e.Browser) }) {
		n++
	}
	if register(r, "mousemove", opts, func(e Event) { d.Move(e.X, e.Y) }) {
		n++
	}
	if register(r, "visibilitychange", nil, func(Event) { d.VisibilityHidden() }) {
		n++
	}
	return n
}

// Leave handles the pointer leaving the viewport at (x, y). It reports
// whether the trigger fired.
func (d *ExitIntentDetector) Leave(x, y float64, vp Viewport, b Browser) bool {
	if y <= CornerRegion && (x <= CornerRegion || (vp.Width > 0 && x >= vp.Width-CornerRegion)) {
		return d.fire(TriggerLeaveCorner)
	}
	if y <= TopThreshold(b) {
		return d.fire(TriggerLeaveTop)
	}
	return false
}

// Move tracks vertical velocity; a fast upward move near the top edge is a
// trigger.
func (d *ExitIntentDetector) Move(_, y float64) bool {
	now := d.m.Clock().Now()

	d.mu.Lock()
	prevY, prevAt := d.lastY, d.lastAt
	d.lastY, d.lastAt = y, now
	d.mu.Unlock()

	if prevAt.IsZero() || y > VelocityRegion {
		return false
	}
	ms := float64(now.Sub(prevAt)) / float64(time.Millisecond)
	if ms <= 0 {
		return false
	}
	if (prevY-y)/ms >= MinUpwardVelocity {
		return d.fire(TriggerVelocity)
	}
	return false
}

// VisibilityHidden handles the tab losing visibility.
func (d *ExitIntentDetector) VisibilityHidden() bool {
	return d.fire(TriggerVisibility)
}

func (d *ExitIntentDetector) fire(t Trigger) bool {
	if !d.m.ShouldShowExitIntentBumper() {
		return false
	}
	if d.onTrigger != nil {
		d.onTrigger(t)
	}
	return true
}

// ShowOnTrigger returns an onTrigger callback that records the bumper as
// shown, for hosts that open it unconditionally on a trigger.
func ShowOnTrigger(ctx context.Context, m *Machine) func(Trigger) {
	return func(Trigger) {
		_ = m.RecordExitIntentShown(ctx)
	}
}
