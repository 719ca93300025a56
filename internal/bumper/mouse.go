package bumper

import (
	"context"
)

// MouseTracker turns raw mouse movement into the mouse-idle signals. A
// movement restarts a short quiet countdown; when it elapses the mouse is
// considered stopped and the idle countdown starts. Any movement during
// either countdown restarts the sequence.
type MouseTracker struct {
	m      *Machine
	onIdle func()
}

// NewMouseTracker creates a tracker feeding m. onIdle, if set, runs after
// the idle countdown completes.
func NewMouseTracker(m *Machine, onIdle func()) *MouseTracker {
	return &MouseTracker{m: m, onIdle: onIdle}
}

// Attach subscribes the tracker to "mousemove" events.
func (t *MouseTracker) Attach(r Registrar) bool {
	return register(r, "mousemove", &ListenerOptions{Passive: true}, func(Event) {
		t.Move(context.Background())
	})
}

// Move records a mouse movement.
func (t *MouseTracker) Move(ctx context.Context) {
	timers := t.m.Timers()
	t.m.RecordMouseMovement(ctx)
	timers.Cancel(TimerMouseIdle)
	timers.Start(TimerMouseQuiet, t.m.Thresholds().MouseQuiet, t.quiet)
}

func (t *MouseTracker) quiet() {
	ctx := context.Background()
	t.m.RecordMouseStopped(ctx)
	t.m.Timers().Start(TimerMouseIdle, t.m.Thresholds().MouseIdle, func() {
		t.m.MarkMouseMovementTimerComplete(ctx)
		if t.onIdle != nil {
			t.onIdle()
		}
	})
}
