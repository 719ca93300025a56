package bumper

import (
	"sort"
	"sync"
	"time"
)

// Timer names.
const (
	TimerInitial         = "initial"
	TimerMouseIdle       = "mouse-idle"
	TimerMouseQuiet      = "mouse-quiet"
	TimerExitIntentFloor = "exit-intent-floor"
	TimerPoll            = "poll"
)

// Timers is a set of named, cancellable countdowns. Starting a name that is
// already pending replaces it, so a countdown never stacks. After Stop,
// Start is a no-op.
type Timers struct {
	mu      sync.Mutex
	clock   Clock
	pending map[string]timerEntry
	nextID  uint64
	stopped bool
}

type timerEntry struct {
	id    uint64
	timer Timer
}

// NewTimers creates a Timers on clock.
func NewTimers(clock Clock) *Timers {
	return &Timers{clock: clock, pending: make(map[string]timerEntry)}
}

// Start schedules fn to run after d under name, cancelling any pending
// countdown with the same name.
func (t *Timers) Start(name string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if e, ok := t.pending[name]; ok {
		e.timer.Stop()
	}
	if d < 0 {
		d = 0
	}

	t.nextID++
	id := t.nextID
	timer := t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		e, ok := t.pending[name]
		if !ok || e.id != id {
			t.mu.Unlock()
			return
		}
		delete(t.pending, name)
		t.mu.Unlock()
		fn()
	})
	t.pending[name] = timerEntry{id: id, timer: timer}
}

// Cancel stops the named countdown and reports whether one was pending.
func (t *Timers) Cancel(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[name]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(t.pending, name)
	return true
}

// Pending reports whether the named countdown is scheduled.
func (t *Timers) Pending(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[name]
	return ok
}

// Names returns the pending countdown names, sorted.
func (t *Timers) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.pending))
	for n := range t.pending {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Stop cancels every pending countdown and disables further starts.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, e := range t.pending {
		e.timer.Stop()
		delete(t.pending, name)
	}
	t.stopped = true
}
