package bumper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestManualClock_FiresInDueOrder(t *testing.T) {
	clock := NewManualClock(t0)
	var fired []string
	clock.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	clock.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	clock.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

	clock.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, t0.Add(3*time.Second), clock.Now())
	assert.Equal(t, 1, clock.Pending())
}

func TestManualClock_CallbackSchedulesWithinWindow(t *testing.T) {
	clock := NewManualClock(t0)
	var at []time.Duration
	var tick func()
	tick = func() {
		at = append(at, clock.Now().Sub(t0))
		clock.AfterFunc(time.Second, tick)
	}
	clock.AfterFunc(time.Second, tick)

	clock.Advance(3500 * time.Millisecond)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, at)
}

func TestManualClock_Stop(t *testing.T) {
	clock := NewManualClock(t0)
	called := false
	timer := clock.AfterFunc(time.Second, func() { called = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	clock.Advance(time.Minute)
	assert.False(t, called)
}

func TestTimers_RestartReplacesPending(t *testing.T) {
	clock := NewManualClock(t0)
	timers := NewTimers(clock)

	var fired []string
	timers.Start(TimerInitial, 10*time.Second, func() { fired = append(fired, "first") })
	clock.Advance(5 * time.Second)
	timers.Start(TimerInitial, 10*time.Second, func() { fired = append(fired, "second") })

	clock.Advance(6 * time.Second)
	assert.Empty(t, fired, "restart must cancel the first countdown")
	assert.True(t, timers.Pending(TimerInitial))

	clock.Advance(4 * time.Second)
	assert.Equal(t, []string{"second"}, fired)
	assert.False(t, timers.Pending(TimerInitial))
	assert.Equal(t, 0, clock.Pending())
}

func TestTimers_CancelAndNames(t *testing.T) {
	clock := NewManualClock(t0)
	timers := NewTimers(clock)
	timers.Start(TimerPoll, time.Second, func() { t.Error("cancelled timer fired") })
	timers.Start(TimerMouseIdle, time.Second, func() {})

	assert.Equal(t, []string{TimerMouseIdle, TimerPoll}, timers.Names())
	assert.True(t, timers.Cancel(TimerPoll))
	assert.False(t, timers.Cancel(TimerPoll))
	clock.Advance(2 * time.Second)
	assert.Empty(t, timers.Names())
}

func TestTimers_StopCancelsAllAndDisablesStart(t *testing.T) {
	clock := NewManualClock(t0)
	timers := NewTimers(clock)
	timers.Start(TimerInitial, time.Second, func() { t.Error("fired after Stop") })
	timers.Start(TimerExitIntentFloor, time.Second, func() { t.Error("fired after Stop") })

	timers.Stop()
	timers.Start(TimerPoll, time.Second, func() { t.Error("started after Stop") })

	clock.Advance(time.Minute)
	assert.Empty(t, timers.Names())
	assert.Equal(t, 0, clock.Pending())
}

func TestTimers_NegativeDurationFiresOnNextAdvance(t *testing.T) {
	clock := NewManualClock(t0)
	timers := NewTimers(clock)
	fired := false
	timers.Start(TimerInitial, -time.Second, func() { fired = true })
	clock.Advance(0)
	assert.True(t, fired)
}

func TestRealClock(t *testing.T) {
	done := make(chan struct{})
	RealClock().AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real clock timer did not fire")
	}
	assert.WithinDuration(t, time.Now(), RealClock().Now(), time.Second)
}
