// Package bumper decides when the Product Bumper and Exit-Intent Bumper
// overlays may appear. The Machine records UI signals into a persisted
// State, owns the named countdowns that drive eligibility, and guarantees
// at most one overlay is open at a time.
package bumper

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/config"
	"github.com/sells-group/ppm-finder/internal/store"
)

// ErrBumperAlreadyOpen is returned by the Record*Shown methods when another
// bumper is open.
var ErrBumperAlreadyOpen = eris.New("bumper: another bumper is already open")

// Thresholds are the timing rules.
type Thresholds struct {
	InitialDelay time.Duration
	MouseIdle    time.Duration
	ExitFloor    time.Duration
	ExitCooldown time.Duration
	MouseQuiet   time.Duration
	PollInterval time.Duration
}

// DefaultThresholds returns 23s / 3s / 120s / 23s / 100ms / 1s.
func DefaultThresholds() Thresholds {
	return Thresholds{
		InitialDelay: 23 * time.Second,
		MouseIdle:    3 * time.Second,
		ExitFloor:    120 * time.Second,
		ExitCooldown: 23 * time.Second,
		MouseQuiet:   100 * time.Millisecond,
		PollInterval: time.Second,
	}
}

// ThresholdsFrom builds Thresholds from config, keeping defaults for unset
// values.
func ThresholdsFrom(cfg config.BumperConfig) Thresholds {
	th := DefaultThresholds()
	set := func(dst *time.Duration, v int, unit time.Duration) {
		if v > 0 {
			*dst = time.Duration(v) * unit
		}
	}
	set(&th.InitialDelay, cfg.InitialDelaySecs, time.Second)
	set(&th.MouseIdle, cfg.MouseIdleSecs, time.Second)
	set(&th.ExitFloor, cfg.ExitFloorSecs, time.Second)
	set(&th.ExitCooldown, cfg.ExitCooldownSecs, time.Second)
	set(&th.MouseQuiet, cfg.MouseQuietMs, time.Millisecond)
	set(&th.PollInterval, cfg.PollIntervalMs, time.Millisecond)
	return th
}

// Options configure a Machine. Zero values select the real clock, default
// thresholds and an always-home HomeState.
type Options struct {
	Clock      Clock
	Thresholds Thresholds
	Home       HomeState

	// OnProductBumperEligible is called, outside the Machine's lock, when a
	// countdown completes and the product bumper has become eligible.
	OnProductBumperEligible func()
}

// Machine is the unified bumper state machine for one session.
type Machine struct {
	mu     sync.Mutex
	kv     store.KV
	home   HomeState
	clock  Clock
	th     Thresholds
	timers *Timers
	state  State

	onProductEligible func()
}

// Load reads the persisted record from kv and returns a Machine. It never
// fails: a missing or unparsable record is replaced by a fresh one and
// store errors are logged.
func Load(ctx context.Context, kv store.KV, opts Options) *Machine {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.Home == nil {
		opts.Home = StaticHome(true)
	}

	m := &Machine{
		kv:                kv,
		home:              opts.Home,
		clock:             opts.Clock,
		th:                opts.Thresholds,
		timers:            NewTimers(opts.Clock),
		onProductEligible: opts.OnProductBumperEligible,
	}
	m.state = m.read(ctx)
	m.persist(ctx)
	return m
}

func (m *Machine) read(ctx context.Context) State {
	now := m.clock.Now()
	raw, ok, err := m.kv.Get(ctx, StateKey)
	if err != nil {
		zap.L().Warn("bumper: load state, starting fresh", zap.Error(err))
		return NewState(now)
	}
	if !ok {
		return NewState(now)
	}

	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		zap.L().Warn("bumper: corrupt state, starting fresh", zap.Error(err))
		return NewState(now)
	}
	s.resetTransient()
	if s.ToolOpenedAt == 0 {
		s.ToolOpenedAt = now.UnixMilli()
	}
	return s
}

// persist writes the record. Callers hold mu or own m exclusively.
func (m *Machine) persist(ctx context.Context) {
	data, err := json.Marshal(m.state)
	if err != nil {
		zap.L().Error("bumper: marshal state", zap.Error(err))
		return
	}
	if err := m.kv.Set(ctx, StateKey, string(data)); err != nil {
		zap.L().Warn("bumper: persist state", zap.Error(err))
	}
}

// Start schedules the initial countdown for the current product scenario.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduleInitialLocked()
}

// Close cancels every pending countdown. The Machine's queries keep
// working; no timer callback fires afterwards.
func (m *Machine) Close() {
	m.timers.Stop()
}

// Timers exposes the Machine's countdowns to the input adapters.
func (m *Machine) Timers() *Timers { return m.timers }

// Clock returns the Machine's clock.
func (m *Machine) Clock() Clock { return m.clock }

// Thresholds returns the timing rules in effect.
func (m *Machine) Thresholds() Thresholds { return m.th }

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ShouldShowProductBumper reports whether the Product Bumper may open now.
func (m *Machine) ShouldShowProductBumper() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.productEligibleLocked(m.clock.Now())
}

// ShouldShowExitIntentBumper reports whether the Exit-Intent Bumper may
// open now, given a trigger signal.
func (m *Machine) ShouldShowExitIntentBumper() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitEligibleLocked(m.clock.Now())
}

func (m *Machine) blockedLocked() bool {
	return !m.home.IsInHomeState() ||
		m.state.HasClickedIntoGuidedRankings ||
		m.state.IsAnyBumperCurrentlyOpen
}

func (m *Machine) productEligibleLocked(now time.Time) bool {
	s := &m.state
	if m.blockedLocked() || s.ProductBumperDismissed || s.ProductBumperShown {
		return false
	}
	scenario, anchor := s.ProductScenario()
	if scenario == ScenarioNone {
		return false
	}
	return elapsed(now, anchor) >= m.th.InitialDelay &&
		elapsed(now, s.MouseStoppedAt) >= m.th.MouseIdle
}

func (m *Machine) exitEligibleLocked(now time.Time) bool {
	s := &m.state
	if m.blockedLocked() || s.ExitIntentShown {
		return false
	}
	if s.ExitIntentDismissed && elapsed(now, s.ExitIntentDismissedAt) < m.th.ExitCooldown {
		return false
	}
	return elapsed(now, s.ToolOpenedAt) >= m.th.ExitFloor
}

// Phase returns the effective state.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	s := &m.state
	switch {
	case s.IsProductBumperCurrentlyOpen:
		return PhaseProductBumperOpen
	case s.IsExitIntentCurrentlyOpen:
		return PhaseExitIntentOpen
	case m.productEligibleLocked(now):
		return PhaseEligibleProductBumper
	case m.exitEligibleLocked(now):
		return PhaseEligibleExitIntent
	case s.ExitIntentShown && s.ExitIntentDismissed:
		return PhaseExitIntentTerminal
	case s.ExitIntentDismissed && elapsed(now, s.ExitIntentDismissedAt) < m.th.ExitCooldown:
		return PhaseExitIntentCooldown
	case s.ProductBumperDismissed:
		return PhaseProductBumperDismissed
	case m.blockedLocked() || s.ProductBumperShown:
		return PhaseIdle
	}

	scenario, anchor := s.ProductScenario()
	switch {
	case scenario == ScenarioNone:
		return PhaseIdle
	case elapsed(now, anchor) < m.th.InitialDelay:
		return PhaseWaitingInitialTimer
	default:
		return PhaseWaitingMouseIdle
	}
}

// Tick recomputes the timer-complete flags from the clock. It lets callers
// without running countdowns (an HTTP poller) keep the flags current.
func (m *Machine) Tick(ctx context.Context) {
	m.mu.Lock()
	now := m.clock.Now()
	s := &m.state
	changed := false

	_, anchor := s.ProductScenario()
	if initial := anchor != 0 && elapsed(now, anchor) >= m.th.InitialDelay; initial != s.InitialTimerComplete {
		s.InitialTimerComplete = initial
		changed = true
	}
	if idle := elapsed(now, s.MouseStoppedAt) >= m.th.MouseIdle; idle != s.MouseMovementTimerComplete {
		s.MouseMovementTimerComplete = idle
		changed = true
	}
	if changed {
		m.persist(ctx)
	}
	m.mu.Unlock()
}

// mutate applies fn under the lock, persists, and reports product bumper
// eligibility to the callback when notify is set.
func (m *Machine) mutate(ctx context.Context, notify bool, fn func(s *State, now time.Time) error) error {
	m.mu.Lock()
	now := m.clock.Now()
	if err := fn(&m.state, now); err != nil {
		m.mu.Unlock()
		return err
	}
	m.persist(ctx)
	eligible := notify && m.onProductEligible != nil && m.productEligibleLocked(now)
	m.mu.Unlock()

	if eligible {
		m.onProductEligible()
	}
	return nil
}

func (m *Machine) record(ctx context.Context, fn func(s *State, now time.Time)) {
	_ = m.mutate(ctx, false, func(s *State, now time.Time) error {
		fn(s, now)
		return nil
	})
}

// scheduleInitialLocked (re)starts the initial countdown for the current
// scenario anchor.
func (m *Machine) scheduleInitialLocked() {
	s := &m.state
	scenario, anchor := s.ProductScenario()
	if scenario == ScenarioNone || s.HasClickedIntoGuidedRankings || s.ProductBumperShown || s.ProductBumperDismissed {
		m.timers.Cancel(TimerInitial)
		return
	}
	remaining := m.th.InitialDelay - elapsed(m.clock.Now(), anchor)
	m.timers.Start(TimerInitial, remaining, func() {
		m.MarkInitialTimerComplete(context.Background())
	})
}

// RecordGuidedRankingsOpened records the guided rankings panel opening.
func (m *Machine) RecordGuidedRankingsOpened(ctx context.Context) {
	m.record(ctx, func(s *State, now time.Time) {
		s.GuidedRankingsOpenedAt = now.UnixMilli()
		s.IsGuidedRankingsCurrentlyOpen = true
		s.InitialTimerComplete = false
	})
	m.timers.Cancel(TimerInitial)
}

// RecordGuidedRankingsClosed records the panel closing and restarts the
// initial countdown from the close time.
func (m *Machine) RecordGuidedRankingsClosed(ctx context.Context) {
	m.record(ctx, func(s *State, now time.Time) {
		s.GuidedRankingsClosedAt = now.UnixMilli()
		s.IsGuidedRankingsCurrentlyOpen = false
		s.InitialTimerComplete = false
	})
	m.Start()
}

// RecordGuidedRankingsClickedInto permanently blocks both bumpers.
func (m *Machine) RecordGuidedRankingsClickedInto(ctx context.Context) {
	m.record(ctx, func(s *State, _ time.Time) {
		s.HasClickedIntoGuidedRankings = true
	})
	m.timers.Cancel(TimerInitial)
	m.timers.Cancel(TimerMouseIdle)
}

// RecordComparisonReportOpened records the comparison report opening.
func (m *Machine) RecordComparisonReportOpened(ctx context.Context) {
	m.record(ctx, func(s *State, now time.Time) {
		s.ComparisonReportOpenedAt = now.UnixMilli()
		s.IsComparisonReportCurrentlyOpen = true
	})
	m.Start()
}

// RecordComparisonReportClosed records the report closing.
func (m *Machine) RecordComparisonReportClosed(ctx context.Context) {
	m.record(ctx, func(s *State, now time.Time) {
		s.ComparisonReportClosedAt = now.UnixMilli()
		s.IsComparisonReportCurrentlyOpen = false
		if s.GuidedRankingsClosedAt == 0 {
			s.InitialTimerComplete = false
		}
	})
	m.Start()
}

// RecordComparisonReportClickedInto records engagement with the report.
func (m *Machine) RecordComparisonReportClickedInto(ctx context.Context) {
	m.record(ctx, func(s *State, _ time.Time) {
		s.HasClickedIntoComparisonReport = true
	})
}

// RecordMouseMovement clears the idle state.
func (m *Machine) RecordMouseMovement(ctx context.Context) {
	m.record(ctx, func(s *State, now time.Time) {
		s.LastMouseMovementAt = now.UnixMilli()
		s.MouseStoppedAt = 0
		s.MouseMovementTimerComplete = false
	})
}

// RecordMouseStopped marks the start of a mouse-idle period.
func (m *Machine) RecordMouseStopped(ctx context.Context) {
	m.record(ctx, func(s *State, now time.Time) {
		s.MouseStoppedAt = now.UnixMilli()
	})
}

// MarkInitialTimerComplete is called when the initial countdown fires.
func (m *Machine) MarkInitialTimerComplete(ctx context.Context) {
	_ = m.mutate(ctx, true, func(s *State, _ time.Time) error {
		s.InitialTimerComplete = true
		return nil
	})
}

// MarkMouseMovementTimerComplete is called when the mouse-idle countdown
// fires.
func (m *Machine) MarkMouseMovementTimerComplete(ctx context.Context) {
	_ = m.mutate(ctx, true, func(s *State, _ time.Time) error {
		s.MouseMovementTimerComplete = true
		return nil
	})
}

// RecordProductBumperShown opens the Product Bumper.
func (m *Machine) RecordProductBumperShown(ctx context.Context) error {
	err := m.mutate(ctx, false, func(s *State, now time.Time) error {
		if s.IsAnyBumperCurrentlyOpen {
			return ErrBumperAlreadyOpen
		}
		s.ProductBumperShown = true
		s.ProductBumperShownAt = now.UnixMilli()
		s.IsProductBumperCurrentlyOpen = true
		s.IsAnyBumperCurrentlyOpen = true
		return nil
	})
	if err == nil {
		m.timers.Cancel(TimerInitial)
	}
	return err
}

// RecordProductBumperDismissed closes the Product Bumper for good.
func (m *Machine) RecordProductBumperDismissed(ctx context.Context) {
	m.record(ctx, func(s *State, now time.Time) {
		s.ProductBumperDismissed = true
		s.ProductBumperDismissedAt = now.UnixMilli()
		s.IsProductBumperCurrentlyOpen = false
		s.IsAnyBumperCurrentlyOpen = s.IsExitIntentCurrentlyOpen
	})
}

// RecordExitIntentShown opens the Exit-Intent Bumper. Once shown it never
// shows again.
func (m *Machine) RecordExitIntentShown(ctx context.Context) error {
	err := m.mutate(ctx, false, func(s *State, now time.Time) error {
		if s.IsAnyBumperCurrentlyOpen {
			return ErrBumperAlreadyOpen
		}
		s.ExitIntentShown = true
		s.ExitIntentShownAt = now.UnixMilli()
		s.IsExitIntentCurrentlyOpen = true
		s.IsAnyBumperCurrentlyOpen = true
		return nil
	})
	if err == nil {
		m.timers.Cancel(TimerPoll)
	}
	return err
}

// RecordExitIntentDismissed closes the Exit-Intent Bumper and starts the
// cooldown.
func (m *Machine) RecordExitIntentDismissed(ctx context.Context) {
	m.record(ctx, func(s *State, now time.Time) {
		s.ExitIntentDismissed = true
		s.ExitIntentDismissedAt = now.UnixMilli()
		s.IsExitIntentCurrentlyOpen = false
		s.IsAnyBumperCurrentlyOpen = s.IsProductBumperCurrentlyOpen
	})
}

// Reset deletes the persisted record and starts over with a fresh
// in-memory state. The next recorded signal persists it again.
func (m *Machine) Reset(ctx context.Context) {
	m.mu.Lock()
	if err := m.kv.Remove(ctx, StateKey); err != nil {
		zap.L().Warn("bumper: remove state", zap.Error(err))
	}
	m.state = NewState(m.clock.Now())
	for _, name := range m.timers.Names() {
		m.timers.Cancel(name)
	}
	m.scheduleInitialLocked()
	m.mu.Unlock()
}
