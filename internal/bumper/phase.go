package bumper

// Phase is the effective state derived from the flags and timestamps.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWaitingInitialTimer
	PhaseWaitingMouseIdle
	PhaseEligibleProductBumper
	PhaseProductBumperOpen
	PhaseProductBumperDismissed
	PhaseEligibleExitIntent
	PhaseExitIntentOpen
	PhaseExitIntentCooldown
	PhaseExitIntentTerminal
)

var phaseNames = [...]string{
	PhaseIdle:                   "idle",
	PhaseWaitingInitialTimer:    "waiting_initial_timer",
	PhaseWaitingMouseIdle:       "waiting_mouse_idle",
	PhaseEligibleProductBumper:  "eligible_product_bumper",
	PhaseProductBumperOpen:      "product_bumper_open",
	PhaseProductBumperDismissed: "product_bumper_dismissed",
	PhaseEligibleExitIntent:     "eligible_exit_intent",
	PhaseExitIntentOpen:         "exit_intent_open",
	PhaseExitIntentCooldown:     "exit_intent_cooldown",
	PhaseExitIntentTerminal:     "exit_intent_terminal",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
