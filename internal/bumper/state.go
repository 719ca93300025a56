package bumper

import "time"

// StateKey is the store key of the persisted record.
const StateKey = "unifiedBumperState"

// State is the persisted bumper record. Timestamps are Unix milliseconds
// with 0 meaning unset, matching the browser-side record. The Is*Open flags
// describe the current page only and are never persisted.
type State struct {
	HasClickedIntoGuidedRankings   bool `json:"hasClickedIntoGuidedRankings"`
	HasClickedIntoComparisonReport bool `json:"hasClickedIntoComparisonReport"`
	ProductBumperShown             bool `json:"productBumperShown"`
	ProductBumperDismissed         bool `json:"productBumperDismissed"`
	ExitIntentShown                bool `json:"exitIntentShown"`
	ExitIntentDismissed            bool `json:"exitIntentDismissed"`

	ToolOpenedAt             int64 `json:"toolOpenedAt"`
	GuidedRankingsOpenedAt   int64 `json:"guidedRankingsOpenedAt,omitempty"`
	GuidedRankingsClosedAt   int64 `json:"guidedRankingsClosedAt,omitempty"`
	ComparisonReportOpenedAt int64 `json:"comparisonReportOpenedAt,omitempty"`
	ComparisonReportClosedAt int64 `json:"comparisonReportClosedAt,omitempty"`
	LastMouseMovementAt      int64 `json:"lastMouseMovementAt,omitempty"`
	MouseStoppedAt           int64 `json:"mouseStoppedAt,omitempty"`
	ProductBumperShownAt     int64 `json:"productBumperShownAt,omitempty"`
	ProductBumperDismissedAt int64 `json:"productBumperDismissedAt,omitempty"`
	ExitIntentShownAt        int64 `json:"exitIntentShownAt,omitempty"`
	ExitIntentDismissedAt    int64 `json:"exitIntentDismissedAt,omitempty"`

	InitialTimerComplete       bool `json:"initialTimerComplete"`
	MouseMovementTimerComplete bool `json:"mouseMovementTimerComplete"`

	IsGuidedRankingsCurrentlyOpen   bool `json:"-"`
	IsComparisonReportCurrentlyOpen bool `json:"-"`
	IsProductBumperCurrentlyOpen    bool `json:"-"`
	IsExitIntentCurrentlyOpen       bool `json:"-"`
	IsAnyBumperCurrentlyOpen        bool `json:"-"`
}

// NewState returns a fresh record opened at now.
func NewState(now time.Time) State {
	return State{ToolOpenedAt: now.UnixMilli()}
}

// Scenario is the product bumper timing scenario in effect.
type Scenario string

const (
	ScenarioNone                 Scenario = ""
	ScenarioGuidedRankingsExit   Scenario = "guided_rankings_exit"
	ScenarioComparisonReportExit Scenario = "comparison_report_exit"
	ScenarioNoEngagement         Scenario = "no_engagement"
)

// ProductScenario returns the single scenario that applies, in priority
// order, and the timestamp its 23s countdown is measured from.
func (s State) ProductScenario() (Scenario, int64) {
	switch {
	case s.GuidedRankingsClosedAt != 0:
		return ScenarioGuidedRankingsExit, s.GuidedRankingsClosedAt
	case s.ComparisonReportClosedAt != 0:
		return ScenarioComparisonReportExit, s.ComparisonReportClosedAt
	case s.GuidedRankingsOpenedAt == 0 && s.ComparisonReportOpenedAt == 0:
		return ScenarioNoEngagement, s.ToolOpenedAt
	default:
		return ScenarioNone, 0
	}
}

// ExitIntentSettled reports whether the Exit-Intent Bumper can never become
// eligible again in this session.
func (s State) ExitIntentSettled() bool {
	return s.ExitIntentShown || s.HasClickedIntoGuidedRankings
}

func (s *State) resetTransient() {
	s.IsGuidedRankingsCurrentlyOpen = false
	s.IsComparisonReportCurrentlyOpen = false
	s.IsProductBumperCurrentlyOpen = false
	s.IsExitIntentCurrentlyOpen = false
	s.IsAnyBumperCurrentlyOpen = false
}

// elapsed returns now - ts, or -1 when ts is unset.
func elapsed(now time.Time, ts int64) time.Duration {
	if ts == 0 {
		return -1
	}
	return time.Duration(now.UnixMilli()-ts) * time.Millisecond
}
