package bumper

import (
	"context"

	"github.com/rotisserie/eris"
)

// EventType names a signal the host can report.
type EventType string

const (
	EventGuidedRankingsOpened        EventType = "guided_rankings_opened"
	EventGuidedRankingsClosed        EventType = "guided_rankings_closed"
	EventGuidedRankingsClickedInto   EventType = "guided_rankings_clicked_into"
	EventComparisonReportOpened      EventType = "comparison_report_opened"
	EventComparisonReportClosed      EventType = "comparison_report_closed"
	EventComparisonReportClickedInto EventType = "comparison_report_clicked_into"
	EventMouseMoved                  EventType = "mouse_moved"
	EventMouseStopped                EventType = "mouse_stopped"
	EventProductBumperShown          EventType = "product_bumper_shown"
	EventProductBumperDismissed      EventType = "product_bumper_dismissed"
	EventExitIntentShown             EventType = "exit_intent_shown"
	EventExitIntentDismissed         EventType = "exit_intent_dismissed"
	EventInitialTimerComplete        EventType = "initial_timer_complete"
	EventMouseTimerComplete          EventType = "mouse_timer_complete"
)

// ErrUnknownEvent is returned by Apply for an unrecognized event type.
var ErrUnknownEvent = eris.New("bumper: unknown event")

// Apply dispatches ev to the matching recorder. Only the Record*Shown
// events and unknown types return an error.
func (m *Machine) Apply(ctx context.Context, ev EventType) error {
	switch ev {
	case EventGuidedRankingsOpened:
		m.RecordGuidedRankingsOpened(ctx)
	case EventGuidedRankingsClosed:
		m.RecordGuidedRankingsClosed(ctx)
	case EventGuidedRankingsClickedInto:
		m.RecordGuidedRankingsClickedInto(ctx)
	case EventComparisonReportOpened:
		m.RecordComparisonReportOpened(ctx)
	case EventComparisonReportClosed:
		m.RecordComparisonReportClosed(ctx)
	case EventComparisonReportClickedInto:
		m.RecordComparisonReportClickedInto(ctx)
	case EventMouseMoved:
		m.RecordMouseMovement(ctx)
	case EventMouseStopped:
		m.RecordMouseStopped(ctx)
	case EventProductBumperShown:
		return m.RecordProductBumperShown(ctx)
	case EventProductBumperDismissed:
		m.RecordProductBumperDismissed(ctx)
	case EventExitIntentShown:
		return m.RecordExitIntentShown(ctx)
	case EventExitIntentDismissed:
		m.RecordExitIntentDismissed(ctx)
	case EventInitialTimerComplete:
		m.MarkInitialTimerComplete(ctx)
	case EventMouseTimerComplete:
		m.MarkMouseMovementTimerComplete(ctx)
	default:
		return eris.Wrapf(ErrUnknownEvent, "bumper: event %q", ev)
	}
	return nil
}

// Overlay returns the OverlaySet change implied by ev: the overlay name and
// whether it opens. ok is false for events that do not change overlays.
func Overlay(ev EventType) (name string, open bool, ok bool) {
	switch ev {
	case EventGuidedRankingsOpened:
		return OverlayGuidedRankings, true, true
	case EventGuidedRankingsClosed:
		return OverlayGuidedRankings, false, true
	case EventComparisonReportOpened:
		return OverlayComparisonReport, true, true
	case EventComparisonReportClosed:
		return OverlayComparisonReport, false, true
	default:
		return "", false, false
	}
}
