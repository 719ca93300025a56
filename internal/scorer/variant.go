// Package scorer scores catalog tools against the user's weighted criteria
// and ranks them for the chart, report and email consumers.
package scorer

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Variant selects how a near-perfect or fully-matching tool is treated.
type Variant string

const (
	// VariantSnap snaps any raw score at or above SnapThreshold to 10.
	// Used by the live chart and the email report.
	VariantSnap Variant = "snap"
	// VariantMeetsAll sets the raw score to 10 only when the tool meets or
	// exceeds every criterion weight, with no threshold snap. Matches the
	// numbers printed by the legacy PDF exporter.
	VariantMeetsAll Variant = "meets_all"
)

// DefaultVariant is the canonical scoring rule.
const DefaultVariant = VariantSnap

// ErrUnknownVariant is returned by ParseVariant for an unrecognized name.
var ErrUnknownVariant = eris.New("scorer: unknown variant")

// ParseVariant parses a variant name. The empty string maps to DefaultVariant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case "", VariantSnap:
		return VariantSnap, nil
	case VariantMeetsAll, "meets-all", "meetsall":
		return VariantMeetsAll, nil
	default:
		return "", eris.Wrapf(ErrUnknownVariant, "scorer: variant %q", s)
	}
}
