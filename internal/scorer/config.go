package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ppm-finder/internal/config"
)

// DefaultScoringConfig returns a config.ScoringConfig with sensible defaults.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		Variant:      string(DefaultVariant),
		ReportTopN:   3,
		ChartTopN:    10,
		HonorableMax: 3,
	}
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	if _, err := ParseVariant(c.Variant); err != nil {
		errs = append(errs, fmt.Sprintf("variant %q is not one of snap, meets_all", c.Variant))
	}
	if c.ReportTopN < 1 {
		errs = append(errs, "report_top_n must be >= 1")
	}
	if c.ChartTopN < 0 {
		errs = append(errs, "chart_top_n must be >= 0")
	}
	if c.HonorableMax < 0 {
		errs = append(errs, "honorable_max must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// EngineFromConfig builds an Engine for the configured variant, falling
// back to the canonical variant when the name is invalid.
func EngineFromConfig(c config.ScoringConfig) *Engine {
	v, err := ParseVariant(c.Variant)
	if err != nil {
		v = DefaultVariant
	}
	return NewEngine(v, nil)
}
