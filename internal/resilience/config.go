package resilience

import (
	"time"

	"github.com/sells-group/ppm-finder/internal/config"
)

// FromInsightConfig derives the breaker settings for insight generation.
func FromInsightConfig(cfg config.InsightConfig) CircuitBreakerConfig {
	cb := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold > 0 {
		cb.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.ResetTimeoutSecs > 0 {
		cb.ResetTimeout = time.Duration(cfg.ResetTimeoutSecs) * time.Second
	}
	return cb
}
