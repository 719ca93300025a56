package insight

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/ppm-finder/internal/config"
	"github.com/sells-group/ppm-finder/internal/resilience"
)

// GuardConfig configures the Guarded decorator.
type GuardConfig struct {
	Timeout    time.Duration
	RatePerSec float64
	RateBurst  int
	Breaker    resilience.CircuitBreakerConfig
	Retry      resilience.RetryConfig
}

// DefaultGuardConfig returns a 4s timeout, 5 req/s, a 3-failure breaker and
// one retry.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout:    4 * time.Second,
		RatePerSec: 5,
		RateBurst:  5,
		Breaker:    resilience.DefaultCircuitBreakerConfig(),
		Retry:      resilience.DefaultRetryConfig(),
	}
}

// GuardConfigFrom builds a GuardConfig from the insight settings.
func GuardConfigFrom(cfg config.InsightConfig) GuardConfig {
	g := DefaultGuardConfig()
	if cfg.TimeoutMs > 0 {
		g.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	if cfg.RatePerSec > 0 {
		g.RatePerSec = cfg.RatePerSec
	}
	if cfg.RateBurst > 0 {
		g.RateBurst = cfg.RateBurst
	}
	g.Breaker = resilience.FromInsightConfig(cfg)
	g.Retry.OnRetry = resilience.RetryLogger("insight.generate")
	return g
}

type guarded struct {
	next    Generator
	timeout time.Duration
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// Guarded wraps gen so every call is bounded by a timeout, rate limited,
// retried once on transient errors and short-circuited while the backend
// keeps failing. Returns nil for a nil gen.
func Guarded(gen Generator, cfg GuardConfig) Generator {
	if gen == nil {
		return nil
	}
	def := DefaultGuardConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	cfg.Breaker.ShouldTrip = func(err error) bool {
		return !errors.Is(err, context.Canceled)
	}
	return &guarded{
		next:    gen,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, cfg.RateBurst),
		breaker: resilience.NewCircuitBreaker(cfg.Breaker),
		retry:   cfg.Retry,
	}
}

func (g *guarded) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return resilience.ExecuteVal(ctx, g.breaker, func(ctx context.Context) (string, error) {
		return resilience.DoVal(ctx, g.retry, func(ctx context.Context) (string, error) {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", eris.Wrap(err, "insight: rate limit")
			}
			return g.next.Generate(ctx, req)
		})
	})
}
