package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/config"
	"github.com/sells-group/ppm-finder/internal/db"
	"github.com/sells-group/ppm-finder/internal/model"
)

// Cached serves a source's data for ttl, then refreshes. When a refresh
// fails it keeps serving the last good copy, or the fallback if it never
// had one. Tools and Criteria never return an error.
type Cached struct {
	src      Provider
	fallback Provider
	ttl      time.Duration
	now      func() time.Time

	mu          sync.Mutex
	tools       []model.Tool
	criteria    []model.Criterion
	loaded      bool
	fromSource  bool
	attemptedAt time.Time
}

// NewCached wraps src. A ttl of 0 loads once and never refreshes. The
// embedded defaults are the fallback.
func NewCached(src Provider, ttl time.Duration) *Cached {
	return &Cached{
		src:      src,
		fallback: DefaultProvider(),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithFallback replaces the fallback provider.
func (c *Cached) WithFallback(p Provider) *Cached {
	c.fallback = p
	return c
}

func (c *Cached) Tools(ctx context.Context) ([]model.Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLocked(ctx)
	return cloneTools(c.tools), nil
}

func (c *Cached) Criteria(ctx context.Context) ([]model.Criterion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLocked(ctx)
	return model.CloneCriteria(c.criteria), nil
}

// FromSource reports whether the data being served came from the source
// rather than the fallback.
func (c *Cached) FromSource() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fromSource
}

// Refresh reloads from the source now. On error the previous data stays in
// place.
func (c *Cached) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attemptedAt = c.now()
	return c.refreshLocked(ctx)
}

func (c *Cached) ensureLocked(ctx context.Context) {
	if c.loaded && (c.ttl <= 0 || c.now().Sub(c.attemptedAt) < c.ttl) {
		return
	}
	c.attemptedAt = c.now()
	err := c.refreshLocked(ctx)
	if err == nil {
		return
	}
	if c.loaded {
		zap.L().Warn("catalog: refresh failed, serving last known good", zap.Error(err))
		return
	}

	zap.L().Warn("catalog: source unavailable, serving defaults", zap.Error(err))
	c.tools, _ = c.fallback.Tools(ctx)
	c.criteria, _ = c.fallback.Criteria(ctx)
	c.loaded = true
	c.fromSource = false
}

func (c *Cached) refreshLocked(ctx context.Context) error {
	tools, err := c.src.Tools(ctx)
	if err != nil {
		return eris.Wrap(err, "catalog: refresh tools")
	}
	criteria, err := c.src.Criteria(ctx)
	if err != nil {
		return eris.Wrap(err, "catalog: refresh criteria")
	}
	c.tools = Visible(tools)
	c.criteria = criteria
	c.loaded = true
	c.fromSource = true
	zap.L().Debug("catalog: refreshed",
		zap.Int("tools", len(c.tools)),
		zap.Int("criteria", len(c.criteria)),
	)
	return nil
}

// Source builds the configured source. pool is required for the postgres
// source and ignored otherwise.
func Source(cfg config.CatalogConfig, pool db.Pool) (Provider, error) {
	switch cfg.Source {
	case "", "defaults":
		return DefaultProvider(), nil
	case "file":
		if cfg.Path == "" {
			return nil, eris.New("catalog: file source needs a path")
		}
		return NewFileSource(cfg.Path), nil
	case "postgres":
		if pool == nil {
			return nil, eris.New("catalog: postgres source needs a pool")
		}
		return NewPostgresSource(pool), nil
	default:
		return nil, eris.Errorf("catalog: unknown source %q", cfg.Source)
	}
}

// New builds the configured source wrapped in Cached.
func New(cfg config.CatalogConfig, pool db.Pool) (*Cached, error) {
	src, err := Source(cfg, pool)
	if err != nil {
		return nil, err
	}
	return NewCached(src, time.Duration(cfg.RefreshSecs)*time.Second), nil
}
