// Package store provides the persisted key-value store that backs bumper
// session state and guided-ranking answers.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ppm-finder/internal/config"
)

// KV is an opaque string key-value store. Get reports ok=false for a
// missing key; Remove of a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Store is a KV with a lifecycle.
type Store interface {
	KV

	// RemovePrefix deletes every key starting with prefix and returns the
	// number removed.
	RemovePrefix(ctx context.Context, prefix string) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the Store selected by cfg and runs its migration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "", "memory":
		st = NewMemory()
	case "sqlite":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// Namespaced scopes every key of kv under prefix, so several sessions can
// share one backing store.
type Namespaced struct {
	kv     KV
	prefix string
}

// NewNamespaced returns a KV whose keys are stored as prefix + ":" + key.
func NewNamespaced(kv KV, prefix string) *Namespaced {
	return &Namespaced{kv: kv, prefix: strings.TrimSuffix(prefix, ":") + ":"}
}

// Prefix returns the key prefix including the trailing separator.
func (n *Namespaced) Prefix() string { return n.prefix }

func (n *Namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Remove(ctx context.Context, key string) error {
	return n.kv.Remove(ctx, n.prefix+key)
}
