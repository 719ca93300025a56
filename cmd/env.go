package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/catalog"
	"github.com/sells-group/ppm-finder/internal/config"
	"github.com/sells-group/ppm-finder/internal/db"
	"github.com/sells-group/ppm-finder/internal/insight"
	"github.com/sells-group/ppm-finder/internal/report"
	"github.com/sells-group/ppm-finder/internal/scorer"
)

// appEnv holds the collaborators shared by the commands.
type appEnv struct {
	Pool     *pgxpool.Pool
	Catalog  *catalog.Cached
	Engine   *scorer.Engine
	Composer *insight.Composer
	Builder  *report.Builder
}

// initEnv wires the catalog, scoring engine and insight composer from cfg.
func initEnv(ctx context.Context, c *config.Config) (*appEnv, error) {
	env := &appEnv{}

	var pool db.Pool
	if c.Catalog.Source == "postgres" {
		p, err := db.Connect(ctx, c.CatalogDatabaseURL(), nil)
		if err != nil {
			return nil, err
		}
		env.Pool = p
		pool = p
	}

	cat, err := catalog.New(c.Catalog, pool)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Catalog = cat

	env.Engine = scorer.EngineFromConfig(c.Scoring)
	env.Composer = insight.NewComposer(insight.NewGenerator(c), insight.OptionsFrom(c.Insight))
	env.Builder = report.NewBuilderFromConfig(env.Engine, env.Composer, c.Scoring)

	zap.L().Debug("env: initialized",
		zap.String("catalog_source", c.Catalog.Source),
		zap.String("variant", string(env.Engine.Variant())),
		zap.Bool("generated_text", env.Composer.HasGenerator()),
	)
	return env, nil
}

// Close releases the database pool, if any.
func (e *appEnv) Close() {
	if e.Pool != nil {
		e.Pool.Close()
	}
}
