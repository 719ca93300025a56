package catalog

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ppm-finder/internal/db"
	"github.com/sells-group/ppm-finder/internal/model"
)

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS catalog;

CREATE TABLE IF NOT EXISTS catalog.criteria (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	tooltip_description TEXT NOT NULL DEFAULT '',
	user_rating         INT  NOT NULL DEFAULT 3,
	rating_low          TEXT NOT NULL DEFAULT '',
	rating_high         TEXT NOT NULL DEFAULT '',
	position            INT  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS catalog.tools (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	ratings             JSONB NOT NULL DEFAULT '{}',
	rating_explanations JSONB NOT NULL DEFAULT '{}',
	criteria            JSONB NOT NULL DEFAULT '[]',
	tags                TEXT[] NOT NULL DEFAULT '{}',
	methodologies       TEXT[] NOT NULL DEFAULT '{}',
	functions           TEXT[] NOT NULL DEFAULT '{}',
	submission_status   TEXT NOT NULL DEFAULT 'approved',
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

var (
	criteriaUpsert = db.UpsertConfig{
		Table:        "catalog.criteria",
		Columns:      []string{"id", "name", "description", "tooltip_description", "user_rating", "rating_low", "rating_high", "position"},
		ConflictKeys: []string{"id"},
	}
	toolsUpsert = db.UpsertConfig{
		Table:        "catalog.tools",
		Columns:      []string{"id", "name", "ratings", "rating_explanations", "criteria", "tags", "methodologies", "functions", "submission_status"},
		ConflictKeys: []string{"id"},
		TouchColumn:  "updated_at",
	}
)

// PostgresSource reads the catalog from the catalog schema.
type PostgresSource struct {
	pool db.Pool
}

// NewPostgresSource returns a source on pool.
func NewPostgresSource(pool db.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Migrate creates the catalog schema and tables.
func (s *PostgresSource) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "catalog: migrate")
}

// Criteria returns the criteria in display order.
func (s *PostgresSource) Criteria(ctx context.Context) ([]model.Criterion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, tooltip_description, user_rating, rating_low, rating_high
		 FROM catalog.criteria ORDER BY position, id`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: query criteria")
	}
	defer rows.Close()

	var out []model.Criterion
	for rows.Next() {
		var c model.Criterion
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.TooltipDescription, &c.UserRating,
			&c.RatingDescriptions.Low, &c.RatingDescriptions.High); err != nil {
			return nil, eris.Wrap(err, "catalog: scan criterion")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: iterate criteria")
	}
	return out, nil
}

// Tools returns every tool not drafted or rejected, ordered by name.
func (s *PostgresSource) Tools(ctx context.Context) ([]model.Tool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, ratings, rating_explanations, criteria, tags, methodologies, functions, submission_status
		 FROM catalog.tools WHERE submission_status NOT IN ('draft', 'rejected') ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: query tools")
	}
	defer rows.Close()

	var out []model.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: iterate tools")
	}
	return out, nil
}

func scanTool(row pgx.Row) (model.Tool, error) {
	var (
		t                                   model.Tool
		status                              string
		ratings, explanations, criteriaJSON []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &ratings, &explanations, &criteriaJSON,
		&t.Tags, &t.Methodologies, &t.Functions, &status); err != nil {
		return model.Tool{}, eris.Wrap(err, "catalog: scan tool")
	}
	t.SubmissionStatus = model.SubmissionStatus(status)

	for _, f := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"ratings", ratings, &t.Ratings},
		{"rating_explanations", explanations, &t.RatingExplanations},
		{"criteria", criteriaJSON, &t.Criteria},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return model.Tool{}, eris.Wrapf(err, "catalog: decode %s for tool %s", f.name, t.ID)
		}
	}
	return t, nil
}

// ImportResult counts the rows an Import wrote and removed.
type ImportResult struct {
	Criteria db.UpsertResult
	Tools    db.UpsertResult
}

// Import upserts every criterion and tool in c in one transaction. With
// prune, rows absent from c are deleted so the tables mirror c exactly; an
// empty side of c never prunes its table.
func (s *PostgresSource) Import(ctx context.Context, c *Catalog, prune bool) (ImportResult, error) {
	var res ImportResult

	criteriaRows := make([][]any, 0, len(c.Criteria))
	for i, cr := range c.Criteria {
		criteriaRows = append(criteriaRows, []any{
			cr.ID, cr.Name, cr.Description, cr.TooltipDescription, cr.UserRating,
			cr.RatingDescriptions.Low, cr.RatingDescriptions.High, i,
		})
	}
	toolRows := make([][]any, 0, len(c.Tools))
	for _, t := range c.Tools {
		row, err := toolRow(t)
		if err != nil {
			return res, err
		}
		toolRows = append(toolRows, row)
	}

	criteriaCfg, toolsCfg := criteriaUpsert, toolsUpsert
	criteriaCfg.Prune, toolsCfg.Prune = prune, prune

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		if res.Criteria, err = db.Upsert(ctx, tx, criteriaCfg, criteriaRows); err != nil {
			return eris.Wrap(err, "catalog: import criteria")
		}
		if res.Tools, err = db.Upsert(ctx, tx, toolsCfg, toolRows); err != nil {
			return eris.Wrap(err, "catalog: import tools")
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

func toolRow(t model.Tool) ([]any, error) {
	ratings, err := json.Marshal(nonNilMap(t.Ratings))
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: encode ratings for %s", t.ID)
	}
	explanations, err := json.Marshal(nonNilMap(t.RatingExplanations))
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: encode explanations for %s", t.ID)
	}
	criteria := t.Criteria
	if criteria == nil {
		criteria = []model.CriteriaRating{}
	}
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: encode criteria for %s", t.ID)
	}
	status := t.SubmissionStatus
	if status == "" {
		status = model.SubmissionStatusApproved
	}
	return []any{
		t.ID, t.Name, ratings, explanations, criteriaJSON,
		nonNilSlice(t.Tags), nonNilSlice(t.Methodologies), nonNilSlice(t.Functions), string(status),
	}, nil
}

func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
