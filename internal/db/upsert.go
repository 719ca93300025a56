package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Tx is the part of pgx.Tx the upsert helpers need.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// UpsertConfig describes how rows are merged into a table.
type UpsertConfig struct {
	Table        string   // schema-qualified target, e.g. "catalog.tools"
	Columns      []string // columns present in every row, in row order
	ConflictKeys []string // the table's unique key
	UpdateCols   []string // columns overwritten on conflict; nil means every non-key column

	// TouchColumn, when set, is assigned now() on every insert or update.
	TouchColumn string

	// Prune deletes target rows whose key is absent from the upserted
	// rows, making the upsert a full replacement of the table contents.
	Prune bool
}

// UpsertResult counts the rows written and pruned.
type UpsertResult struct {
	Upserted int64
	Pruned   int64
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func WithTx(ctx context.Context, pool Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "db: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "db: commit tx")
	}
	return nil
}

// Upsert stages rows in a temp table with COPY, merges them into
// cfg.Table with INSERT ... ON CONFLICT and, with cfg.Prune, deletes the
// rows that were not staged. An empty rows is a no-op even with Prune, so
// an empty import never wipes a table.
func Upsert(ctx context.Context, tx Tx, cfg UpsertConfig, rows [][]any) (UpsertResult, error) {
	var res UpsertResult
	if len(rows) == 0 {
		return res, nil
	}
	if err := cfg.check(); err != nil {
		return res, err
	}

	staging := pgx.Identifier{stagingTable(cfg.Table)}
	target := sanitizeTable(cfg.Table)

	createSQL := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP", staging.Sanitize(), target)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return res, eris.Wrapf(err, "db: upsert: create staging table for %s", cfg.Table)
	}
	if _, err := tx.CopyFrom(ctx, staging, cfg.Columns, pgx.CopyFromRows(rows)); err != nil {
		return res, eris.Wrapf(err, "db: upsert: copy into staging table for %s", cfg.Table)
	}

	tag, err := tx.Exec(ctx, cfg.mergeSQL(staging.Sanitize(), target))
	if err != nil {
		return res, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
	}
	res.Upserted = tag.RowsAffected()

	if cfg.Prune {
		tag, err := tx.Exec(ctx, cfg.pruneSQL(staging.Sanitize(), target))
		if err != nil {
			return res, eris.Wrapf(err, "db: upsert: prune %s", cfg.Table)
		}
		res.Pruned = tag.RowsAffected()
	}
	return res, nil
}

func (cfg UpsertConfig) check() error {
	if len(cfg.Columns) == 0 {
		return eris.Errorf("db: upsert %s: no columns specified", cfg.Table)
	}
	if len(cfg.ConflictKeys) == 0 {
		return eris.Errorf("db: upsert %s: no conflict keys specified", cfg.Table)
	}
	return nil
}

func (cfg UpsertConfig) updateCols() []string {
	if cfg.UpdateCols != nil {
		return cfg.UpdateCols
	}
	keys := make(map[string]bool, len(cfg.ConflictKeys))
	for _, k := range cfg.ConflictKeys {
		keys[k] = true
	}
	var cols []string
	for _, c := range cfg.Columns {
		if !keys[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

func (cfg UpsertConfig) mergeSQL(staging, target string) string {
	cols := quoteAndJoin(cfg.Columns)
	selectList := cols
	insertCols := cols
	if cfg.TouchColumn != "" {
		insertCols += ", " + pgx.Identifier{cfg.TouchColumn}.Sanitize()
		selectList += ", now()"
	}

	set := make([]string, 0, len(cfg.Columns)+1)
	for _, c := range cfg.updateCols() {
		col := pgx.Identifier{c}.Sanitize()
		set = append(set, col+" = EXCLUDED."+col)
	}
	if cfg.TouchColumn != "" {
		set = append(set, pgx.Identifier{cfg.TouchColumn}.Sanitize()+" = now()")
	}

	action := "DO NOTHING"
	if len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		target, insertCols, selectList, staging, quoteAndJoin(cfg.ConflictKeys), action)
}

func (cfg UpsertConfig) pruneSQL(staging, target string) string {
	match := make([]string, len(cfg.ConflictKeys))
	for i, k := range cfg.ConflictKeys {
		col := pgx.Identifier{k}.Sanitize()
		match[i] = "s." + col + " = t." + col
	}
	return fmt.Sprintf("DELETE FROM %s t WHERE NOT EXISTS (SELECT 1 FROM %s s WHERE %s)",
		target, staging, strings.Join(match, " AND "))
}

// stagingTable names the temp table for a target, e.g. catalog.tools ->
// _stage_catalog_tools.
func stagingTable(table string) string {
	return "_stage_" + strings.ReplaceAll(table, ".", "_")
}

// sanitizeTable quotes a table name, keeping an optional schema prefix.
func sanitizeTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
