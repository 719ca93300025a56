package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var toolsCfg = UpsertConfig{
	Table:        "catalog.tools",
	Columns:      []string{"id", "name", "payload"},
	ConflictKeys: []string{"id"},
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// upsertOnce runs Upsert in its own transaction.
func upsertOnce(pool Pool, cfg UpsertConfig, rows [][]any) (UpsertResult, error) {
	var res UpsertResult
	err := WithTx(context.Background(), pool, func(tx pgx.Tx) error {
		var err error
		res, err = Upsert(context.Background(), tx, cfg, rows)
		return err
	})
	return res, err
}

func TestUpsert_NothingToDo(t *testing.T) {
	res, err := Upsert(context.Background(), nil, toolsCfg, nil)
	assert.NoError(t, err)
	assert.Zero(t, res)
}

func TestUpsertConfig_Check(t *testing.T) {
	rows := [][]any{{"asana", "Asana"}}

	_, err := Upsert(context.Background(), nil, UpsertConfig{Table: "catalog.tools", ConflictKeys: []string{"id"}}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")

	_, err = Upsert(context.Background(), nil, UpsertConfig{Table: "catalog.tools", Columns: []string{"id", "name"}}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestUpsert_Merges(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_catalog_tools" \(LIKE "catalog"."tools" INCLUDING DEFAULTS\)`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_catalog_tools"}, toolsCfg.Columns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "catalog"."tools" .* ON CONFLICT \("id"\) DO UPDATE SET "name" = EXCLUDED."name", "payload" = EXCLUDED."payload"$`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	res, err := upsertOnce(mock, toolsCfg, [][]any{{"asana", "Asana", "{}"}, {"jira", "Jira", "{}"}})
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{Upserted: 2}, res)
}

func TestUpsert_CopyFailsRollsBack(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_catalog_tools"}, toolsCfg.Columns).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := upsertOnce(mock, toolsCfg, [][]any{{"asana", "Asana", "{}"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy into staging table for catalog.tools")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_PruneAndTouch(t *testing.T) {
	mock := newMock(t)
	cfg := toolsCfg
	cfg.Prune = true
	cfg.TouchColumn = "updated_at"

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_catalog_tools"}, cfg.Columns).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "catalog"."tools" \("id", "name", "payload", "updated_at"\) SELECT "id", "name", "payload", now\(\) .* "updated_at" = now\(\)$`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM "catalog"."tools" t WHERE NOT EXISTS \(SELECT 1 FROM "_stage_catalog_tools" s WHERE s."id" = t."id"\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()
	mock.ExpectRollback()

	res, err := upsertOnce(mock, cfg, [][]any{{"asana", "Asana", "{}"}})
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{Upserted: 1, Pruned: 3}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_EmptyNeverPrunes(t *testing.T) {
	mock := newMock(t)
	cfg := toolsCfg
	cfg.Prune = true

	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectRollback()

	res, err := upsertOnce(mock, cfg, nil)
	require.NoError(t, err)
	assert.Zero(t, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_ErrorSkipsCommit(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := WithTx(context.Background(), mock, func(pgx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeSQL_KeyOnlyDoesNothing(t *testing.T) {
	cfg := UpsertConfig{Table: "links", Columns: []string{"a", "b"}, ConflictKeys: []string{"a", "b"}}
	got := cfg.mergeSQL(`"_stage_links"`, sanitizeTable(cfg.Table))
	assert.Equal(t, `INSERT INTO "links" ("a", "b") SELECT "a", "b" FROM "_stage_links" ON CONFLICT ("a", "b") DO NOTHING`, got)
}

func TestSanitizeTable(t *testing.T) {
	assert.Equal(t, `"links"`, sanitizeTable("links"))
	assert.Equal(t, `"catalog"."tools"`, sanitizeTable("catalog.tools"))
	assert.Equal(t, "_stage_catalog_tools", stagingTable("catalog.tools"))
}
