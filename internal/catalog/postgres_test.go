package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ppm-finder/internal/model"
)

func newMockSource(t *testing.T) (*PostgresSource, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresSource(mock), mock
}

var toolColumns = []string{"id", "name", "ratings", "rating_explanations", "criteria", "tags", "methodologies", "functions", "submission_status"}

func TestPostgresSource_Migrate(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS catalog`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_Criteria(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery(`SELECT id, name, description, tooltip_description, user_rating, rating_low, rating_high\s+FROM catalog.criteria ORDER BY position`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "tooltip_description", "user_rating", "rating_low", "rating_high"}).
			AddRow("reporting", "Reporting & Analytics", "Dashboards", "Visibility", 4, "Basic", "Advanced").
			AddRow("security", "Security & Compliance", "", "", 3, "", ""))

	got, err := s.Criteria(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.Criterion{
		ID:                 "reporting",
		Name:               "Reporting & Analytics",
		Description:        "Dashboards",
		TooltipDescription: "Visibility",
		UserRating:         4,
		RatingDescriptions: model.RatingDescriptions{Low: "Basic", High: "Advanced"},
	}, got[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_CriteriaQueryError(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery(`FROM catalog.criteria`).WillReturnError(errors.New("connection reset"))

	_, err := s.Criteria(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog: query criteria")
}

func TestPostgresSource_Tools(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery(`FROM catalog.tools WHERE submission_status NOT IN \('draft', 'rejected'\)`).
		WillReturnRows(pgxmock.NewRows(toolColumns).
			AddRow("asana", "Asana",
				[]byte(`{}`), []byte(`{"reporting":"Portfolio dashboards"}`),
				[]byte(`[{"id":"reporting","name":"Reporting & Analytics","ranking":4}]`),
				[]string{"work management"}, []string{"Agile"}, []string{"Marketing"}, "approved").
			AddRow("jira", "Jira",
				[]byte(`{"Reporting":3}`), []byte(`{}`), []byte(`[]`),
				[]string{}, []string{}, []string{}, "submitted"))

	got, err := s.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Portfolio dashboards", got[0].RatingExplanations["reporting"])
	require.Len(t, got[0].Criteria, 1)
	assert.Equal(t, 4, *got[0].Criteria[0].Ranking)
	assert.Equal(t, []string{"Agile"}, got[0].Methodologies)
	assert.Equal(t, model.SubmissionStatusApproved, got[0].SubmissionStatus)

	assert.Equal(t, 3.0, got[1].Ratings["Reporting"])
	assert.Equal(t, model.SubmissionStatusSubmitted, got[1].SubmissionStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_ToolsBadJSON(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery(`FROM catalog.tools`).
		WillReturnRows(pgxmock.NewRows(toolColumns).
			AddRow("asana", "Asana", []byte(`{`), []byte(`{}`), []byte(`[]`),
				[]string{}, []string{}, []string{}, "approved"))

	_, err := s.Tools(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode ratings for tool asana")
}

func TestPostgresSource_Import(t *testing.T) {
	s, mock := newMockSource(t)

	c, err := Parse([]byte(minimalYAML), FormatYAML)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_catalog_criteria"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_catalog_criteria"}, criteriaUpsert.Columns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "catalog"."criteria"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_catalog_tools"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_catalog_tools"}, toolsUpsert.Columns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "catalog"."tools" .* "updated_at" = now\(\)`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	res, err := s.Import(context.Background(), c, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Criteria.Upserted)
	assert.Equal(t, int64(2), res.Tools.Upserted)
	assert.Zero(t, res.Tools.Pruned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_ImportPrune(t *testing.T) {
	s, mock := newMockSource(t)

	c, err := Parse([]byte(minimalYAML), FormatYAML)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_catalog_criteria"}, criteriaUpsert.Columns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "catalog"."criteria"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec(`DELETE FROM "catalog"."criteria"`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_catalog_tools"}, toolsUpsert.Columns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "catalog"."tools"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec(`DELETE FROM "catalog"."tools"`).WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCommit()
	mock.ExpectRollback()

	res, err := s.Import(context.Background(), c, true)
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Tools.Pruned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_ImportToolsFailRollsBackCriteria(t *testing.T) {
	s, mock := newMockSource(t)

	c, err := Parse([]byte(minimalYAML), FormatYAML)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_catalog_criteria"}, criteriaUpsert.Columns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "catalog"."criteria"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	res, err := s.Import(context.Background(), c, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog: import tools")
	assert.Zero(t, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToolRow(t *testing.T) {
	row, err := toolRow(model.Tool{ID: "bare", Name: "Bare"})
	require.NoError(t, err)
	require.Len(t, row, len(toolsUpsert.Columns))

	assert.Equal(t, []byte(`{}`), row[2])
	assert.Equal(t, []byte(`{}`), row[3])
	assert.Equal(t, []byte(`[]`), row[4])
	assert.Equal(t, []string{}, row[5])
	assert.Equal(t, "approved", row[8])
}
