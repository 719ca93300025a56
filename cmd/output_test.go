package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ppm-finder/internal/catalog"
	"github.com/sells-group/ppm-finder/internal/report"
	"github.com/sells-group/ppm-finder/internal/scorer"
)

func init() {
	color.NoColor = true
}

func defaultRows(t *testing.T) []scoreRow {
	t.Helper()
	c := catalog.Defaults()
	engine := scorer.NewEngine(scorer.VariantSnap, nil)
	ranked, err := engine.RankChecked(c.Tools, c.Criteria)
	require.NoError(t, err)
	return scoreRows(engine, ranked, c.Criteria)
}

func TestWriteScores_Table(t *testing.T) {
	rows := defaultRows(t)

	var buf bytes.Buffer
	require.NoError(t, writeScores(&buf, "table", rows))
	out := buf.String()

	assert.Contains(t, strings.ToUpper(out), "RANK")
	for _, r := range rows {
		assert.Contains(t, out, r.Name)
	}
	assert.Contains(t, out, "/10")
}

func TestWriteScores_JSON(t *testing.T) {
	rows := defaultRows(t)

	var buf bytes.Buffer
	require.NoError(t, writeScores(&buf, "json", rows))

	var got []scoreRow
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, rows, got)
}

func TestWriteScores_CSV(t *testing.T) {
	rows := defaultRows(t)

	var buf bytes.Buffer
	require.NoError(t, writeScores(&buf, "csv", rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(rows)+1)
	assert.Equal(t, []string{"rank", "id", "name", "percentage", "raw_score", "match_score"}, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, rows[0].ID, records[1][1])
}

func TestWriteScores_UnknownFormat(t *testing.T) {
	err := writeScores(&bytes.Buffer{}, "yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestMatchLabel(t *testing.T) {
	assert.Equal(t, "93%", matchLabel(93))
	assert.Equal(t, "50%", matchLabel(50))
	assert.Equal(t, "12%", matchLabel(12))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "html", formatFromPath("out/report.HTML"))
	assert.Equal(t, "xlsx", formatFromPath("comparison.xlsx"))
	assert.Equal(t, "markdown", formatFromPath("report.md"))
	assert.Equal(t, "markdown", formatFromPath(""))
}

func TestRenderReport(t *testing.T) {
	c := catalog.Defaults()
	rep, err := report.Build(context.Background(), nil, nil, c.Tools, c.Criteria, 3)
	require.NoError(t, err)

	var md bytes.Buffer
	require.NoError(t, renderReport(&md, "markdown", rep))
	assert.True(t, strings.HasPrefix(md.String(), "# "+report.Title))

	var html bytes.Buffer
	require.NoError(t, renderReport(&html, "html", rep))
	assert.Contains(t, html.String(), "<!DOCTYPE html>")

	var xl bytes.Buffer
	require.NoError(t, renderReport(&xl, "xlsx", rep))
	rows, err := report.ReadSheet(xl.Bytes(), "Ranking")
	require.NoError(t, err)
	assert.Len(t, rows, len(c.Tools)+1)

	assert.Error(t, renderReport(&bytes.Buffer{}, "pdf", rep))
}

func TestValidateCatalogFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
criteria:
  - id: reporting
    name: Reporting & Analytics
tools:
  - id: acme
    name: Acme PM
    criteria:
      - { id: reporting, name: Reporting & Analytics, ranking: 4 }
  - id: beta
    name: Beta PM
    submission_status: draft
    ratings:
      reporting: 2
`), 0o644))

	var out bytes.Buffer
	require.NoError(t, validateCatalogFile(&out, good))
	assert.Contains(t, out.String(), "ok (1 criteria, 2 tools, 1 visible)")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"criteria": [{"id": "x"}], "tools": []}`), 0o644))
	out.Reset()
	err := validateCatalogFile(&out, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema violation")
	assert.Contains(t, out.String(), "/criteria/0")

	crossRef := filepath.Join(dir, "xref.yaml")
	require.NoError(t, os.WriteFile(crossRef, []byte(`
criteria:
  - id: reporting
    name: Reporting
tools:
  - id: acme
    name: Acme PM
    criteria:
      - { id: budgeting, name: Budgeting, ranking: 4 }
`), 0o644))
	err = validateCatalogFile(&out, crossRef)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown criterion "budgeting"`)

	assert.Error(t, validateCatalogFile(&out, filepath.Join(dir, "missing.yaml")))
}
