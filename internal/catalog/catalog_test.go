package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ppm-finder/internal/model"
	"github.com/sells-group/ppm-finder/internal/resolve"
)

const minimalYAML = `
criteria:
  - id: reporting
    name: Reporting & Analytics
    user_rating: 4
  - id: security
    name: Security & Compliance
tools:
  - id: acme
    name: Acme PM
    criteria:
      - { id: reporting, name: Reporting & Analytics, ranking: 5 }
  - id: legacy
    name: Legacy PM
    ratings:
      Security: 3
`

const minimalJSON = `{
  "criteria": [
    {"id": "reporting", "name": "Reporting & Analytics", "userRating": 2, "ratingDescriptions": {"low": "Lists", "high": "BI"}}
  ],
  "tools": [
    {"id": "acme", "name": "Acme PM", "criteria": [{"id": "reporting", "name": "Reporting & Analytics", "ranking": 4}], "submission_status": "draft"}
  ]
}`

func TestDefaults(t *testing.T) {
	c := Defaults()
	require.Len(t, c.Criteria, 7)
	require.Len(t, c.Tools, 10)
	require.NoError(t, c.Validate())

	for _, cr := range c.Criteria {
		assert.Equal(t, 3, cr.UserRating, cr.ID)
	}

	// Every default tool resolves a rating for every default criterion,
	// whichever shape it was authored in.
	for i := range c.Tools {
		for _, cr := range c.Criteria {
			assert.NotZero(t, resolve.Rating(&c.Tools[i], cr), "%s/%s", c.Tools[i].ID, cr.ID)
		}
	}
}

func TestDefaultProvider_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	p := DefaultProvider()

	criteria, err := p.Criteria(ctx)
	require.NoError(t, err)
	criteria[0].UserRating = 5

	again, err := p.Criteria(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, again[0].UserRating)

	tools, err := p.Tools(ctx)
	require.NoError(t, err)
	tools[0].Name = "changed"
	assert.Equal(t, "Asana", Defaults().Tools[0].Name)
}

func TestParse_YAML(t *testing.T) {
	c, err := Parse([]byte(minimalYAML), FormatYAML)
	require.NoError(t, err)

	require.Len(t, c.Criteria, 2)
	assert.Equal(t, 4, c.Criteria[0].UserRating)
	assert.Equal(t, 3, c.Criteria[1].UserRating, "missing user rating defaults to the midpoint")
	assert.Equal(t, model.SubmissionStatusApproved, c.Tools[0].SubmissionStatus)
	assert.Equal(t, 5, *c.Tools[0].Criteria[0].Ranking)
	assert.Equal(t, 3.0, c.Tools[1].Ratings["Security"])
}

func TestParse_JSON(t *testing.T) {
	c, err := Parse([]byte(minimalJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Criteria[0].UserRating)
	assert.Equal(t, "BI", c.Criteria[0].RatingDescriptions.High)
	assert.Equal(t, model.SubmissionStatusDraft, c.Tools[0].SubmissionStatus)
	assert.Empty(t, Visible(c.Tools))
}

func TestParse_SchemaViolations(t *testing.T) {
	doc := `
criteria:
  - id: reporting
tools:
  - id: acme
    name: Acme PM
    criteria:
      - { id: reporting, ranking: 7 }
`
	_, err := Parse([]byte(doc), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/criteria/0")
	assert.Contains(t, err.Error(), "/tools/0/criteria/0/ranking")
}

func TestValidateDocument(t *testing.T) {
	problems, err := ValidateDocument([]byte(`{"tools": []}`), FormatJSON)
	require.NoError(t, err)
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0], "criteria")

	problems, err = ValidateDocument([]byte(minimalYAML), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, problems)

	_, err = ValidateDocument([]byte("{"), FormatJSON)
	assert.Error(t, err)

	_, err = ValidateDocument([]byte("a: b"), Format("toml"))
	assert.Error(t, err)
}

func TestParse_CrossReferenceRules(t *testing.T) {
	doc := `
criteria:
  - { id: reporting, name: Reporting }
  - { id: reporting, name: Reporting again }
tools:
  - id: acme
    name: Acme
    criteria:
      - { id: budgeting, ranking: 3 }
  - id: acme
    name: Acme clone
`
	_, err := Parse([]byte(doc), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `criteria[1]: duplicate id "reporting"`)
	assert.Contains(t, err.Error(), `unknown criterion "budgeting"`)
	assert.Contains(t, err.Error(), `tools[1]: duplicate id "acme"`)
}

func TestLoadFileAndFileSource(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "catalog.yaml")
	jsonPath := filepath.Join(dir, "catalog.JSON")
	require.NoError(t, os.WriteFile(yamlPath, []byte(minimalYAML), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(minimalJSON), 0o644))

	assert.Equal(t, FormatYAML, FormatFor(yamlPath))
	assert.Equal(t, FormatJSON, FormatFor(jsonPath))

	c, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, c.Tools, 1)

	src := NewFileSource(yamlPath)
	tools, err := src.Tools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 2)
	criteria, err := src.Criteria(context.Background())
	require.NoError(t, err)
	assert.Len(t, criteria, 2)

	_, err = NewFileSource(filepath.Join(dir, "missing.yaml")).Tools(context.Background())
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	tools := Defaults().Tools
	got := Select(tools, []string{"jira", "nope", "asana"})
	require.Len(t, got, 2)
	assert.Equal(t, "jira", got[0].ID)
	assert.Equal(t, "asana", got[1].ID)

	assert.Len(t, Select(tools, nil), len(tools))
}

func TestVisible(t *testing.T) {
	tools := []model.Tool{
		{ID: "a", SubmissionStatus: model.SubmissionStatusApproved},
		{ID: "b", SubmissionStatus: model.SubmissionStatusDraft},
		{ID: "c", SubmissionStatus: model.SubmissionStatusSubmitted},
		{ID: "d", SubmissionStatus: model.SubmissionStatusRejected},
		{ID: "e"},
	}
	var ids []string
	for _, tool := range Visible(tools) {
		ids = append(ids, tool.ID)
	}
	assert.Equal(t, []string{"a", "c", "e"}, ids)
}

func TestSchemaJSON(t *testing.T) {
	assert.Contains(t, string(SchemaJSON()), `"$defs"`)
}
