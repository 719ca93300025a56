// Package catalog supplies the tool catalog and criteria set. Sources are
// the embedded defaults, a YAML/JSON file validated against a JSON Schema,
// or Postgres. Cached wraps any source with a last-known-good fallback so
// scoring keeps working when the source is down.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ppm-finder/internal/model"
)

// Provider supplies tools and criteria.
type Provider interface {
	Tools(ctx context.Context) ([]model.Tool, error)
	Criteria(ctx context.Context) ([]model.Criterion, error)
}

// Catalog is a complete dataset.
type Catalog struct {
	Criteria []model.Criterion `json:"criteria" yaml:"criteria"`
	Tools    []model.Tool      `json:"tools" yaml:"tools"`
}

// Static serves a fixed Catalog.
type Static struct {
	c *Catalog
}

// NewStatic returns a Provider over c.
func NewStatic(c *Catalog) *Static {
	return &Static{c: c}
}

func (s *Static) Tools(context.Context) ([]model.Tool, error) {
	return cloneTools(s.c.Tools), nil
}

func (s *Static) Criteria(context.Context) ([]model.Criterion, error) {
	return model.CloneCriteria(s.c.Criteria), nil
}

// Validate checks the invariants the schema cannot express: unique IDs and
// rankings that reference known criteria.
func (c *Catalog) Validate() error {
	var errs []string

	if len(c.Criteria) == 0 {
		errs = append(errs, "at least one criterion is required")
	}
	criteria := make(map[string]bool, len(c.Criteria))
	for i, cr := range c.Criteria {
		switch {
		case cr.ID == "":
			errs = append(errs, fmt.Sprintf("criteria[%d]: id is required", i))
		case criteria[cr.ID]:
			errs = append(errs, fmt.Sprintf("criteria[%d]: duplicate id %q", i, cr.ID))
		}
		criteria[cr.ID] = true
		if cr.UserRating != 0 && (cr.UserRating < model.MinRating || cr.UserRating > model.MaxRating) {
			errs = append(errs, fmt.Sprintf("criteria[%d]: user rating %d out of range", i, cr.UserRating))
		}
	}

	tools := make(map[string]bool, len(c.Tools))
	for i, t := range c.Tools {
		switch {
		case t.ID == "":
			errs = append(errs, fmt.Sprintf("tools[%d]: id is required", i))
		case tools[t.ID]:
			errs = append(errs, fmt.Sprintf("tools[%d]: duplicate id %q", i, t.ID))
		}
		tools[t.ID] = true
		for j, r := range t.Criteria {
			if !criteria[r.ID] {
				errs = append(errs, fmt.Sprintf("tools[%d].criteria[%d]: unknown criterion %q", i, j, r.ID))
			}
			if r.Ranking != nil && (*r.Ranking < model.MinRating || *r.Ranking > model.MaxRating) {
				errs = append(errs, fmt.Sprintf("tools[%d].criteria[%d]: ranking %d out of range", i, j, *r.Ranking))
			}
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("catalog: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Normalize fills defaults: criteria without a user rating get the
// midpoint, and tools without a status are approved.
func (c *Catalog) Normalize() {
	for i := range c.Criteria {
		if c.Criteria[i].UserRating == 0 {
			c.Criteria[i].UserRating = 3
		}
	}
	for i := range c.Tools {
		if c.Tools[i].SubmissionStatus == "" {
			c.Tools[i].SubmissionStatus = model.SubmissionStatusApproved
		}
	}
}

// Visible returns the tools shown to users: everything not drafted or
// rejected.
func Visible(tools []model.Tool) []model.Tool {
	out := make([]model.Tool, 0, len(tools))
	for _, t := range tools {
		switch t.SubmissionStatus {
		case model.SubmissionStatusDraft, model.SubmissionStatusRejected:
			continue
		}
		out = append(out, t)
	}
	return out
}

// Select returns the tools whose IDs are in ids, in ids order. Unknown IDs
// are skipped. An empty ids returns all tools.
func Select(tools []model.Tool, ids []string) []model.Tool {
	if len(ids) == 0 {
		return tools
	}
	byID := make(map[string]model.Tool, len(tools))
	for _, t := range tools {
		byID[t.ID] = t
	}
	out := make([]model.Tool, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func cloneTools(tools []model.Tool) []model.Tool {
	if tools == nil {
		return nil
	}
	out := make([]model.Tool, len(tools))
	copy(out, tools)
	return out
}
