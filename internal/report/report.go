// Package report assembles the comparison report from a ranking and renders
// it as Markdown, HTML and XLSX. Every renderer reads the same Report, so the
// chart, the exported document and the email show the same numbers.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/config"
	"github.com/sells-group/ppm-finder/internal/insight"
	"github.com/sells-group/ppm-finder/internal/model"
	"github.com/sells-group/ppm-finder/internal/scorer"
)

// Defaults for the report sections.
const (
	DefaultTopN         = 3
	DefaultHonorableMax = 3
)

// Entry is one of the top recommendations.
type Entry struct {
	model.ScoredTool
	MatchScore int                      `json:"matchScore"`
	Highlight  string                   `json:"highlight"`
	Breakdown  []scorer.CriterionPoints `json:"breakdown"`
}

// Mention is a tool just outside the top recommendations.
type Mention struct {
	ToolID     string `json:"toolId"`
	Name       string `json:"name"`
	Rank       int    `json:"rank"`
	Percentage int    `json:"percentage"`
	Summary    string `json:"summary"`
}

// Report is the assembled comparison.
type Report struct {
	ID                string             `json:"id"`
	GeneratedAt       time.Time          `json:"generatedAt"`
	Variant           scorer.Variant     `json:"variant"`
	Criteria          []model.Criterion  `json:"criteria"`
	Top               []Entry            `json:"top"`
	HonorableMentions []Mention          `json:"honorableMentions,omitempty"`
	Ranking           []model.ScoredTool `json:"ranking"`

	// Cells holds the comparison table text for Top × Criteria.
	Cells [][]string `json:"cells"`
}

// Builder builds reports with fixed section sizes.
type Builder struct {
	engine       *scorer.Engine
	composer     *insight.Composer
	topN         int
	honorableMax int
	now          func() time.Time
}

// NewBuilder creates a Builder. A nil engine uses the canonical variant and
// a nil composer uses the deterministic phrases only.
func NewBuilder(engine *scorer.Engine, composer *insight.Composer, topN, honorableMax int) *Builder {
	if engine == nil {
		engine = scorer.NewEngine(scorer.DefaultVariant, nil)
	}
	if composer == nil {
		composer = insight.NewComposer(nil, insight.Options{})
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if honorableMax < 0 {
		honorableMax = 0
	}
	return &Builder{
		engine:       engine,
		composer:     composer,
		topN:         topN,
		honorableMax: honorableMax,
		now:          time.Now,
	}
}

// NewBuilderFromConfig sizes the sections from the scoring settings.
func NewBuilderFromConfig(engine *scorer.Engine, composer *insight.Composer, cfg config.ScoringConfig) *Builder {
	return NewBuilder(engine, composer, cfg.ReportTopN, cfg.HonorableMax)
}

// Build ranks tools against criteria and returns the report with the top
// topN tools and up to DefaultHonorableMax honorable mentions.
func Build(ctx context.Context, engine *scorer.Engine, composer *insight.Composer, tools []model.Tool, criteria []model.Criterion, topN int) (*Report, error) {
	return NewBuilder(engine, composer, topN, DefaultHonorableMax).Build(ctx, tools, criteria)
}

// Build ranks tools against criteria and returns the report. The only
// errors are scorer.ErrNoTools and scorer.ErrNoCriteria.
func (b *Builder) Build(ctx context.Context, tools []model.Tool, criteria []model.Criterion) (*Report, error) {
	ranked, err := b.engine.RankChecked(tools, criteria)
	if err != nil {
		return nil, err
	}

	top := scorer.TopN(ranked, b.topN)
	topTools := make([]model.Tool, len(top))
	for i := range top {
		topTools[i] = top[i].Tool
	}

	highlights := b.composer.ComposeAll(ctx, topTools, criteria)
	cells := b.composer.ComposeCells(ctx, topTools, criteria)

	r := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: b.now().UTC(),
		Variant:     b.engine.Variant(),
		Criteria:    model.CloneCriteria(criteria),
		Top:         make([]Entry, len(top)),
		Ranking:     ranked,
		Cells:       cells,
	}
	for i, st := range top {
		res := b.engine.Score(&topTools[i], criteria)
		r.Top[i] = Entry{
			ScoredTool: st,
			MatchScore: res.MatchScore,
			Highlight:  highlights[i],
			Breakdown:  res.Breakdown,
		}
	}

	rest := ranked[len(top):]
	if len(rest) > b.honorableMax {
		rest = rest[:b.honorableMax]
	}
	for i := range rest {
		st := &rest[i]
		r.HonorableMentions = append(r.HonorableMentions, Mention{
			ToolID:     st.Tool.ID,
			Name:       st.Tool.Name,
			Rank:       st.Rank,
			Percentage: st.Percentage,
			Summary:    b.composer.HonorableMention(ctx, &st.Tool, criteria),
		})
	}

	zap.L().Debug("report: built",
		zap.String("report_id", r.ID),
		zap.Int("tools", len(ranked)),
		zap.Int("top", len(r.Top)),
		zap.Bool("generated_text", b.composer.HasGenerator()),
	)
	return r, nil
}
