// Package insight derives short qualitative highlights for scored tools,
// using an optional text generator and a deterministic fallback.
package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ppm-finder/internal/config"
	"github.com/sells-group/ppm-finder/internal/model"
	"github.com/sells-group/ppm-finder/internal/resolve"
)

// StrongRating is the minimum tool rating for a criterion to count as a
// strength.
const StrongRating = 4

// Default text budgets in runes.
const (
	DefaultCellBudget     = 80
	DefaultHeadlineBudget = 160
)

// Strength is a criterion the tool rates highly on.
type Strength struct {
	Criterion   model.Criterion
	Rating      int
	Importance  int
	Explanation string
}

// StrongCriteria returns up to limit criteria with a tool rating of at least
// StrongRating, ordered by weight × rating descending. Ties keep criteria
// order. limit <= 0 returns all.
func StrongCriteria(tool *model.Tool, criteria []model.Criterion, limit int) []Strength {
	var out []Strength
	for _, c := range criteria {
		r := resolve.Rating(tool, c)
		if r < StrongRating {
			continue
		}
		out = append(out, Strength{
			Criterion:   c,
			Rating:      r,
			Importance:  c.UserRating * r,
			Explanation: resolve.Explanation(tool, c),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Options tunes a Composer.
type Options struct {
	CellBudget     int
	HeadlineBudget int
	Concurrency    int
}

// OptionsFrom builds Options from the insight settings.
func OptionsFrom(cfg config.InsightConfig) Options {
	return Options{
		CellBudget:     cfg.CellBudget,
		HeadlineBudget: cfg.HeadlineBudget,
		Concurrency:    cfg.Concurrency,
	}
}

// Composer produces highlights, honorable mentions and table-cell insights.
// Every method returns non-empty text and never fails: generator problems
// fall back to SelectDeterministic.
type Composer struct {
	gen  Generator
	opts Options
}

// NewComposer creates a Composer. gen may be nil.
func NewComposer(gen Generator, opts Options) *Composer {
	if opts.CellBudget <= 0 {
		opts.CellBudget = DefaultCellBudget
	}
	if opts.HeadlineBudget <= 0 {
		opts.HeadlineBudget = DefaultHeadlineBudget
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	return &Composer{gen: gen, opts: opts}
}

// HasGenerator reports whether a text generator is configured.
func (c *Composer) HasGenerator() bool { return c.gen != nil }

const systemPrompt = "You write short, factual highlights for a project portfolio management tool comparison. " +
	"Reply with a single phrase, no quotes, no trailing period."

// ComposeHighlight returns the headline highlight for tool.
func (c *Composer) ComposeHighlight(ctx context.Context, tool *model.Tool, criteria []model.Criterion) string {
	strong := StrongCriteria(tool, criteria, 2)
	if len(strong) == 0 {
		return cannedHighlight(tool.Name)
	}

	prompt := fmt.Sprintf("Tool: %s\nTop priorities:\n%s\nWrite one highlight of at most %d characters.",
		tool.Name, describe(strong), c.opts.HeadlineBudget)
	if text, ok := c.generate(ctx, "highlight", prompt, c.opts.HeadlineBudget); ok {
		return text
	}
	return SelectDeterministic(tool.Name, highlightCandidates(strong))
}

// HonorableMention returns the short description for a tool just outside
// the top results.
func (c *Composer) HonorableMention(ctx context.Context, tool *model.Tool, criteria []model.Criterion) string {
	strong := StrongCriteria(tool, criteria, 1)
	if len(strong) > 0 {
		prompt := fmt.Sprintf("Tool: %s\nStrongest area:\n%s\nWrite one honorable-mention line of at most %d characters.",
			tool.Name, describe(strong), c.opts.HeadlineBudget)
		if text, ok := c.generate(ctx, "honorable", prompt, c.opts.HeadlineBudget); ok {
			return text
		}
	}
	return SelectDeterministic(tool.Name, honorableCandidates(strong))
}

// CellInsight returns the comparison-table text for one tool and criterion.
func (c *Composer) CellInsight(ctx context.Context, tool *model.Tool, criterion model.Criterion) string {
	rating := resolve.Rating(tool, criterion)
	if rating > 0 {
		prompt := fmt.Sprintf("Tool: %s\nCriterion: %s (rated %d/5)\nNotes: %s\nWrite a table cell of at most %d characters.",
			tool.Name, criterion.Name, rating, resolve.Explanation(tool, criterion), c.opts.CellBudget)
		if text, ok := c.generate(ctx, "cell", prompt, c.opts.CellBudget); ok {
			return text
		}
	}
	return SelectDeterministic(tool.Name+":"+criterion.ID, cellCandidates(rating, criterion.Name))
}

// ComposeAll returns highlights for tools in input order, composing up to
// Options.Concurrency at a time.
func (c *Composer) ComposeAll(ctx context.Context, tools []model.Tool, criteria []model.Criterion) []string {
	out := make([]string, len(tools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i := range tools {
		g.Go(func() error {
			out[i] = c.ComposeHighlight(gctx, &tools[i], criteria)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ComposeCells returns a tools × criteria grid of cell insights.
func (c *Composer) ComposeCells(ctx context.Context, tools []model.Tool, criteria []model.Criterion) [][]string {
	out := make([][]string, len(tools))
	for i := range out {
		out[i] = make([]string, len(criteria))
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i := range tools {
		for j := range criteria {
			g.Go(func() error {
				out[i][j] = c.CellInsight(gctx, &tools[i], criteria[j])
				return nil
			})
		}
	}
	_ = g.Wait()
	return out
}

// generate calls the generator and validates its answer. ok is false for a
// nil generator, any error, an empty answer or one over budget.
func (c *Composer) generate(ctx context.Context, kind, prompt string, budget int) (text string, ok bool) {
	if c.gen == nil {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("insight: generator panic", zap.String("kind", kind), zap.Any("panic", r))
			text, ok = "", false
		}
	}()

	raw, err := c.gen.Generate(ctx, Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Kind:         kind,
	})
	if err != nil {
		zap.L().Warn("insight: generator unavailable, using fallback", zap.String("kind", kind), zap.Error(err))
		return "", false
	}
	text, err = Clean(raw, budget)
	if err != nil {
		zap.L().Debug("insight: rejected generated text", zap.String("kind", kind), zap.Error(err))
		return "", false
	}
	return text, true
}

func describe(strong []Strength) string {
	var b strings.Builder
	for _, s := range strong {
		fmt.Fprintf(&b, "- %s (weight %d, rating %d)", s.Criterion.Name, s.Criterion.UserRating, s.Rating)
		if s.Explanation != "" {
			fmt.Fprintf(&b, ": %s", s.Explanation)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
