// Package resolve maps a tool and a criterion to the tool's 1-5 capability
// rating, tolerating the several catalog shapes tools arrive in.
package resolve

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/model"
)

// Strategy looks up a rating one particular way. ok is false when the
// strategy has nothing to say about the criterion.
type Strategy struct {
	Name   string
	Lookup func(tool *model.Tool, c model.Criterion) (value float64, ok bool)
}

// Match describes how a rating was resolved.
type Match struct {
	Strategy    string  `json:"strategy"`
	Value       float64 `json:"value"`
	Found       bool    `json:"found"`
	Explanation string  `json:"explanation,omitempty"`
}

// Resolver tries its strategies in order and returns the first hit.
type Resolver struct {
	strategies []Strategy
}

// New returns a Resolver over the given strategies, tried in order.
func New(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Default returns the resolver used by the chart, report and email paths.
// The order is a compatibility contract between those consumers.
func Default() *Resolver {
	return New(
		ByCriteriaID(),
		ByCriteriaName(),
		ByCriteriaNameFold(),
		ByRatingsID(),
		ByRatingsAlias(DefaultAliases),
		ByRatingsKeyFold(),
	)
}

var defaultResolver = Default()

// Rating resolves tool's rating for c using the default strategy order.
func Rating(tool *model.Tool, c model.Criterion) int {
	return defaultResolver.Rating(tool, c)
}

// RatingByID resolves a rating when only the criterion id is known.
func RatingByID(tool *model.Tool, id string) int {
	return defaultResolver.Rating(tool, model.Criterion{ID: id, Name: id})
}

// Rating returns the resolved rating in [0, 5]. A miss returns 0 and is
// logged; lookups never panic out of this method.
func (r *Resolver) Rating(tool *model.Tool, c model.Criterion) int {
	m := r.Explain(tool, c)
	if !m.Found {
		toolID := ""
		if tool != nil {
			toolID = tool.ID
		}
		zap.L().Warn("resolve: no rating found",
			zap.String("tool_id", toolID),
			zap.String("criterion_id", c.ID),
			zap.String("criterion_name", c.Name),
		)
		return 0
	}
	return clamp(m.Value)
}

// Explain reports which strategy matched and the tool's stored justification
// for the criterion, if any.
func (r *Resolver) Explain(tool *model.Tool, c model.Criterion) (m Match) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Warn("resolve: lookup panicked",
				zap.String("criterion_id", c.ID),
				zap.Any("panic", rec),
			)
			m = Match{}
		}
	}()

	if tool == nil {
		return Match{}
	}
	for _, s := range r.strategies {
		if v, ok := s.Lookup(tool, c); ok {
			return Match{
				Strategy:    s.Name,
				Value:       v,
				Found:       true,
				Explanation: Explanation(tool, c),
			}
		}
	}
	return Match{Explanation: Explanation(tool, c)}
}

// Explanation returns the human-readable justification for tool's rating on
// c: the criteria entry's description first, then the legacy explanation map.
func Explanation(tool *model.Tool, c model.Criterion) string {
	if tool == nil {
		return ""
	}
	if cr, ok := findCriteria(tool, c); ok && cr.Description != "" {
		return cr.Description
	}
	if s := tool.RatingExplanations[c.ID]; s != "" {
		return s
	}
	return tool.RatingExplanations[c.Name]
}

func findCriteria(tool *model.Tool, c model.Criterion) (model.CriteriaRating, bool) {
	for _, cr := range tool.Criteria {
		if cr.ID == c.ID {
			return cr, true
		}
	}
	for _, cr := range tool.Criteria {
		if cr.Name == c.Name {
			return cr, true
		}
	}
	return model.CriteriaRating{}, false
}

func clamp(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= model.MaxRating {
		return model.MaxRating
	}
	return int(math.Round(v))
}

func numeric(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
