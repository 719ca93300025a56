package scorer

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ppm-finder/internal/model"
)

var (
	// ErrNoTools is returned by RankChecked when there is nothing to rank.
	ErrNoTools = eris.New("scorer: no tools to rank")
	// ErrNoCriteria is returned by RankChecked when no criteria are set.
	ErrNoCriteria = eris.New("scorer: no criteria to score against")
)

// Rank scores every tool with the canonical variant and returns them best
// first.
func Rank(tools []model.Tool, criteria []model.Criterion) []model.ScoredTool {
	return defaultEngine.Rank(tools, criteria)
}

// Rank scores every tool, sorts by raw score descending and assigns ranks
// 1..n. Ties keep their input order and still receive distinct ranks.
func (e *Engine) Rank(tools []model.Tool, criteria []model.Criterion) []model.ScoredTool {
	out := make([]model.ScoredTool, len(tools))
	for i := range tools {
		res := e.Score(&tools[i], criteria)
		out[i] = model.ScoredTool{
			Tool:       tools[i],
			RawScore:   res.RawScore,
			Percentage: res.Percentage,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RawScore > out[j].RawScore
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// RankChecked is Rank but reports an empty catalog or criteria set, the
// only conditions under which scoring is meaningless.
func (e *Engine) RankChecked(tools []model.Tool, criteria []model.Criterion) ([]model.ScoredTool, error) {
	if len(tools) == 0 {
		return nil, ErrNoTools
	}
	if len(criteria) == 0 {
		return nil, ErrNoCriteria
	}
	return e.Rank(tools, criteria), nil
}

// TopN returns the first n entries of a ranked list. n <= 0 or n beyond
// the list length returns the whole list.
func TopN(list []model.ScoredTool, n int) []model.ScoredTool {
	if n <= 0 || n >= len(list) {
		return list
	}
	return list[:n]
}
