package scorer

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/model"
	"github.com/sells-group/ppm-finder/internal/resolve"
)

// Scoring curve constants.
const (
	BaseReward     = 8.0
	MaxBonus       = 2.0
	PenaltyBase    = 7.0
	PenaltyPerStep = 2.0
	MaxRawScore    = 10.0
	SnapThreshold  = 9.8
)

// CriterionPoints is one criterion's contribution to a tool's score.
type CriterionPoints struct {
	CriterionID string  `json:"criterionId"`
	Name        string  `json:"name"`
	Weight      int     `json:"weight"`
	Rating      int     `json:"rating"`
	Points      float64 `json:"points"`
	Meets       bool    `json:"meets"`
}

// Result is the score of one tool against one criteria set.
type Result struct {
	RawScore   float64           `json:"rawScore"`
	Percentage int               `json:"percentage"`
	MatchScore int               `json:"matchScore"`
	Breakdown  []CriterionPoints `json:"breakdown,omitempty"`
}

// Engine scores and ranks tools. The zero value is not usable; construct
// with NewEngine. An Engine holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	variant  Variant
	resolver *resolve.Resolver
}

// NewEngine creates an Engine. A nil resolver uses resolve.Default().
func NewEngine(variant Variant, resolver *resolve.Resolver) *Engine {
	if variant == "" {
		variant = DefaultVariant
	}
	if resolver == nil {
		resolver = resolve.Default()
	}
	if variant != DefaultVariant {
		zap.L().Info("scorer: using non-canonical scoring variant",
			zap.String("variant", string(variant)),
			zap.String("canonical", string(DefaultVariant)),
		)
	}
	return &Engine{variant: variant, resolver: resolver}
}

var defaultEngine = &Engine{variant: DefaultVariant, resolver: resolve.Default()}

// Variant returns the engine's scoring variant.
func (e *Engine) Variant() Variant { return e.variant }

// Score scores tool with the canonical variant.
func Score(tool *model.Tool, criteria []model.Criterion) Result {
	return defaultEngine.Score(tool, criteria)
}

// Score computes tool's raw score (0-10), percentage (0-100) and custom
// rounded match score against criteria. An empty criteria set scores 0.
func (e *Engine) Score(tool *model.Tool, criteria []model.Criterion) Result {
	if len(criteria) == 0 {
		return Result{}
	}

	breakdown := make([]CriterionPoints, 0, len(criteria))
	var total float64
	meetsAll := true
	for _, c := range criteria {
		w := c.UserRating
		r := e.resolver.Rating(tool, c)
		p := Points(w, r)
		total += p
		if r < w {
			meetsAll = false
		}
		breakdown = append(breakdown, CriterionPoints{
			CriterionID: c.ID,
			Name:        c.Name,
			Weight:      w,
			Rating:      r,
			Points:      p,
			Meets:       r >= w,
		})
	}

	raw := total / float64(len(criteria))
	switch e.variant {
	case VariantMeetsAll:
		if meetsAll {
			raw = MaxRawScore
		}
	default:
		raw = snap(raw)
	}
	raw = math.Min(MaxRawScore, math.Max(0, raw))

	return Result{
		RawScore:   raw,
		Percentage: Percentage(raw),
		MatchScore: RoundMatchScore(raw),
		Breakdown:  breakdown,
	}
}

// Points is the asymmetric reward/penalty for a tool rated r against a
// criterion weighted w. Meeting the weight earns the base reward plus a
// capped bonus; falling short is penalized twice per missing step.
func Points(w, r int) float64 {
	if r >= w {
		return BaseReward + math.Min(float64(r-w), MaxBonus)
	}
	return math.Max(0, PenaltyBase-float64(w-r)*PenaltyPerStep)
}

// Percentage converts a raw 0-10 score to a rounded 0-100 percentage.
func Percentage(raw float64) int {
	return int(math.Round(raw / MaxRawScore * 100))
}

func snap(raw float64) float64 {
	if raw >= SnapThreshold {
		return MaxRawScore
	}
	return raw
}
