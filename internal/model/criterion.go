package model

// Rating bounds shared by user weights and tool capability ratings.
const (
	MinRating = 1
	MaxRating = 5
)

// RatingDescriptions label the ends of a criterion's rating scale.
type RatingDescriptions struct {
	Low  string `json:"low" yaml:"low"`
	High string `json:"high" yaml:"high"`
}

// Criterion is an evaluation dimension with a user-assigned importance.
type Criterion struct {
	ID                 string             `json:"id" yaml:"id"`
	Name               string             `json:"name" yaml:"name"`
	Description        string             `json:"description,omitempty" yaml:"description,omitempty"`
	TooltipDescription string             `json:"tooltipDescription,omitempty" yaml:"tooltip_description,omitempty"`
	UserRating         int                `json:"userRating" yaml:"user_rating"`
	RatingDescriptions RatingDescriptions `json:"ratingDescriptions" yaml:"rating_descriptions"`
}

// ClampRating bounds v to [MinRating, MaxRating].
func ClampRating(v int) int {
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}

// CloneCriteria returns a shallow copy of criteria so callers can adjust
// weights without mutating a shared catalog slice.
func CloneCriteria(criteria []Criterion) []Criterion {
	if criteria == nil {
		return nil
	}
	out := make([]Criterion, len(criteria))
	copy(out, criteria)
	return out
}
