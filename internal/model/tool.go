package model

// SubmissionStatus tracks where a catalog tool is in the admin review flow.
type SubmissionStatus string

const (
	SubmissionStatusDraft     SubmissionStatus = "draft"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusApproved  SubmissionStatus = "approved"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
)

// CriteriaRating is a tool's capability rating for one criterion.
type CriteriaRating struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Ranking     *int   `json:"ranking" yaml:"ranking"` // nil when the catalog row carries no numeric value
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Tool is a catalog item evaluated against the user's criteria.
//
// Criteria is the authoritative source of ratings. Ratings is the legacy
// map shape populated by older producers and is consulted only when
// Criteria has no entry for a criterion.
type Tool struct {
	ID                 string             `json:"id" yaml:"id"`
	Name               string             `json:"name" yaml:"name"`
	Ratings            map[string]float64 `json:"ratings,omitempty" yaml:"ratings,omitempty"`
	RatingExplanations map[string]string  `json:"ratingExplanations,omitempty" yaml:"rating_explanations,omitempty"`
	Criteria           []CriteriaRating   `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Tags               []string           `json:"tags,omitempty" yaml:"tags,omitempty"`
	Methodologies      []string           `json:"methodologies,omitempty" yaml:"methodologies,omitempty"`
	Functions          []string           `json:"functions,omitempty" yaml:"functions,omitempty"`
	SubmissionStatus   SubmissionStatus   `json:"submission_status,omitempty" yaml:"submission_status,omitempty"`
}

// Rank returns a pointer to v for building CriteriaRating literals.
func Rank(v int) *int { return &v }

// ScoredTool is a tool with its derived score. It is recomputed on every
// scoring pass and never persisted.
type ScoredTool struct {
	Tool       Tool    `json:"tool"`
	RawScore   float64 `json:"rawScore"`
	Percentage int     `json:"percentage"`
	Rank       int     `json:"rank"`
}
