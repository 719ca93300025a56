package resolve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/ppm-finder/internal/model"
)

var easeOfUse = model.Criterion{ID: "easeOfUse", Name: "Ease of Use", UserRating: 3}

func TestRating_CriteriaBeatsRatingsMap(t *testing.T) {
	tool := &model.Tool{
		ID: "t1",
		Criteria: []model.CriteriaRating{
			{ID: "easeOfUse", Name: "Ease of Use", Ranking: model.Rank(2)},
		},
		Ratings: map[string]float64{"easeOfUse": 5, "Ease of Use": 5},
	}
	assert.Equal(t, 2, Rating(tool, easeOfUse))
}

func TestRating_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		tool     model.Tool
		want     int
		strategy string
	}{
		{
			name: "criteria id",
			tool: model.Tool{Criteria: []model.CriteriaRating{
				{ID: "other", Name: "Ease of Use", Ranking: model.Rank(1)},
				{ID: "easeOfUse", Name: "Something", Ranking: model.Rank(4)},
			}},
			want: 4, strategy: "criteria_id",
		},
		{
			name: "id entry without ranking falls to exact name",
			tool: model.Tool{Criteria: []model.CriteriaRating{
				{ID: "easeOfUse", Name: "x"},
				{ID: "legacy", Name: "Ease of Use", Ranking: model.Rank(3)},
			}},
			want: 3, strategy: "criteria_name",
		},
		{
			name: "case-insensitive name",
			tool: model.Tool{Criteria: []model.CriteriaRating{
				{ID: "legacy", Name: "EASE OF USE", Ranking: model.Rank(5)},
			}},
			want: 5, strategy: "criteria_name_fold",
		},
		{
			name: "ratings by id",
			tool: model.Tool{Ratings: map[string]float64{"easeOfUse": 4}},
			want: 4, strategy: "ratings_id",
		},
		{
			name: "ratings alias",
			tool: model.Tool{Ratings: map[string]float64{"ease_of_use": 2}},
			want: 2, strategy: "ratings_alias",
		},
		{
			name: "ratings key fold",
			tool: model.Tool{Ratings: map[string]float64{"EASEOFUSE": 1}},
			want: 1, strategy: "ratings_key_fold",
		},
	}

	r := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.Explain(&tt.tool, easeOfUse)
			assert.True(t, m.Found)
			assert.Equal(t, tt.strategy, m.Strategy)
			assert.Equal(t, tt.want, r.Rating(&tt.tool, easeOfUse))
		})
	}
}

func TestRating_MissReturnsZero(t *testing.T) {
	tool := &model.Tool{ID: "t", Ratings: map[string]float64{"unrelated": 5}}
	assert.Equal(t, 0, Rating(tool, easeOfUse))
	assert.Equal(t, 0, Rating(nil, easeOfUse))
}

func TestRating_NaNIsNotNumeric(t *testing.T) {
	tool := &model.Tool{Ratings: map[string]float64{"easeOfUse": math.NaN(), "Ease of Use": 3}}
	assert.Equal(t, 3, Rating(tool, easeOfUse))
}

func TestRating_Clamps(t *testing.T) {
	tool := &model.Tool{Ratings: map[string]float64{"easeOfUse": 9}}
	assert.Equal(t, 5, Rating(tool, easeOfUse))

	tool = &model.Tool{Ratings: map[string]float64{"easeOfUse": -2}}
	assert.Equal(t, 0, Rating(tool, easeOfUse))
}

func TestRating_FractionalLegacyRatingsRoundHalfAway(t *testing.T) {
	tests := []struct {
		raw  float64
		want int
	}{
		{3.4, 3},
		{3.5, 4},
		{3.6, 4},
		{4.49, 4},
		{0.4, 0},
		{0.5, 1},
		{4.9, 5},
	}
	for _, tt := range tests {
		tool := &model.Tool{Ratings: map[string]float64{"easeOfUse": tt.raw}}
		assert.Equal(t, tt.want, Rating(tool, easeOfUse), "rating %v", tt.raw)
	}
}

func TestRating_PanickingStrategyIsContained(t *testing.T) {
	r := New(Strategy{Name: "boom", Lookup: func(*model.Tool, model.Criterion) (float64, bool) {
		panic("bad data")
	}})
	assert.Equal(t, 0, r.Rating(&model.Tool{}, easeOfUse))
}

func TestRatingByID(t *testing.T) {
	tool := &model.Tool{Criteria: []model.CriteriaRating{{ID: "security", Name: "Security", Ranking: model.Rank(4)}}}
	assert.Equal(t, 4, RatingByID(tool, "security"))
	assert.Equal(t, 0, RatingByID(tool, "missing"))
}

func TestExplanation(t *testing.T) {
	tool := &model.Tool{
		Criteria: []model.CriteriaRating{
			{ID: "easeOfUse", Name: "Ease of Use", Ranking: model.Rank(4), Description: "Clean UI"},
		},
		RatingExplanations: map[string]string{"easeOfUse": "legacy text", "security": "SOC 2"},
	}
	assert.Equal(t, "Clean UI", Explanation(tool, easeOfUse))
	assert.Equal(t, "SOC 2", Explanation(tool, model.Criterion{ID: "security"}))
}
