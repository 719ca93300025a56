// Package guided persists the answers from the guided rankings flow and
// turns them into criterion weights.
package guided

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/model"
	"github.com/sells-group/ppm-finder/internal/store"
)

// Store keys.
const (
	AnswersKey         = "guidedRankingAnswers"
	PersonalizationKey = "guidedRankingPersonalization"
)

// Answers maps a criterion ID to the importance the user picked (1..5).
type Answers map[string]int

// Personalization holds free-form profile answers (team size, industry,
// methodology) collected alongside the ratings.
type Personalization map[string]string

// IDs returns the answered criterion IDs, sorted.
func (a Answers) IDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply returns a copy of criteria with UserRating replaced by the answer
// for each answered criterion, clamped to 1..5. Unanswered criteria keep
// their current rating; answers for unknown IDs are ignored.
func Apply(criteria []model.Criterion, answers Answers) []model.Criterion {
	out := model.CloneCriteria(criteria)
	for i := range out {
		if v, ok := answers[out[i].ID]; ok {
			out[i].UserRating = model.ClampRating(v)
		}
	}
	return out
}

// Store reads and writes guided answers on a KV.
type Store struct {
	kv store.KV
}

// NewStore creates a Store on kv.
func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Answers loads the saved answers. A missing or unparsable record yields
// empty answers.
func (s *Store) Answers(ctx context.Context) Answers {
	out := Answers{}
	if !s.load(ctx, AnswersKey, &out) {
		return Answers{}
	}
	for id, v := range out {
		out[id] = model.ClampRating(v)
	}
	return out
}

// SaveAnswers clamps and persists answers, replacing any previous record.
func (s *Store) SaveAnswers(ctx context.Context, answers Answers) error {
	clean := make(Answers, len(answers))
	for id, v := range answers {
		if id == "" {
			continue
		}
		clean[id] = model.ClampRating(v)
	}
	return s.save(ctx, AnswersKey, clean)
}

// Personalization loads the saved profile answers, or an empty map.
func (s *Store) Personalization(ctx context.Context) Personalization {
	out := Personalization{}
	if !s.load(ctx, PersonalizationKey, &out) {
		return Personalization{}
	}
	return out
}

// SavePersonalization persists the profile answers.
func (s *Store) SavePersonalization(ctx context.Context, p Personalization) error {
	if p == nil {
		p = Personalization{}
	}
	return s.save(ctx, PersonalizationKey, p)
}

// Clear removes both records.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, AnswersKey); err != nil {
		return eris.Wrap(err, "guided: remove answers")
	}
	if err := s.kv.Remove(ctx, PersonalizationKey); err != nil {
		return eris.Wrap(err, "guided: remove personalization")
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		zap.L().Warn("guided: load", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		zap.L().Warn("guided: corrupt record, ignoring", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "guided: marshal %s", key)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return eris.Wrapf(err, "guided: save %s", key)
	}
	return nil
}
