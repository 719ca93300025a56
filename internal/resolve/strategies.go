package resolve

import (
	"sort"

	"golang.org/x/text/cases"

	"github.com/sells-group/ppm-finder/internal/model"
)

// DefaultAliases maps known criterion ids to the alternate key spellings
// legacy producers used in the ratings map.
var DefaultAliases = map[string][]string{
	"scalability":  {"Scalability", "scalability"},
	"integrations": {"Integrations & Extensibility", "Integrations", "integrations", "integrations_extensibility", "integrations-extensibility"},
	"easeOfUse":    {"Ease of Use", "easeOfUse", "ease_of_use", "ease-of-use"},
	"flexibility":  {"Flexibility & Customization", "Flexibility", "flexibility", "flexibility_customization", "flexibility-customization"},
	"ppmFeatures":  {"Portfolio Management", "PPM Features", "ppmFeatures", "ppm_features", "ppm-features"},
	"reporting":    {"Reporting & Analytics", "Reporting", "reporting", "reporting_analytics", "reporting-analytics"},
	"security":     {"Security & Compliance", "Security", "security", "security_compliance", "security-compliance"},
}

// ByCriteriaID matches a criteria entry by id.
func ByCriteriaID() Strategy {
	return Strategy{Name: "criteria_id", Lookup: func(tool *model.Tool, c model.Criterion) (float64, bool) {
		if c.ID == "" {
			return 0, false
		}
		for _, cr := range tool.Criteria {
			if cr.ID == c.ID && cr.Ranking != nil {
				return float64(*cr.Ranking), true
			}
		}
		return 0, false
	}}
}

// ByCriteriaName matches a criteria entry by exact name.
func ByCriteriaName() Strategy {
	return Strategy{Name: "criteria_name", Lookup: func(tool *model.Tool, c model.Criterion) (float64, bool) {
		if c.Name == "" {
			return 0, false
		}
		for _, cr := range tool.Criteria {
			if cr.Name == c.Name && cr.Ranking != nil {
				return float64(*cr.Ranking), true
			}
		}
		return 0, false
	}}
}

// ByCriteriaNameFold matches a criteria entry by case-insensitive name.
func ByCriteriaNameFold() Strategy {
	return Strategy{Name: "criteria_name_fold", Lookup: func(tool *model.Tool, c model.Criterion) (float64, bool) {
		if c.Name == "" {
			return 0, false
		}
		want := fold(c.Name)
		for _, cr := range tool.Criteria {
			if cr.Ranking != nil && fold(cr.Name) == want {
				return float64(*cr.Ranking), true
			}
		}
		return 0, false
	}}
}

// ByRatingsID reads the legacy ratings map keyed by criterion id.
func ByRatingsID() Strategy {
	return Strategy{Name: "ratings_id", Lookup: func(tool *model.Tool, c model.Criterion) (float64, bool) {
		v, ok := tool.Ratings[c.ID]
		if !ok || !numeric(v) {
			return 0, false
		}
		return v, true
	}}
}

// ByRatingsAlias tries each alias spelling of the criterion id against the
// legacy ratings map.
func ByRatingsAlias(aliases map[string][]string) Strategy {
	return Strategy{Name: "ratings_alias", Lookup: func(tool *model.Tool, c model.Criterion) (float64, bool) {
		for _, key := range aliases[c.ID] {
			if v, ok := tool.Ratings[key]; ok && numeric(v) {
				return v, true
			}
		}
		return 0, false
	}}
}

// ByRatingsKeyFold scans the legacy ratings map case-insensitively against
// the criterion's name and id. Keys are visited in sorted order so the
// result does not depend on map iteration.
func ByRatingsKeyFold() Strategy {
	return Strategy{Name: "ratings_key_fold", Lookup: func(tool *model.Tool, c model.Criterion) (float64, bool) {
		if len(tool.Ratings) == 0 {
			return 0, false
		}
		name, id := fold(c.Name), fold(c.ID)
		for _, key := range sortedKeys(tool.Ratings) {
			k := fold(key)
			if (name != "" && k == name) || (id != "" && k == id) {
				if v := tool.Ratings[key]; numeric(v) {
					return v, true
				}
			}
		}
		return 0, false
	}}
}

// fold builds a fresh Caser per call; Casers are stateful and not safe to
// share across goroutines.
func fold(s string) string {
	return cases.Fold().String(s)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
