package insight

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// genericHighlight is used when a tool has no strong criteria and no canned
// phrase.
const genericHighlight = "Solid all-round option worth a closer look for your team"

// cannedHighlights are shown for well-known tools that have no criterion
// rated 4 or higher for the current weights. Keys are folded tool names.
var cannedHighlights = map[string]string{
	"asana":             "Clean task tracking that teams adopt quickly",
	"monday.com":        "Visual boards with flexible automations",
	"smartsheet":        "Spreadsheet-style planning familiar to most teams",
	"jira":              "Issue tracking built for software delivery",
	"microsoft project": "Classic scheduling with deep Microsoft 365 ties",
	"planview":          "Enterprise portfolio governance at scale",
	"wrike":             "Cross-team work management with strong proofing",
	"clickup":           "All-in-one workspace with broad feature coverage",
	"airtable":          "Database-backed planning with custom views",
	"hive":              "Collaborative project views with built-in chat",
}

func cannedHighlight(toolName string) string {
	if p, ok := cannedHighlights[strings.ToLower(strings.TrimSpace(toolName))]; ok {
		return p
	}
	return genericHighlight
}

func highlightCandidates(strong []Strength) []string {
	first := strong[0].Criterion.Name
	if len(strong) == 1 {
		return []string{
			fmt.Sprintf("Stands out for %s", first),
			fmt.Sprintf("Top-rated %s for your priorities", lowerFirst(first)),
			fmt.Sprintf("A strong pick when %s matters most", lowerFirst(first)),
			fmt.Sprintf("Excels at %s", lowerFirst(first)),
		}
	}
	second := strong[1].Criterion.Name
	return []string{
		fmt.Sprintf("Excels at %s and %s", lowerFirst(first), lowerFirst(second)),
		fmt.Sprintf("Strong %s backed by solid %s", lowerFirst(first), lowerFirst(second)),
		fmt.Sprintf("Stands out for %s and %s", first, second),
		fmt.Sprintf("Top marks in %s and %s", lowerFirst(first), lowerFirst(second)),
	}
}

func honorableCandidates(strong []Strength) []string {
	if len(strong) == 0 {
		return []string{
			"A capable alternative that just missed the top spots",
			"Close behind the leaders and worth a demo",
			"Covers the basics well for a wide range of teams",
		}
	}
	name := lowerFirst(strong[0].Criterion.Name)
	return []string{
		fmt.Sprintf("Just missed the top spots, with notable %s", name),
		fmt.Sprintf("Worth a look for its %s", name),
		fmt.Sprintf("A close contender, strongest in %s", name),
	}
}

func cellCandidates(rating int, criterionName string) []string {
	name := lowerFirst(criterionName)
	switch {
	case rating >= 5:
		return []string{
			fmt.Sprintf("Best-in-class %s", name),
			fmt.Sprintf("Exceptional %s", name),
			fmt.Sprintf("Leading %s capabilities", name),
		}
	case rating == 4:
		return []string{
			fmt.Sprintf("Strong %s", name),
			fmt.Sprintf("Above-average %s", name),
			fmt.Sprintf("Well-rounded %s", name),
		}
	case rating == 3:
		return []string{
			fmt.Sprintf("Adequate %s", name),
			fmt.Sprintf("Solid baseline %s", name),
		}
	case rating >= 1:
		return []string{
			fmt.Sprintf("Limited %s", name),
			fmt.Sprintf("Basic %s only", name),
		}
	default:
		return []string{fmt.Sprintf("No %s rating available", name)}
	}
}

// lowerFirst lowercases the first letter unless the word looks like an
// acronym ("API", "PPM").
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	word := s
	if i := strings.IndexByte(s, ' '); i > 0 {
		word = s[:i]
	}
	if len(word) > 1 && strings.ToUpper(word) == word {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
