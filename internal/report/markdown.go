package report

import (
	"fmt"
	"strings"
)

// Title is the heading of every rendered report.
const Title = "PPM Tool Comparison Report"

// Markdown renders r as GitHub-flavored Markdown.
func Markdown(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", Title)
	fmt.Fprintf(&b, "Generated %s (report %s)\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"), r.ID)

	b.WriteString("## Your priorities\n\n")
	b.WriteString("| Criterion | Importance |\n|---|---|\n")
	for _, c := range r.Criteria {
		fmt.Fprintf(&b, "| %s | %d/5 |\n", cell(c.Name), c.UserRating)
	}
	b.WriteString("\n")

	b.WriteString("## Top recommendations\n\n")
	for _, e := range r.Top {
		fmt.Fprintf(&b, "### %d. %s (%d%% match)\n\n", e.Rank, e.Tool.Name, e.Percentage)
		fmt.Fprintf(&b, "%s\n\n", e.Highlight)
		fmt.Fprintf(&b, "Match score: %d/10\n\n", e.MatchScore)
		b.WriteString("| Criterion | Your importance | Tool rating | Meets |\n|---|---|---|---|\n")
		for _, p := range e.Breakdown {
			meets := "no"
			if p.Meets {
				meets = "yes"
			}
			fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", cell(p.Name), p.Weight, p.Rating, meets)
		}
		b.WriteString("\n")
	}

	if len(r.HonorableMentions) > 0 {
		b.WriteString("## Honorable mentions\n\n")
		for _, m := range r.HonorableMentions {
			fmt.Fprintf(&b, "- **%s** (#%d, %d%%): %s\n", m.Name, m.Rank, m.Percentage, m.Summary)
		}
		b.WriteString("\n")
	}

	if len(r.Top) > 0 && len(r.Criteria) > 0 {
		b.WriteString("## Side-by-side comparison\n\n")
		b.WriteString("| Criterion |")
		for _, e := range r.Top {
			fmt.Fprintf(&b, " %s |", cell(e.Tool.Name))
		}
		b.WriteString("\n|---|")
		b.WriteString(strings.Repeat("---|", len(r.Top)))
		b.WriteString("\n")
		for j, c := range r.Criteria {
			fmt.Fprintf(&b, "| %s |", cell(c.Name))
			for i := range r.Top {
				text := ""
				if i < len(r.Cells) && j < len(r.Cells[i]) {
					text = r.Cells[i][j]
				}
				fmt.Fprintf(&b, " %s |", cell(text))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
