package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ppm-finder/internal/catalog"
	"github.com/sells-group/ppm-finder/internal/guided"
	"github.com/sells-group/ppm-finder/internal/model"
	"github.com/sells-group/ppm-finder/internal/scorer"
)

var (
	scoreFormat  string
	scoreVariant string
	scoreTop     int
	scoreTools   []string
	scoreWeights map[string]int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank catalog tools against the criteria weights",
	Example: `  ppm-finder score --weight reporting=5 --weight security=4
  ppm-finder score --tools asana,jira,wrike --format json
  ppm-finder score --variant meets_all --top 5 --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		engine := env.Engine
		if scoreVariant != "" {
			v, err := scorer.ParseVariant(scoreVariant)
			if err != nil {
				return err
			}
			engine = scorer.NewEngine(v, nil)
		}

		tools, criteria, err := selectInputs(cmd, env.Catalog, scoreTools, scoreWeights)
		if err != nil {
			return err
		}
		ranked, err := engine.RankChecked(tools, criteria)
		if err != nil {
			return err
		}

		rows := scoreRows(engine, scorer.TopN(ranked, scoreTop), criteria)
		return writeScores(cmd.OutOrStdout(), scoreFormat, rows)
	},
}

// selectInputs loads the visible tools, narrowed to ids, and the catalog
// criteria with weights applied.
func selectInputs(cmd *cobra.Command, p catalog.Provider, ids []string, weights map[string]int) ([]model.Tool, []model.Criterion, error) {
	ctx := cmd.Context()
	tools, err := p.Tools(ctx)
	if err != nil {
		return nil, nil, err
	}
	criteria, err := p.Criteria(ctx)
	if err != nil {
		return nil, nil, err
	}
	return catalog.Select(catalog.Visible(tools), ids), guided.Apply(criteria, guided.Answers(weights)), nil
}

type scoreRow struct {
	Rank       int     `json:"rank"`
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Percentage int     `json:"percentage"`
	RawScore   float64 `json:"rawScore"`
	MatchScore int     `json:"matchScore"`
}

func scoreRows(engine *scorer.Engine, ranked []model.ScoredTool, criteria []model.Criterion) []scoreRow {
	rows := make([]scoreRow, len(ranked))
	for i := range ranked {
		st := &ranked[i]
		rows[i] = scoreRow{
			Rank:       st.Rank,
			ID:         st.Tool.ID,
			Name:       st.Tool.Name,
			Percentage: st.Percentage,
			RawScore:   st.RawScore,
			MatchScore: engine.Score(&st.Tool, criteria).MatchScore,
		}
	}
	return rows
}

func writeScores(w io.Writer, format string, rows []scoreRow) error {
	switch format {
	case "", "table":
		return writeScoreTable(w, rows)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rows), "score: encode json")
	case "csv":
		return writeScoreCSV(w, rows)
	default:
		return eris.Errorf("score: unknown format %q (want table, json or csv)", format)
	}
}

var (
	strongColor = color.New(color.FgGreen, color.Bold)
	fairColor   = color.New(color.FgYellow)
	weakColor   = color.New(color.FgRed)
)

// matchLabel colors a percentage by how well the tool fits.
func matchLabel(pct int) string {
	s := fmt.Sprintf("%d%%", pct)
	switch {
	case pct >= 80:
		return strongColor.Sprint(s)
	case pct >= 50:
		return fairColor.Sprint(s)
	default:
		return weakColor.Sprint(s)
	}
}

func writeScoreTable(w io.Writer, rows []scoreRow) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Tool", "Match", "Score", "Match Score"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range rows {
		data = append(data, []string{
			strconv.Itoa(r.Rank),
			r.Name,
			matchLabel(r.Percentage),
			strconv.FormatFloat(r.RawScore, 'f', 2, 64),
			fmt.Sprintf("%d/10", r.MatchScore),
		})
	}
	if err := table.Bulk(data); err != nil {
		return eris.Wrap(err, "score: build table")
	}
	return eris.Wrap(table.Render(), "score: render table")
}

func writeScoreCSV(w io.Writer, rows []scoreRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "id", "name", "percentage", "raw_score", "match_score"}); err != nil {
		return eris.Wrap(err, "score: write csv header")
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Rank),
			r.ID,
			r.Name,
			strconv.Itoa(r.Percentage),
			strconv.FormatFloat(r.RawScore, 'f', 4, 64),
			strconv.Itoa(r.MatchScore),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "score: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "score: flush csv")
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "table", "output format: table, json or csv")
	scoreCmd.Flags().StringVar(&scoreVariant, "variant", "", "scoring variant: snap or meets_all (default from config)")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 0, "show only the top N tools (0 = all)")
	scoreCmd.Flags().StringSliceVar(&scoreTools, "tools", nil, "restrict to these tool IDs")
	scoreCmd.Flags().StringToIntVar(&scoreWeights, "weight", nil, "criterion importance, e.g. --weight reporting=5")
	rootCmd.AddCommand(scoreCmd)
}
