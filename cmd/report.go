package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/report"
)

var (
	reportFormat  string
	reportOut     string
	reportEmail   string
	reportTools   []string
	reportWeights map[string]int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the comparison report",
	Example: `  ppm-finder report --weight reporting=5 > report.md
  ppm-finder report --format xlsx --out comparison.xlsx
  ppm-finder report --format html --email pat@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format := reportFormat
		if format == "" {
			format = formatFromPath(reportOut)
		}
		if format == "xlsx" && reportOut == "" {
			return eris.New("report: xlsx output needs --out")
		}

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		tools, criteria, err := selectInputs(cmd, env.Catalog, reportTools, reportWeights)
		if err != nil {
			return err
		}
		rep, err := env.Builder.Build(ctx, tools, criteria)
		if err != nil {
			return err
		}

		if reportEmail != "" {
			d, err := report.NewDelivery(rep, reportEmail, cfg.Report.FromEmail)
			if err != nil {
				return err
			}
			if err := report.DispatcherFromConfig(cfg.Report).Dispatch(ctx, d); err != nil {
				return err
			}
		}

		if reportOut == "" {
			return renderReport(cmd.OutOrStdout(), format, rep)
		}
		var buf bytes.Buffer
		if err := renderReport(&buf, format, rep); err != nil {
			return err
		}
		if err := os.WriteFile(reportOut, buf.Bytes(), 0o644); err != nil {
			return eris.Wrapf(err, "report: write %s", reportOut)
		}
		zap.L().Info("report written",
			zap.String("path", reportOut),
			zap.String("format", format),
			zap.String("report_id", rep.ID),
		)
		return nil
	},
}

// formatFromPath picks a format from the output file extension.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "html"
	case ".xlsx":
		return "xlsx"
	default:
		return "markdown"
	}
}

func renderReport(w io.Writer, format string, rep *report.Report) error {
	switch format {
	case "markdown", "md":
		_, err := io.WriteString(w, report.Markdown(rep))
		return eris.Wrap(err, "report: write markdown")
	case "html":
		html, err := report.EmailHTML(rep)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, html)
		return eris.Wrap(err, "report: write html")
	case "xlsx":
		return report.WriteXLSX(w, rep)
	default:
		return eris.Errorf("report: unknown format %q (want markdown, html or xlsx)", format)
	}
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "", "output format: markdown, html or xlsx (default from --out extension)")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (default stdout)")
	reportCmd.Flags().StringVar(&reportEmail, "email", "", "also dispatch the report to this address")
	reportCmd.Flags().StringSliceVar(&reportTools, "tools", nil, "restrict to these tool IDs")
	reportCmd.Flags().StringToIntVar(&reportWeights, "weight", nil, "criterion importance, e.g. --weight reporting=5")
	rootCmd.AddCommand(reportCmd)
}
