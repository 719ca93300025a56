package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/config"
)

var (
	cfg *config.Config

	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "ppm-finder",
	Short: "Score and compare project portfolio management tools",
	Long: `Ranks PPM tools against weighted criteria, renders comparison reports
and serves the finder API with its per-session bumper state.

Settings come from ./config.yaml and PPMFINDER_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			c.Log.Format = logFormat
		}
		if err := config.InitLogger(c.Log); err != nil {
			return eris.Wrap(err, "ppm-finder: init logger")
		}
		cfg = c
		return cfg.Validate(cmd.Name())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error); overrides log.level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json or console); overrides log.format")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
