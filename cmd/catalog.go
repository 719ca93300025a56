package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ppm-finder/internal/catalog"
	"github.com/sells-group/ppm-finder/internal/db"
)

var (
	catalogMigrateFile  string
	catalogMigratePrune bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate, inspect and load the tool catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a YAML or JSON catalog file against the schema and cross-references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateCatalogFile(cmd.OutOrStdout(), args[0])
	},
}

var catalogSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the catalog JSON Schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(catalog.SchemaJSON())
		return err
	},
}

var catalogMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog tables and load the default (or a file) catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dsn := cfg.CatalogDatabaseURL()
		if dsn == "" {
			return eris.New("catalog migrate: catalog.database_url (or store.database_url) is required")
		}

		c := catalog.Defaults()
		if catalogMigrateFile != "" {
			loaded, err := catalog.LoadFile(catalogMigrateFile)
			if err != nil {
				return err
			}
			c = loaded
		}

		pool, err := db.Connect(ctx, dsn, nil)
		if err != nil {
			return err
		}
		defer pool.Close()

		src := catalog.NewPostgresSource(pool)
		if err := src.Migrate(ctx); err != nil {
			return err
		}
		res, err := src.Import(ctx, c, catalogMigratePrune)
		if err != nil {
			return err
		}

		zap.L().Info("catalog migrated",
			zap.Int64("criteria_upserted", res.Criteria.Upserted),
			zap.Int64("tools_upserted", res.Tools.Upserted),
			zap.Int64("criteria_pruned", res.Criteria.Pruned),
			zap.Int64("tools_pruned", res.Tools.Pruned),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d criteria and %d tools", len(c.Criteria), len(c.Tools))
		if catalogMigratePrune {
			fmt.Fprintf(cmd.OutOrStdout(), ", pruned %d criteria and %d tools", res.Criteria.Pruned, res.Tools.Pruned)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

// validateCatalogFile reports schema violations and cross-reference
// problems in path. It returns an error when the file is not usable.
func validateCatalogFile(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "catalog: read %s", path)
	}

	problems, err := catalog.ValidateDocument(data, catalog.FormatFor(path))
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(w, "  %s\n", p)
		}
		return eris.Errorf("catalog: %s has %d schema violation(s)", path, len(problems))
	}

	c, err := catalog.Parse(data, catalog.FormatFor(path))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: ok (%d criteria, %d tools, %d visible)\n",
		path, len(c.Criteria), len(c.Tools), len(catalog.Visible(c.Tools)))
	return nil
}

func init() {
	catalogMigrateCmd.Flags().StringVar(&catalogMigrateFile, "file", "", "catalog file to load instead of the defaults")
	catalogMigrateCmd.Flags().BoolVar(&catalogMigratePrune, "prune", false, "delete criteria and tools missing from the loaded catalog")
	catalogCmd.AddCommand(catalogValidateCmd, catalogSchemaCmd, catalogMigrateCmd)
	rootCmd.AddCommand(catalogCmd)
}
