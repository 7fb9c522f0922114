package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confops/sponsor-pipeline/internal/importer"
)

var (
	importCharset   string
	importDelimiter string
)

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Bulk-import companies from a CSV/XLSX file or URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := importer.Options{Source: args[0], Charset: importCharset}
		if importDelimiter != "" {
			opts.Delimiter = rune(importDelimiter[0])
		}

		imp := importer.New(st, cfg.Batch.WriteDelay, "cli")
		report, err := imp.Run(ctx, opts)
		if err != nil {
			return err
		}

		zap.L().Info("import finished",
			zap.Int("imported", report.Imported),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCharset, "charset", "", "CSV charset, e.g. windows-1252")
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "CSV field delimiter")
	rootCmd.AddCommand(importCmd)
}
