package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confops/sponsor-pipeline/internal/export"
	"github.com/confops/sponsor-pipeline/pkg/notion"
)

var exportCmd = &cobra.Command{
	Use:   "export-notion",
	Short: "Push the pipeline snapshot to the team's Notion board",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Notion.Token == "" || cfg.Notion.PipelineDB == "" {
			return eris.New("notion token and pipeline_db are required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		client := notion.NewClient(cfg.Notion.Token)
		exporter := export.NewExporter(st, client, cfg.Notion.PipelineDB, "cli")
		report, err := exporter.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("notion export finished",
			zap.Int("created", report.Created),
			zap.Int("updated", report.Updated),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
