package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confops/sponsor-pipeline/internal/dedupe"
)

var dedupeActor string

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Merge duplicate companies by normalized name",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		engine := dedupe.NewEngine(st, cfg.Batch.WriteDelay, dedupeActor)
		report, err := engine.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("dedupe finished",
			zap.Int("groups", report.Groups),
			zap.Int("merged", report.Merged),
			zap.Int("deleted", report.Deleted),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

var mergeDMsCmd = &cobra.Command{
	Use:   "merge-decision-makers",
	Short: "Deduplicate each company's decision-maker list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		engine := dedupe.NewEngine(st, cfg.Batch.WriteDelay, dedupeActor)
		report, err := engine.MergeDecisionMakers(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("decision-maker merge finished",
			zap.Int("merged", report.Merged),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

func init() {
	dedupeCmd.Flags().StringVar(&dedupeActor, "actor", "cli", "name recorded in the activity feed")
	mergeDMsCmd.Flags().StringVar(&dedupeActor, "actor", "cli", "name recorded in the activity feed")
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(mergeDMsCmd)
}
