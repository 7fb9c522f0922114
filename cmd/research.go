package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confops/sponsor-pipeline/internal/research"
	anthropicpkg "github.com/confops/sponsor-pipeline/pkg/anthropic"
)

var researchLimit int

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research companies in the research stage via the Anthropic API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic key is required (SPONSOR_ANTHROPIC_KEY)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		ai := anthropicpkg.NewClient(cfg.Anthropic.Key)
		researcher := research.NewResearcher(st, ai, cfg.Anthropic.Model, cfg.Batch.WriteDelay, "cli")
		report, err := researcher.Run(ctx, researchLimit)
		if err != nil {
			return err
		}

		zap.L().Info("research finished",
			zap.Int("processed", report.Processed),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

func init() {
	researchCmd.Flags().IntVar(&researchLimit, "limit", 0, "max companies to research (0 = all)")
	rootCmd.AddCommand(researchCmd)
}
