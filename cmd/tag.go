package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confops/sponsor-pipeline/internal/sponsor"
)

var tagRosterPath string

var tagCmd = &cobra.Command{
	Use:   "tag-sponsors",
	Short: "Tag companies with their past sponsorship years from the roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path := tagRosterPath
		if path == "" {
			path = cfg.Sponsor.RosterPath
		}
		roster, err := sponsor.LoadRoster(path)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		tagger := sponsor.NewTagger(st, roster, cfg.Batch.WriteDelay, "cli")
		report, err := tagger.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("sponsor tagging finished",
			zap.Int("matched", report.Matched),
			zap.Int("updated", report.Updated),
			zap.Int("failed", report.Failed),
		)
		return nil
	},
}

func init() {
	tagCmd.Flags().StringVar(&tagRosterPath, "roster", "", "roster file (default from config)")
	rootCmd.AddCommand(tagCmd)
}
