package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confops/sponsor-pipeline/internal/server"
	"github.com/confops/sponsor-pipeline/internal/sponsor"
	anthropicpkg "github.com/confops/sponsor-pipeline/pkg/anthropic"
	"github.com/confops/sponsor-pipeline/pkg/linkedin"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pipeline HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		roster, err := sponsor.LoadRoster(cfg.Sponsor.RosterPath)
		if err != nil {
			zap.L().Warn("roster not loaded, tagging disabled", zap.Error(err))
			roster = sponsor.Roster{}
		}

		var ai anthropicpkg.Client
		if cfg.Anthropic.Key != "" {
			ai = anthropicpkg.NewClient(cfg.Anthropic.Key)
		} else {
			zap.L().Info("SPONSOR_ANTHROPIC_KEY not set, research endpoint disabled")
		}

		var network linkedin.Client
		if cfg.Network.ClientID != "" {
			network = linkedin.NewClient(cfg.Network.ClientID, cfg.Network.ClientSecret,
				linkedin.WithTokenURL(cfg.Network.TokenURL),
				linkedin.WithProfileURL(cfg.Network.ProfileURL),
			)
		}

		return server.New(cfg, st, roster, ai, network).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
