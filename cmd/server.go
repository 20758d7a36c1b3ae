package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/aggregator"
	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/internal/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve advice over HTTP",
	Long:  `Start the HTTP API that answers advice, conditions and session requests, with caching and observability.`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	ctx := cmd.Context()

	log.Info("Starting J-Bot server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Int("server_port", cfg.Server.Port))

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Engine:     a.engine,
		Aggregator: a.aggregator,
		Assistant:  a.assistant,
	}

	if cfg.Cache.RefreshInterval > 0 {
		refresher := aggregator.NewRefresher(a.aggregator, time.Duration(cfg.Cache.RefreshInterval)*time.Second)
		refresher.Start(ctx)
		defer refresher.Stop()
		deps.Refresher = refresher
	}

	srv := server.NewServer(cfg.Server, deps, log.Logger, tele)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("Server error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")

		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("Server shutdown complete")
		return nil
	}
}
