package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/pkg/logger"
	"github.com/vzahanych/jbot-advisor/pkg/telemetry"
)

var (
	configPath string
	log        *logger.Logger
	tele       *telemetry.Telemetry
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jbot",
		Short: "Weather and outfit assistant for a small robot",
		Long: `J-Bot listens for a handful of spoken commands and answers with weather,
air quality and outfit advice for the day. It can run as a voice session, an
HTTP API or answer a single question from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeServices(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")

	cmd.AddCommand(serverCmd)
	cmd.AddCommand(listenCmd)
	cmd.AddCommand(respondCmd())

	return cmd
}

func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		if log != nil {
			log.Info("Received shutdown signal", zap.String("signal", sig.String()))
		}
		cancel()
	}()

	defer shutdownServices()

	return rootCmd().ExecuteContext(ctx)
}

func initializeServices(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Kept in an atomic so it can be swapped at runtime.
	config.SetConfig(cfg)

	log, err = logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	tele, err = telemetry.New(ctx, cfg.Telemetry, cfg.Version)
	if err != nil {
		log.Warn("Failed to initialize telemetry, tracing disabled", zap.Error(err))
		tele = nil
	}

	return nil
}

func shutdownServices() {
	if err := tele.Shutdown(context.Background()); err != nil && log != nil {
		log.Warn("Failed to shut down telemetry", zap.Error(err))
	}
	if log != nil {
		_ = log.Sync()
	}
}
