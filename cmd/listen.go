package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/internal/speech"
)

var listenPrompt bool

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run the voice session",
	Long: `Run the wake/sleep voice session. Recognized utterances are read one per
line from stdin (pipe a speech-to-text process in, or type them); replies are
spoken with the configured speech output.`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().BoolVar(&listenPrompt, "prompt", false, "print a prompt before reading each utterance")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	ctx := cmd.Context()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}

	out, err := speech.NewOutput(ctx, cfg.Speech, cmd.OutOrStdout(), log.Logger)
	if err != nil {
		return err
	}

	var prompt io.Writer
	if listenPrompt {
		prompt = os.Stderr
	}
	in := speech.NewConsoleInput(cmd.InOrStdin(), prompt)

	log.Info("Listening", zap.String("session_id", a.assistant.ID()), zap.String("output", cfg.Speech.Output))
	return a.assistant.Run(ctx, in, out)
}
