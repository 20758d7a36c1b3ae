package speech

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/config"
)

// NewOutput builds the configured reply channel. Text replies go to w.
func NewOutput(ctx context.Context, cfg config.SpeechConfig, w io.Writer, logger *zap.Logger) (Output, error) {
	switch cfg.Output {
	case "", "text":
		return NewTextOutput(w), nil
	case "google":
		tts, err := NewGoogleTTS(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewVoiceOutput(tts, NewCommandPlayer(cfg.PlayerCommand), logger), nil
	default:
		return nil, fmt.Errorf("unknown speech output %q", cfg.Output)
	}
}
