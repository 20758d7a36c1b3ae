package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"

	"github.com/vzahanych/jbot-advisor/internal/config"
)

// AudioHandle is a synthesized reply on disk.
type AudioHandle struct {
	Path string
	Text string
}

// Synthesizer renders text to an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (AudioHandle, error)
}

// GoogleTTS synthesizes LINEAR16 wav files with Google Cloud Text-to-Speech.
type GoogleTTS struct {
	service  *texttospeech.Service
	voice    string
	language string
	audioDir string
	logger   *zap.Logger
	now      func() time.Time
}

// NewGoogleTTS authenticates with the service account file from cfg when one
// is set; extra options are appended after it.
func NewGoogleTTS(ctx context.Context, cfg config.SpeechConfig, logger *zap.Logger, opts ...option.ClientOption) (*GoogleTTS, error) {
	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := texttospeech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech service: %w", err)
	}

	dir := cfg.AudioDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	return &GoogleTTS{
		service:  service,
		voice:    cfg.Voice,
		language: languageCode(cfg.Voice),
		audioDir: dir,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// languageCode takes "en-US" out of a voice name like "en-US-Wavenet-F".
func languageCode(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

// audioFileName is output-<month>-<day>-<HH:MM:SS>.wav.
func audioFileName(t time.Time) string {
	return fmt.Sprintf("output-%d-%d-%s.wav", int(t.Month()), t.Day(), t.Format("15:04:05"))
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text string) (AudioHandle, error) {
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: g.language,
			Name:         g.voice,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: "LINEAR16",
		},
	}

	resp, err := g.service.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return AudioHandle{}, fmt.Errorf("synthesize speech: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return AudioHandle{}, fmt.Errorf("decode audio content: %w", err)
	}

	path := filepath.Join(g.audioDir, audioFileName(g.now()))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return AudioHandle{}, fmt.Errorf("write audio file: %w", err)
	}

	g.logger.Debug("Speech synthesized",
		zap.String("voice", g.voice),
		zap.String("path", path),
		zap.Int("bytes", len(audio)))

	return AudioHandle{Path: path, Text: text}, nil
}
