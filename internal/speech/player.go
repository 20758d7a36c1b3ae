package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Player plays an audio file to completion.
type Player interface {
	Play(ctx context.Context, path string) error
}

// CommandPlayer shells out to an audio player such as aplay. The command may
// carry arguments; the file path is appended last.
type CommandPlayer struct {
	command string
	args    []string
}

func NewCommandPlayer(command string) *CommandPlayer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = []string{"aplay"}
	}
	return &CommandPlayer{command: fields[0], args: fields[1:]}
}

func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	args := append(append([]string{}, p.args...), path)
	out, err := exec.CommandContext(ctx, p.command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", p.command, path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// VoiceOutput speaks replies: synthesize, then play.
type VoiceOutput struct {
	synth  Synthesizer
	player Player
	logger *zap.Logger
}

func NewVoiceOutput(synth Synthesizer, player Player, logger *zap.Logger) *VoiceOutput {
	return &VoiceOutput{synth: synth, player: player, logger: logger}
}

func (v *VoiceOutput) Say(ctx context.Context, text string) error {
	handle, err := v.synth.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	v.logger.Debug("Playing reply", zap.String("path", handle.Path))
	return v.player.Play(ctx, handle.Path)
}
