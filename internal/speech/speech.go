// Package speech moves sentences in and out of the robot: utterances from a
// listener, replies to a speaker.
package speech

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrNotUnderstood is returned by an Input when nothing intelligible was
// heard. Callers keep listening.
var ErrNotUnderstood = errors.New("speech: utterance not understood")

// Input yields one utterance per call. It returns io.EOF when the source is
// exhausted.
type Input interface {
	Listen(ctx context.Context) (string, error)
}

// Output delivers one reply sentence to the user.
type Output interface {
	Say(ctx context.Context, text string) error
}

// ConsoleInput reads one utterance per line, for running the assistant from
// a terminal or a speech-to-text process piped into stdin.
type ConsoleInput struct {
	scanner *bufio.Scanner
	prompt  io.Writer
	mutex   sync.Mutex
}

// NewConsoleInput reads from r. When prompt is non-nil a "> " prompt is
// written before each line.
func NewConsoleInput(r io.Reader, prompt io.Writer) *ConsoleInput {
	return &ConsoleInput{
		scanner: bufio.NewScanner(r),
		prompt:  prompt,
	}
}

func (c *ConsoleInput) Listen(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.prompt != nil {
		fmt.Fprint(c.prompt, "> ")
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	line := strings.TrimSpace(c.scanner.Text())
	if line == "" {
		return "", ErrNotUnderstood
	}
	return line, nil
}

// TextOutput writes each reply as a line of text.
type TextOutput struct {
	w     io.Writer
	mutex sync.Mutex
}

func NewTextOutput(w io.Writer) *TextOutput {
	return &TextOutput{w: w}
}

func (t *TextOutput) Say(_ context.Context, text string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	_, err := fmt.Fprintln(t.w, text)
	return err
}
