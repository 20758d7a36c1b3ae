package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/api/option"

	"github.com/vzahanych/jbot-advisor/internal/config"
)

func TestConsoleInput(t *testing.T) {
	var prompt bytes.Buffer
	in := NewConsoleInput(strings.NewReader("hello robot\n\n  weather  \n"), &prompt)
	ctx := context.Background()

	got, err := in.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello robot", got)

	_, err = in.Listen(ctx)
	assert.ErrorIs(t, err, ErrNotUnderstood)

	got, err = in.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "weather", got)

	_, err = in.Listen(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > > ", prompt.String())
}

func TestConsoleInput_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewConsoleInput(strings.NewReader("weather\n"), nil).Listen(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewTextOutput(&buf)
	require.NoError(t, out.Say(context.Background(), "Good Morning."))
	require.NoError(t, out.Say(context.Background(), "Okay see you later..."))
	assert.Equal(t, "Good Morning.\nOkay see you later...\n", buf.String())
}

func TestLanguageCodeAndFileName(t *testing.T) {
	assert.Equal(t, "en-US", languageCode("en-US-Wavenet-F"))
	assert.Equal(t, "ko-KR", languageCode("ko-KR-Standard-A"))
	assert.Equal(t, "en-US", languageCode("wavenet"))

	at := time.Date(2024, time.March, 7, 9, 5, 3, 0, time.UTC)
	assert.Equal(t, "output-3-7-09:05:03.wav", audioFileName(at))
}

func TestGoogleTTS_Synthesize(t *testing.T) {
	audio := []byte("RIFF....WAVEfmt ")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "text:synthesize"), r.URL.Path)

		var req struct {
			Input       struct{ Text string }               `json:"input"`
			Voice       struct{ LanguageCode, Name string } `json:"voice"`
			AudioConfig struct{ AudioEncoding string }      `json:"audioConfig"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Good Evening.", req.Input.Text)
		assert.Equal(t, "en-US", req.Voice.LanguageCode)
		assert.Equal(t, "en-US-Wavenet-F", req.Voice.Name)
		assert.Equal(t, "LINEAR16", req.AudioConfig.AudioEncoding)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString(audio),
		})
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.SpeechConfig{Voice: "en-US-Wavenet-F", AudioDir: dir}

	tts, err := NewGoogleTTS(context.Background(), cfg, zaptest.NewLogger(t),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	tts.now = func() time.Time { return time.Date(2024, time.June, 1, 18, 30, 0, 0, time.Local) }

	handle, err := tts.Synthesize(context.Background(), "Good Evening.")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "output-6-1-18:30:00.wav"), handle.Path)
	assert.Equal(t, "Good Evening.", handle.Text)

	written, err := os.ReadFile(handle.Path)
	require.NoError(t, err)
	assert.Equal(t, audio, written)
}

func TestGoogleTTS_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API not enabled"}}`))
	}))
	defer srv.Close()

	tts, err := NewGoogleTTS(context.Background(), config.SpeechConfig{Voice: "en-US-Wavenet-F", AudioDir: t.TempDir()},
		zaptest.NewLogger(t), option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	_, err = tts.Synthesize(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API not enabled")
}

func TestCommandPlayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.wav")
	require.NoError(t, os.WriteFile(path, []byte("wav"), 0o600))

	require.NoError(t, NewCommandPlayer("cat").Play(context.Background(), path))

	err := NewCommandPlayer("cat --no-such-flag").Play(context.Background(), path)
	assert.Error(t, err)

	p := NewCommandPlayer("")
	assert.Equal(t, "aplay", p.command)
}

type fakeSynth struct {
	texts []string
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, text string) (AudioHandle, error) {
	f.texts = append(f.texts, text)
	return AudioHandle{Path: "/tmp/" + text + ".wav", Text: text}, f.err
}

type fakePlayer struct {
	played []string
}

func (f *fakePlayer) Play(_ context.Context, path string) error {
	f.played = append(f.played, path)
	return nil
}

func TestVoiceOutput(t *testing.T) {
	synth := &fakeSynth{}
	player := &fakePlayer{}
	out := NewVoiceOutput(synth, player, zaptest.NewLogger(t))

	require.NoError(t, out.Say(context.Background(), "hi"))
	assert.Equal(t, []string{"hi"}, synth.texts)
	assert.Equal(t, []string{"/tmp/hi.wav"}, player.played)

	synth.err = errors.New("quota")
	assert.Error(t, out.Say(context.Background(), "again"))
	assert.Len(t, player.played, 1)
}

func TestNewOutput(t *testing.T) {
	var buf bytes.Buffer
	out, err := NewOutput(context.Background(), config.SpeechConfig{Output: "text"}, &buf, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &TextOutput{}, out)

	_, err = NewOutput(context.Background(), config.SpeechConfig{Output: "festival"}, &buf, zaptest.NewLogger(t))
	assert.Error(t, err)
}
