package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/pkg/logger"
)

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/onecall", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"timezone_offset":0,"current":{"dt":%d,"temp":24.8,"weather":[{"main":"Clear","description":"clear sky"}]},"hourly":[]}`,
			time.Now().Unix())
	})
	mux.HandleFunc("/nearest_city", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"current":{"pollution":{"aqius":30}}}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupRespond(t *testing.T) {
	t.Helper()

	srv := fakeUpstream(t)

	cfg := config.NewDefaultConfig()
	cfg.Location = config.LocationConfig{Latitude: 36.37, Longitude: 127.36, Timezone: "UTC"}
	cfg.Weather.BaseURL = srv.URL
	cfg.Air.BaseURL = srv.URL

	prevCfg, prevLog := config.GetConfig(), log
	config.SetConfig(cfg)
	log = logger.NewNop()
	t.Cleanup(func() {
		config.SetConfig(prevCfg)
		log = prevLog
	})
}

func runRespondCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := respondCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRespond_Weather(t *testing.T) {
	setupRespond(t)

	out, err := runRespondCmd(t, "--intent", "weather")
	require.NoError(t, err)
	assert.Contains(t, out, "Today is 25 degrees and the sky will be clear all day.")
}

func TestRespond_AirPollution(t *testing.T) {
	setupRespond(t)

	out, err := runRespondCmd(t, "-i", "air pollution")
	require.NoError(t, err)
	assert.Equal(t, "The air quality today is good.\n", out)
}

func TestRespond_OutfitFlags(t *testing.T) {
	setupRespond(t)

	out, err := runRespondCmd(t, "--intent", "outfit", "--top", "thick-clothes", "--bottom", "long pants")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRespond_UnknownIntent(t *testing.T) {
	setupRespond(t)

	_, err := runRespondCmd(t, "--intent", "dance")
	assert.ErrorIs(t, err, advisory.ErrUnsupportedIntent)
}

func TestObservedOutfit(t *testing.T) {
	opts := &respondOptions{top: "shirt", bottom: "shorts"}

	outfit, err := observedOutfit(respondCmd(), &app{}, opts)
	require.NoError(t, err)
	assert.Equal(t, advisory.Outfit{Top: advisory.TopShirt, Bottom: advisory.BottomShorts}, outfit)

	opts.top = "cape"
	_, err = observedOutfit(respondCmd(), &app{}, opts)
	assert.ErrorIs(t, err, advisory.ErrUnhandledCategory)
}
