// Package vision captures a frame of the user and classifies what they wear.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/config"
	"github.com/vzahanych/jbot-advisor/pkg/telemetry"
)

var ErrEmptyFrame = errors.New("camera returned an empty frame")

// Camera returns one JPEG frame.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// ClothingClassifier labels the upper and lower body outfit in a JPEG frame.
type ClothingClassifier interface {
	Classify(ctx context.Context, jpeg []byte) (advisory.Outfit, error)
}

// FileCamera reads the frame the robot's capture daemon keeps writing to disk.
type FileCamera struct {
	Path string
}

func (c FileCamera) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", c.Path, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}
	return data, nil
}

// StaticClassifier always reports the same outfit.
type StaticClassifier struct {
	Outfit advisory.Outfit
}

func (s StaticClassifier) Classify(context.Context, []byte) (advisory.Outfit, error) {
	return s.Outfit, nil
}

// HTTPClassifier posts the frame to a model server that answers
// {"top": "...", "bottom": "..."}.
type HTTPClassifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

type classifyResponse struct {
	Top    string `json:"top"`
	Bottom string `json:"bottom"`
}

func NewHTTPClassifier(url string, timeout time.Duration, logger *zap.Logger, tele *telemetry.Telemetry) *HTTPClassifier {
	return &HTTPClassifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
		tele:   tele,
	}
}

func (h *HTTPClassifier) Classify(ctx context.Context, jpeg []byte) (advisory.Outfit, error) {
	ctx, span := h.tele.StartSpan(ctx, "vision.Classify", attribute.Int("frame_bytes", len(jpeg)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(jpeg))
	if err != nil {
		return advisory.Outfit{}, err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := h.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return advisory.Outfit{}, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		err := fmt.Errorf("classifier error (status %d): %s", resp.StatusCode, body)
		span.RecordError(err)
		return advisory.Outfit{}, err
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return advisory.Outfit{}, fmt.Errorf("decode classifier response: %w", err)
	}

	outfit, err := parseOutfit(result.Top, result.Bottom)
	if err != nil {
		return advisory.Outfit{}, err
	}

	span.SetAttributes(
		attribute.String("top", string(outfit.Top)),
		attribute.String("bottom", string(outfit.Bottom)),
	)
	h.logger.Debug("Outfit classified",
		zap.String("top", string(outfit.Top)),
		zap.String("bottom", string(outfit.Bottom)))

	return outfit, nil
}

func parseOutfit(top, bottom string) (advisory.Outfit, error) {
	t, err := advisory.ParseTop(top)
	if err != nil {
		return advisory.Outfit{}, err
	}
	b, err := advisory.ParseBottom(bottom)
	if err != nil {
		return advisory.Outfit{}, err
	}
	return advisory.Outfit{Top: t, Bottom: b}, nil
}

// NewClassifier builds the configured classifier.
func NewClassifier(cfg config.VisionConfig, logger *zap.Logger, tele *telemetry.Telemetry) (ClothingClassifier, error) {
	switch cfg.Classifier {
	case "http":
		timeout := time.Duration(cfg.Timeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return NewHTTPClassifier(cfg.ClassifierURL, timeout, logger, tele), nil
	case "", "static":
		outfit, err := parseOutfit(cfg.StaticTop, cfg.StaticBottom)
		if err != nil {
			return nil, fmt.Errorf("static classifier: %w", err)
		}
		return StaticClassifier{Outfit: outfit}, nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", cfg.Classifier)
	}
}

// Observer looks at the user and reports their outfit.
type Observer struct {
	camera     Camera
	classifier ClothingClassifier
}

func NewObserver(camera Camera, classifier ClothingClassifier) *Observer {
	return &Observer{camera: camera, classifier: classifier}
}

func (o *Observer) Observe(ctx context.Context) (advisory.Outfit, error) {
	frame, err := o.camera.Capture(ctx)
	if err != nil {
		return advisory.Outfit{}, err
	}
	return o.classifier.Classify(ctx, frame)
}
