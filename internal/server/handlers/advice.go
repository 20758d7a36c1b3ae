package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/aggregator"
	"github.com/vzahanych/jbot-advisor/internal/server/utils"
)

// ConditionsSource is the part of the aggregator the handlers read.
type ConditionsSource interface {
	GetConditions(ctx context.Context) (*aggregator.Conditions, error)
}

// AdviceRecorder counts composed advisories per intent.
type AdviceRecorder interface {
	RecordAdvice(ctx context.Context, intent string, success bool)
}

type AdviceHandler struct {
	engine     *advisory.Engine
	conditions ConditionsSource
	logger     *zap.Logger
	metrics    AdviceRecorder
}

func NewAdviceHandler(engine *advisory.Engine, conditions ConditionsSource, logger *zap.Logger, metrics AdviceRecorder) *AdviceHandler {
	return &AdviceHandler{
		engine:     engine,
		conditions: conditions,
		logger:     logger,
		metrics:    metrics,
	}
}

// GetAdvice answers greeting, weather and air-pollution. Outfit advice needs
// an observation and is served by PostOutfit.
func (h *AdviceHandler) GetAdvice(c *gin.Context) {
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	intent, err := advisory.ParseIntent(c.Param("intent"))
	if err != nil {
		reqLogger.Warn("Unsupported intent", zap.String("intent", c.Param("intent")))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Unsupported intent",
			Code:    "UNSUPPORTED_INTENT",
			Details: err.Error(),
		})
		return
	}
	if intent == advisory.IntentOutfit {
		c.JSON(http.StatusMethodNotAllowed, ErrorResponse{
			Error: "Outfit advice requires POST /advice/outfit with the observed outfit",
			Code:  "OUTFIT_REQUIRES_POST",
		})
		return
	}

	h.respond(c, reqLogger, intent, nil)
}

func (h *AdviceHandler) PostOutfit(c *gin.Context) {
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req OutfitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqLogger.Warn("Invalid outfit body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_BODY",
			Details: err.Error(),
		})
		return
	}
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid outfit",
			Code:   "INVALID_PARAMS",
			Fields: verrs,
		})
		return
	}

	// Both already passed the validator.
	top, _ := advisory.ParseTop(req.Top)
	bottom, _ := advisory.ParseBottom(req.Bottom)

	h.respond(c, reqLogger, advisory.IntentOutfit, &advisory.Outfit{Top: top, Bottom: bottom})
}

func (h *AdviceHandler) respond(c *gin.Context, reqLogger *zap.Logger, intent advisory.Intent, outfit *advisory.Outfit) {
	ctx := utils.GetContextFromGinContext(c)

	conditions, err := h.conditions.GetConditions(ctx)
	if err != nil {
		reqLogger.Error("Failed to get conditions", zap.Error(err))
		h.record(ctx, intent, false)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Failed to fetch weather conditions",
			Code:    "UPSTREAM_ERROR",
			Details: err.Error(),
		})
		return
	}

	text, err := h.engine.Respond(intent, advisory.Request{
		Snapshot: conditions.Snapshot,
		AirLevel: conditions.AirLevel,
		Outfit:   outfit,
	})
	if err != nil {
		h.record(ctx, intent, false)
		status := http.StatusInternalServerError
		if errors.Is(err, advisory.ErrUnhandledCategory) {
			status = http.StatusUnprocessableEntity
		}
		reqLogger.Error("Failed to compose advice", zap.String("intent", string(intent)), zap.Error(err))
		c.JSON(status, ErrorResponse{
			Error:   "Failed to compose advice",
			Code:    "ADVISORY_ERROR",
			Details: err.Error(),
		})
		return
	}

	h.record(ctx, intent, true)
	reqLogger.Info("Advice composed", zap.String("intent", string(intent)))

	c.JSON(http.StatusOK, AdviceResponse{
		Intent:    intent,
		Text:      text,
		AirLevel:  conditions.AirLevel,
		FetchedAt: conditions.FetchedAt,
	})
}

func (h *AdviceHandler) record(ctx context.Context, intent advisory.Intent, success bool) {
	if h.metrics != nil {
		h.metrics.RecordAdvice(ctx, string(intent), success)
	}
}
