package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/server/utils"
)

// ConditionsStore adds cache administration to ConditionsSource.
type ConditionsStore interface {
	ConditionsSource
	GetCacheStats(ctx context.Context) map[string]interface{}
	ClearCache(ctx context.Context) error
}

type ConditionsHandler struct {
	store  ConditionsStore
	logger *zap.Logger
}

func NewConditionsHandler(store ConditionsStore, logger *zap.Logger) *ConditionsHandler {
	return &ConditionsHandler{store: store, logger: logger}
}

func (h *ConditionsHandler) GetConditions(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)

	conditions, err := h.store.GetConditions(ctx)
	if err != nil {
		h.logger.Error("Failed to get conditions",
			zap.String("request_id", utils.GetRequestIDFromGinContext(c)),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Failed to fetch weather conditions",
			Code:    "UPSTREAM_ERROR",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, conditions)
}

func (h *ConditionsHandler) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.GetCacheStats(utils.GetContextFromGinContext(c)))
}

func (h *ConditionsHandler) ClearCache(c *gin.Context) {
	if err := h.store.ClearCache(utils.GetContextFromGinContext(c)); err != nil {
		h.logger.Error("Failed to clear cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to clear cache",
			Code:    "CACHE_ERROR",
			Details: err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}
