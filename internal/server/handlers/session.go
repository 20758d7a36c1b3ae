package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vzahanych/jbot-advisor/internal/server/utils"
	"github.com/vzahanych/jbot-advisor/internal/session"
)

// SessionHandler lets a remote speech recognizer drive the robot's session.
type SessionHandler struct {
	assistant *session.Assistant
	logger    *zap.Logger
}

func NewSessionHandler(assistant *session.Assistant, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{assistant: assistant, logger: logger}
}

func (h *SessionHandler) PostUtterance(c *gin.Context) {
	var req UtteranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_BODY",
			Details: err.Error(),
		})
		return
	}
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "Invalid utterance",
			Code:   "INVALID_PARAMS",
			Fields: verrs,
		})
		return
	}

	reply, err := h.assistant.Handle(utils.GetContextFromGinContext(c), req.Text)
	if err != nil {
		h.logger.Error("Failed to handle utterance",
			zap.String("request_id", utils.GetRequestIDFromGinContext(c)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to handle utterance",
			Code:    "SESSION_ERROR",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		SessionID: h.assistant.ID(),
		Command:   reply.Command,
		Text:      reply.Text,
		State:     reply.State,
	})
}

func (h *SessionHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, SessionResponse{
		SessionID: h.assistant.ID(),
		State:     h.assistant.State(),
	})
}
