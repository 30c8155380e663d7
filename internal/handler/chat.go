package handler

import (
	"net/http"

	"carvest-backend/internal/model"
	"carvest-backend/internal/service"
	"carvest-backend/internal/storage"
	"carvest-backend/internal/utils"
	"carvest-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type ChatHandler struct {
	chatService *service.ChatService
	production  bool
}

func NewChatHandler(chatService *service.ChatService, production bool) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		production:  production,
	}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and message are required"})
		return
	}

	resp, err := h.chatService.SendMessage(c.Request.Context(), req)
	if err != nil {
		internalError(c, "Failed to process chat message", err, h.production, nil)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// StreamMessage relays the reply as SSE data frames: {content} per delta,
// then {done:true}, or {error} once the stream has started.
func (h *ChatHandler) StreamMessage(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and message are required"})
		return
	}

	ctx := c.Request.Context()
	events, err := h.chatService.StreamMessage(ctx, req)

	sse := utils.NewSSEWriter(c.Writer)
	if err != nil {
		logger.Errorf("Failed to start stream for user %s: %+v", req.UserID, err)
		_ = sse.WriteJSON(model.StreamEvent{Error: err.Error()})
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sse.WriteJSON(ev); err != nil {
				logger.Warnf("Failed to write SSE frame for user %s: %v", req.UserID, err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID := c.Param("userId")

	session, err := h.chatService.GetHistory(c.Request.Context(), userID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
		return
	}
	if err != nil {
		internalError(c, "Failed to load chat history", err, h.production, nil)
		return
	}

	c.JSON(http.StatusOK, model.HistoryResponse{
		UserID:    session.UserID,
		Messages:  session.Messages,
		Model:     session.Model,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	})
}

func (h *ChatHandler) ClearHistory(c *gin.Context) {
	userID := c.Param("userId")

	err := h.chatService.ClearHistory(c.Request.Context(), userID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat session not found"})
		return
	}
	if err != nil {
		internalError(c, "Failed to clear chat history", err, h.production, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat history cleared"})
}
