package handlers

import (
	"context"
	"log"
	"net/http"

	"docchat-backend/service"

	"github.com/gin-gonic/gin"
)

// Answerer runs one chat turn for a user question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// ChatHandler handles HTTP requests for the chat and its history
type ChatHandler struct {
	chat    Answerer
	history service.ConversationStore
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat Answerer, history service.ConversationStore) *ChatHandler {
	return &ChatHandler{
		chat:    chat,
		history: history,
	}
}

// ChatRequest represents the request body for a chat turn
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	answer, err := h.chat.Answer(c.Request.Context(), req.Message)
	if err != nil {
		log.Printf("Error generating answer: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "GENERATION_FAILED",
				"message": "Could not get a response from the AI.",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"answer":  answer,
	})
}

// History handles GET /api/history
func (h *ChatHandler) History(c *gin.Context) {
	turns, err := h.history.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "HISTORY_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"turns":   turns,
	})
}
