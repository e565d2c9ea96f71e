package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yakgung/drugfood-guard/backend/internal/middleware"
	"github.com/yakgung/drugfood-guard/backend/internal/service"
)

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatHandler serves the conversational question endpoint. Chat requests
// spend hosted LLM tokens, so the routes carry a rate limiter when Redis is
// available.
type ChatHandler struct {
	llmService  *service.LLMService
	rateLimiter *middleware.RateLimiter
}

func NewChatHandler(llmService *service.LLMService, rateLimiter *middleware.RateLimiter) *ChatHandler {
	return &ChatHandler{
		llmService:  llmService,
		rateLimiter: rateLimiter,
	}
}

// RegisterRoutes registers the chat routes on an authenticated group.
func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	chat := router.Group("/chat")
	{
		if h.rateLimiter != nil {
			chat.POST("", h.rateLimiter.RateLimitMiddleware(), h.Chat)
		} else {
			chat.POST("", h.Chat)
		}
		chat.GET("/history", h.History)
		chat.DELETE("/history", h.ClearHistory)
		chat.GET("/log", h.QueryLog)
	}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.llmService.Chat(c.Request.Context(), userID.(uuid.UUID), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrLLMUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "answer service unavailable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate answer"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	messages, err := h.llmService.History(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

// QueryLog answers GET /chat/log?limit=... with the persisted question and
// answer records, newest first.
func (h *ChatHandler) QueryLog(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 20
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.llmService.QueryLog(c.Request.Context(), userID.(uuid.UUID), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load query log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"queries": records, "count": len(records)})
}

func (h *ChatHandler) ClearHistory(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.llmService.ClearHistory(c.Request.Context(), userID.(uuid.UUID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "history cleared"})
}
