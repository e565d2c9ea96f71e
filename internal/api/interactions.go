package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yakgung/drugfood-guard/backend/internal/models"
	"github.com/yakgung/drugfood-guard/backend/internal/service"
)

// InteractionHandler serves interaction search, food checks and dataset
// statistics.
type InteractionHandler struct {
	interactionService *service.InteractionService
	drugService        *service.DrugService
}

func NewInteractionHandler(interactionService *service.InteractionService, drugService *service.DrugService) *InteractionHandler {
	return &InteractionHandler{
		interactionService: interactionService,
		drugService:        drugService,
	}
}

// RegisterRoutes registers the interaction routes on an authenticated group.
func (h *InteractionHandler) RegisterRoutes(router *gin.RouterGroup) {
	interactions := router.Group("/interactions")
	{
		interactions.GET("/search", h.Search)
		interactions.POST("/check", h.CheckFood)
		interactions.GET("/warnings", h.Warnings)
		interactions.GET("/stats", h.Stats)
	}
}

// Search answers GET /interactions/search?q=...&risk=...&limit=...
func (h *InteractionHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	opts := service.SearchOptions{}
	if riskParam := c.Query("risk"); riskParam != "" {
		risk := models.RiskLevel(riskParam)
		if !risk.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid risk level"})
			return
		}
		opts.Risks = []models.RiskLevel{risk}
	}
	if limitParam := c.Query("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit <= 0 || limit > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		opts.Limit = limit
	}

	results, err := h.interactionService.Search(c.Request.Context(), query, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search interactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

type CheckFoodRequest struct {
	FoodName string `json:"food_name" binding:"required"`
}

// CheckFood is the fast verdict path: no LLM call, just the most severe
// rule between the food and the user's registered drugs.
func (h *InteractionHandler) CheckFood(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CheckFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.drugService.CheckFood(c.Request.Context(), userID.(uuid.UUID), req.FoodName)
	if err != nil {
		if errors.Is(err, service.ErrNoRegisteredDrugs) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "no registered drugs",
				"message": "먼저 복용 중인 약물을 등록해주세요.",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check food"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Warnings answers GET /interactions/warnings?risk=... with the union of
// rules across every drug the user has registered, worst risk first.
func (h *InteractionHandler) Warnings(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var risks []models.RiskLevel
	if riskParam := c.Query("risk"); riskParam != "" {
		risk := models.RiskLevel(riskParam)
		if !risk.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid risk level"})
			return
		}
		risks = []models.RiskLevel{risk}
	}

	names, err := h.drugService.DrugNames(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load registered drugs"})
		return
	}

	results, err := h.interactionService.InteractionsForDrugs(c.Request.Context(), names, risks)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up warnings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"drugs": names, "warnings": results, "count": len(results)})
}

func (h *InteractionHandler) Stats(c *gin.Context) {
	stats, err := h.interactionService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
