package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yakgung/drugfood-guard/backend/internal/service"
)

// DrugHandler serves the user's registered-drug list.
type DrugHandler struct {
	drugService        *service.DrugService
	interactionService *service.InteractionService
}

func NewDrugHandler(drugService *service.DrugService, interactionService *service.InteractionService) *DrugHandler {
	return &DrugHandler{
		drugService:        drugService,
		interactionService: interactionService,
	}
}

// RegisterRoutes registers the drug routes on an authenticated group.
func (h *DrugHandler) RegisterRoutes(router *gin.RouterGroup) {
	drugs := router.Group("/drugs")
	{
		drugs.POST("", h.RegisterDrug)
		drugs.GET("", h.ListDrugs)
		drugs.DELETE("", h.ClearDrugs)
		drugs.DELETE("/:name", h.RemoveDrug)
		drugs.GET("/:name/warnings", h.DrugWarnings)
	}
}

func (h *DrugHandler) RegisterDrug(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req service.RegisterDrugInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	drug, err := h.drugService.RegisterDrug(c.Request.Context(), userID.(uuid.UUID), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register drug"})
		return
	}

	c.JSON(http.StatusCreated, drug)
}

func (h *DrugHandler) ListDrugs(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	drugs, err := h.drugService.ListDrugs(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list drugs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"drugs": drugs, "count": len(drugs)})
}

func (h *DrugHandler) RemoveDrug(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	name := c.Param("name")
	err := h.drugService.RemoveDrug(c.Request.Context(), userID.(uuid.UUID), name)
	if err != nil {
		if errors.Is(err, service.ErrDrugNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "drug not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove drug"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "drug removed"})
}

func (h *DrugHandler) ClearDrugs(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	removed, err := h.drugService.ClearDrugs(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear drugs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "drugs cleared", "removed": removed})
}

// DrugWarnings returns the foods to avoid and the foods known safe for one
// drug, independent of who registered it.
func (h *DrugHandler) DrugWarnings(c *gin.Context) {
	name := c.Param("name")

	dangerous, err := h.interactionService.DangerousFoodsForDrug(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up warnings"})
		return
	}

	safe, err := h.interactionService.SafeFoodsForDrug(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up warnings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drug_name":       name,
		"dangerous_foods": dangerous,
		"safe_foods":      safe,
	})
}
