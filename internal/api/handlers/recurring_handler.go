package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alairock/kash-money/internal/api/middleware"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/services"
)

// RecurringHandler handles recurring expense template requests.
type RecurringHandler struct {
	recurringService services.IRecurringService
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.IRecurringService) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService}
}

type recurringRequest struct {
	Name        string  `json:"name" binding:"required"`
	Amount      float64 `json:"amount"`
	Link        string  `json:"link"`
	Note        string  `json:"note"`
	IsAutomatic bool    `json:"is_automatic"`
	Order       float64 `json:"order"`
}

type reorderRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// List returns all templates in display order.
func (h *RecurringHandler) List(c *gin.Context) {
	templates, err := h.recurringService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// Create adds a new template.
func (h *RecurringHandler) Create(c *gin.Context) {
	var req recurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template := &models.RecurringExpenseTemplate{
		Name:        req.Name,
		Amount:      req.Amount,
		Link:        req.Link,
		Note:        req.Note,
		IsAutomatic: req.IsAutomatic,
		Order:       req.Order,
	}

	created, err := h.recurringService.Create(c.Request.Context(), middleware.UserID(c), template)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": created})
}

// Update changes a template's fields.
func (h *RecurringHandler) Update(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.recurringService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": template})
}

// Reorder rewrites the order field of the given templates to match the
// submitted sequence.
func (h *RecurringHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.recurringService.Reorder(c.Request.Context(), middleware.UserID(c), req.IDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Templates reordered"})
}

// Delete removes a template. Budgets that already copied it keep their copy.
func (h *RecurringHandler) Delete(c *gin.Context) {
	if err := h.recurringService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted"})
}
