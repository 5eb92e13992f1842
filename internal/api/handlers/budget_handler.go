package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alairock/kash-money/internal/api/middleware"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/services"
)

// BudgetHandler handles budget and budget line item requests.
type BudgetHandler struct {
	budgetService services.IBudgetService
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.IBudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

type createBudgetRequest struct {
	Name             string  `json:"name" binding:"required"`
	StartingAmount   float64 `json:"starting_amount"`
	IncludeRecurring *bool   `json:"include_recurring"`
}

type updateBudgetRequest struct {
	Name           *string  `json:"name"`
	StartingAmount *float64 `json:"starting_amount"`
}

type lineItemRequest struct {
	Status      models.LineItemStatus `json:"status"`
	Name        string                `json:"name" binding:"required"`
	Amount      float64               `json:"amount"`
	Link        string                `json:"link"`
	Note        string                `json:"note"`
	IsRecurring bool                  `json:"is_recurring"`
	IsMarked    bool                  `json:"is_marked"`
}

// budgetResponse decorates a budget with its derived totals so clients never
// recompute them.
func budgetResponse(b *models.Budget) gin.H {
	return gin.H{"budget": b, "totals": b.Totals()}
}

// Create makes a new budget, copying recurring templates in unless the
// request opts out.
func (h *BudgetHandler) Create(c *gin.Context) {
	var req createBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	includeRecurring := true
	if req.IncludeRecurring != nil {
		includeRecurring = *req.IncludeRecurring
	}

	budget, err := h.budgetService.Create(c.Request.Context(), middleware.UserID(c), req.Name, req.StartingAmount, includeRecurring)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, budgetResponse(budget))
}

// List returns a page of the user's budgets, newest first.
func (h *BudgetHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	var cursor *string
	if v := c.Query("cursor"); v != "" {
		cursor = &v
	}

	budgets, next, err := h.budgetService.List(c.Request.Context(), middleware.UserID(c), limit, cursor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": budgets, "next_cursor": next})
}

// Get returns one budget with its totals.
func (h *BudgetHandler) Get(c *gin.Context) {
	budget, err := h.budgetService.FindByID(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budgetResponse(budget))
}

// Update changes a budget's name or starting amount.
func (h *BudgetHandler) Update(c *gin.Context) {
	var req updateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.StartingAmount != nil {
		updates["starting_amount"] = *req.StartingAmount
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	budget, err := h.budgetService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budgetResponse(budget))
}

// Delete removes a budget.
func (h *BudgetHandler) Delete(c *gin.Context) {
	if err := h.budgetService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted"})
}

// AddLineItem appends a line item to a budget.
func (h *BudgetHandler) AddLineItem(c *gin.Context) {
	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.BudgetLineItem{
		Status:      req.Status,
		Name:        req.Name,
		Amount:      req.Amount,
		Link:        req.Link,
		Note:        req.Note,
		IsRecurring: req.IsRecurring,
		IsMarked:    req.IsMarked,
	}
	if item.Status == "" {
		item.Status = models.LineItemIncomplete
	}

	budget, err := h.budgetService.AddLineItem(c.Request.Context(), middleware.UserID(c), c.Param("id"), item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, budgetResponse(budget))
}

// UpdateLineItem replaces a line item within a budget.
func (h *BudgetHandler) UpdateLineItem(c *gin.Context) {
	var req lineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.BudgetLineItem{
		ID:          c.Param("itemId"),
		Status:      req.Status,
		Name:        req.Name,
		Amount:      req.Amount,
		Link:        req.Link,
		Note:        req.Note,
		IsRecurring: req.IsRecurring,
		IsMarked:    req.IsMarked,
	}

	budget, err := h.budgetService.UpdateLineItem(c.Request.Context(), middleware.UserID(c), c.Param("id"), item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budgetResponse(budget))
}

// RemoveLineItem deletes a line item from a budget.
func (h *BudgetHandler) RemoveLineItem(c *gin.Context) {
	budget, err := h.budgetService.RemoveLineItem(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budgetResponse(budget))
}
