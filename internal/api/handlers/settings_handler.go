package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alairock/kash-money/internal/api/middleware"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/services"
)

// SettingsHandler handles company settings, effective plan limits, and the
// invoice counter.
type SettingsHandler struct {
	settingsService services.ISettingsService
	limitService    services.ILimitService
	numberService   services.IInvoiceNumberService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(
	settingsService services.ISettingsService,
	limitService services.ILimitService,
	numberService services.IInvoiceNumberService,
) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		limitService:    limitService,
		numberService:   numberService,
	}
}

type companySettingsRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	OwnerName   string `json:"owner_name"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
}

type setCounterRequest struct {
	Year  int `json:"year" binding:"required"`
	Count int `json:"count" binding:"min=0"`
}

// GetCompany returns the user's company settings, empty if never saved.
func (h *SettingsHandler) GetCompany(c *gin.Context) {
	settings, err := h.settingsService.GetCompanySettings(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// PutCompany replaces the user's company settings.
func (h *SettingsHandler) PutCompany(c *gin.Context) {
	var req companySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := &models.CompanySettings{
		CompanyName: req.CompanyName,
		OwnerName:   req.OwnerName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address1:    req.Address1,
		Address2:    req.Address2,
		City:        req.City,
		State:       req.State,
		Zip:         req.Zip,
	}
	if err := h.settingsService.SetCompanySettings(c.Request.Context(), middleware.UserID(c), settings); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// GetLimits returns the user's effective limits and current usage.
func (h *SettingsHandler) GetLimits(c *gin.Context) {
	userID := middleware.UserID(c)
	limits, err := h.limitService.ResolveLimits(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	usage, err := h.limitService.Usage(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"limits": limits, "usage": usage})
}

// GetCounter returns the user's invoice counter state. A user who has never
// issued an invoice gets a zero counter for the current year rather than 404.
func (h *SettingsHandler) GetCounter(c *gin.Context) {
	counter, err := h.numberService.GetCounter(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusOK, gin.H{"counter": nil})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counter": counter})
}

// PutCounter rewrites the counter, repositioning the next invoice number.
// Renumbering can collide with existing invoice numbers; the unique index on
// (user_id, number) rejects the eventual duplicate at issue time.
func (h *SettingsHandler) PutCounter(c *gin.Context) {
	var req setCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.numberService.SetCounter(c.Request.Context(), middleware.UserID(c), req.Year, req.Count); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"counter": gin.H{"year": req.Year, "count": req.Count},
		"next":    services.FormatInvoiceNumber(req.Year, req.Count+1),
	})
}
