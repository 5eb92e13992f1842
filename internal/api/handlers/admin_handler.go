package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alairock/kash-money/internal/api/middleware"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/services"
)

// AdminHandler exposes the super-admin surface as a single callable
// endpoint: the request names a method and carries its arguments, so adding
// an admin operation never grows the route table.
type AdminHandler struct {
	adminService  services.IAdminService
	configService services.IConfigService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService services.IAdminService, configService services.IConfigService) *AdminHandler {
	return &AdminHandler{adminService: adminService, configService: configService}
}

type adminCallRequest struct {
	Method    string          `json:"method" binding:"required"`
	Arguments json.RawMessage `json:"arguments"`
}

type updateLimitsArgs struct {
	UserID string `json:"user_id" binding:"required"`
	Limits struct {
		Plan               *models.Plan `json:"plan"`
		Clients            *int         `json:"clients"`
		InvoicesPerMonth   *int         `json:"invoices_per_month"`
		BudgetsPerMonth    *int         `json:"budgets_per_month"`
		RecurringTemplates *int         `json:"recurring_templates"`
	} `json:"limits"`
}

type setConfigValueArgs struct {
	Key   string      `json:"key" binding:"required"`
	Value interface{} `json:"value"`
}

// Call dispatches one admin method. The route sits behind AdminMiddleware,
// so a non-admin probing checkAdmin gets a 403 rather than a false — either
// answer tells the frontend not to show the admin UI.
func (h *AdminHandler) Call(c *gin.Context) {
	var req adminCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch req.Method {
	case "checkAdmin":
		c.JSON(http.StatusOK, gin.H{"admin": h.adminService.IsSuperAdmin(middleware.UserEmail(c))})

	case "listAccounts":
		accounts, err := h.adminService.ListAccounts(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accounts": accounts})

	case "updateLimits":
		var args updateLimitsArgs
		if err := json.Unmarshal(req.Arguments, &args); err != nil || args.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "updateLimits requires user_id and limits arguments"})
			return
		}
		overrides := &models.UserLimits{
			Plan:               args.Limits.Plan,
			Clients:            args.Limits.Clients,
			InvoicesPerMonth:   args.Limits.InvoicesPerMonth,
			BudgetsPerMonth:    args.Limits.BudgetsPerMonth,
			RecurringTemplates: args.Limits.RecurringTemplates,
		}
		if err := h.adminService.UpdateAccountLimits(ctx, args.UserID, overrides); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Limits updated"})

	case "dashboardStats":
		stats, err := h.adminService.DashboardStats(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats})

	case "setConfigValue":
		var args setConfigValueArgs
		if err := json.Unmarshal(req.Arguments, &args); err != nil || args.Key == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "setConfigValue requires key and value arguments"})
			return
		}
		if err := h.configService.SetConfigValue(ctx, args.Key, args.Value); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Configuration updated"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown admin method: " + req.Method})
	}
}
