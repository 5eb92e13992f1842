package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/alairock/kash-money/internal/api/middleware"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/pdf"
	"github.com/alairock/kash-money/internal/services"
	"github.com/alairock/kash-money/internal/tasks"
)

// InvoiceHandler handles invoice requests.
type InvoiceHandler struct {
	invoiceService  services.IInvoiceService
	clientService   services.IClientService
	settingsService services.ISettingsService
	taskClient      *asynq.Client
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(
	invoiceService services.IInvoiceService,
	clientService services.IClientService,
	settingsService services.ISettingsService,
	taskClient *asynq.Client,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:  invoiceService,
		clientService:   clientService,
		settingsService: settingsService,
		taskClient:      taskClient,
	}
}

type invoiceLineItemRequest struct {
	ID          string  `json:"id"`
	Description string  `json:"description" binding:"required"`
	Hours       float64 `json:"hours" binding:"min=0"`
	Rate        float64 `json:"rate" binding:"min=0"`
}

type createInvoiceRequest struct {
	ClientID  string                   `json:"client_id" binding:"required"`
	LineItems []invoiceLineItemRequest `json:"line_items" binding:"required,min=1"`
}

type updateInvoiceRequest struct {
	LineItems []invoiceLineItemRequest `json:"line_items" binding:"required,min=1"`
}

type setStatusRequest struct {
	Status models.InvoiceStatus `json:"status" binding:"required,oneof=draft sent paid archived"`
}

type sendInvoiceRequest struct {
	Cc []string `json:"cc"`
}

func toLineItems(reqs []invoiceLineItemRequest) []models.InvoiceLineItem {
	items := make([]models.InvoiceLineItem, len(reqs))
	for i, r := range reqs {
		items[i] = models.InvoiceLineItem{
			ID:          r.ID,
			Description: r.Description,
			Hours:       r.Hours,
			Rate:        r.Rate,
		}
	}
	return items
}

// List returns a page of the user's invoices, newest first, optionally
// filtered by status.
func (h *InvoiceHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	var cursor *string
	if v := c.Query("cursor"); v != "" {
		cursor = &v
	}
	var status *models.InvoiceStatus
	if v := c.Query("status"); v != "" {
		s := models.InvoiceStatus(v)
		status = &s
	}

	invoices, next, err := h.invoiceService.List(c.Request.Context(), middleware.UserID(c), status, limit, cursor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "next_cursor": next})
}

// Get returns one invoice.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.invoiceService.FindByID(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// Create issues a new draft invoice with the next sequential number.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), middleware.UserID(c), req.ClientID, toLineItems(req.LineItems))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
}

// Update replaces an invoice's line items and recomputes its total.
func (h *InvoiceHandler) Update(c *gin.Context) {
	var req updateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoiceService.UpdateLineItems(c.Request.Context(), middleware.UserID(c), c.Param("id"), toLineItems(req.LineItems))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// SetStatus moves an invoice through its lifecycle.
func (h *InvoiceHandler) SetStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoiceService.SetStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// Send queues the invoice for email delivery to its client.
func (h *InvoiceHandler) Send(c *gin.Context) {
	var req sendInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	invoiceID := c.Param("id")

	// Validate existence and the paid guard up front so the caller gets a
	// synchronous error instead of a silently dropped task.
	invoice, err := h.invoiceService.FindByID(c.Request.Context(), userID, invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	if invoice.Status == models.InvoicePaid {
		respondError(c, services.ErrInvoicePaid)
		return
	}

	err = tasks.EnqueueInvoiceEmail(h.taskClient, tasks.InvoiceEmailPayload{
		UserID:    userID,
		InvoiceID: invoiceID,
		Cc:        req.Cc,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": fmt.Sprintf("Invoice %s queued for delivery", invoice.Number)})
}

// Pdf renders the invoice as a PDF and streams it back.
func (h *InvoiceHandler) Pdf(c *gin.Context) {
	userID := middleware.UserID(c)

	invoice, err := h.invoiceService.FindByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	client, err := h.clientService.FindByID(c.Request.Context(), userID, invoice.ClientID)
	if err != nil {
		respondError(c, err)
		return
	}
	company, err := h.settingsService.GetCompanySettings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	pdfBytes, err := pdf.RenderInvoice(invoice, client, company)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, invoice.Number))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// Delete removes an invoice. Paid invoices are refused.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	if err := h.invoiceService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}
