package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alairock/kash-money/internal/api/middleware"
	"github.com/alairock/kash-money/internal/models"
	"github.com/alairock/kash-money/internal/services"
)

// ClientHandler handles billing client requests.
type ClientHandler struct {
	clientService services.IClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService services.IClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

type clientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

// List returns all of the user's clients, ordered by name.
func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clientService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// Get returns one client.
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.clientService.FindByID(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

// Create adds a new client.
func (h *ClientHandler) Create(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client := &models.Client{
		Name:     req.Name,
		Email:    req.Email,
		Address1: req.Address1,
		Address2: req.Address2,
		City:     req.City,
		State:    req.State,
		Zip:      req.Zip,
	}

	created, err := h.clientService.Create(c.Request.Context(), middleware.UserID(c), client)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": created})
}

// Update changes a client's fields.
func (h *ClientHandler) Update(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}

// Delete removes a client. Invoices already issued to it are untouched.
func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.clientService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
}
