package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alairock/kash-money/internal/services"
)

// respondError maps service errors onto HTTP status codes. Not-found and
// cross-tenant misses are indistinguishable on purpose: both come back as
// mongo.ErrNoDocuments from the services and both become a plain 404.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrInvoicePaid):
		c.JSON(http.StatusConflict, gin.H{"error": "Paid invoices cannot be modified", "code": "invoice_paid_locked"})
	case services.IsLimitError(err):
		var le *services.LimitError
		errors.As(err, &le)
		c.JSON(http.StatusForbidden, gin.H{
			"error": le.Error(),
			"code":  le.Code,
			"kind":  le.Kind,
			"limit": le.Limit,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
