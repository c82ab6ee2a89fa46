package contact

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
)

// ContactHandler serves the JSON contact endpoint. Its responses keep the
// {success, message|error} shape existing form clients read.
type ContactHandler struct {
	svc *ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// Submit handles POST /api/contacto.
func (h *ContactHandler) Submit(c *gin.Context) {
	if !h.svc.Configured() {
		c.JSON(http.StatusInternalServerError, SubmitResponse{Error: notConfiguredMessage})
		return
	}

	var sub domain.ContactSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		slog.Debug("contact: bind error", "error", err)
		c.JSON(http.StatusBadRequest, SubmitResponse{Error: requiredMessage})
		return
	}

	receipt, err := h.svc.Submit(c.Request.Context(), sub, c.ClientIP())
	if err != nil {
		c.JSON(domain.HTTPStatusCode(err), SubmitResponse{Error: errorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, SubmitResponse{Success: true, Message: SuccessMessage, TicketID: receipt.TicketID})
}

// rateLimited answers a throttled API request in the endpoint's own shape.
func rateLimited(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, SubmitResponse{Error: middleware.RateLimitMessage})
}
