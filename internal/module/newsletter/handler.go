package newsletter

import (
	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/pkg"
)

// NewsletterHandler handles the JSON newsletter API.
type NewsletterHandler struct {
	svc *NewsletterService
}

// NewNewsletterHandler creates a new NewsletterHandler.
func NewNewsletterHandler(svc *NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{svc: svc}
}

// Subscribe subscribes an email. A backend rejection answers 422 with the
// backend message.
// POST /api/v1/newsletter
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	res, err := h.svc.Subscribe(c.Request.Context(), req.Email, parseSource(req.Source))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, SubscribeResponse{Success: res.Success, Message: res.Message})
}
