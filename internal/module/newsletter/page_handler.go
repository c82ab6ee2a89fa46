package newsletter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
)

// NewsletterPageHandler renders the htmx newsletter form partial used by
// the footer and the blog section.
type NewsletterPageHandler struct {
	svc        *NewsletterService
	resetAfter time.Duration
}

// NewNewsletterPageHandler creates a new NewsletterPageHandler. A
// non-positive resetAfter defaults to five seconds.
func NewNewsletterPageHandler(svc *NewsletterService, resetAfter time.Duration) *NewsletterPageHandler {
	if resetAfter <= 0 {
		resetAfter = 5 * time.Second
	}
	return &NewsletterPageHandler{svc: svc, resetAfter: resetAfter}
}

// Form renders an idle form.
// GET /newsletter?source=BLOG_SECTION
func (h *NewsletterPageHandler) Form(c *gin.Context) {
	h.render(c, State{Status: StatusIdle}, h.source(c.Query("source")))
}

// Submit runs the subscription flow and renders the resulting state.
// POST /newsletter
func (h *NewsletterPageHandler) Submit(c *gin.Context) {
	var form SubscribeForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Debug("newsletter form: bind error", "error", err)
		h.render(c, State{Status: StatusError, Email: form.Email, Message: invalidEmailMessage}, h.source(form.Source))
		return
	}
	source := h.source(form.Source)

	flow := NewFlow(h.svc, source, 0)
	defer flow.Close()
	flow.SetEmail(form.Email)

	h.render(c, flow.Submit(c.Request.Context()), source)
}

func (h *NewsletterPageHandler) source(s string) domain.NewsletterSource {
	if src := parseSource(s); src != "" {
		return src
	}
	return h.svc.source
}

func (h *NewsletterPageHandler) render(c *gin.Context, state State, source domain.NewsletterSource) {
	c.HTML(http.StatusOK, "newsletter/form.html", middleware.PageData(c, gin.H{
		"State":        state,
		"Source":       string(source),
		"ResetAfterMs": h.resetAfter.Milliseconds(),
	}))
}
