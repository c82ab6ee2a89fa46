package contact

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
)

// PageOptions configures the contact page.
type PageOptions struct {
	SiteKey    string
	ResetAfter time.Duration
}

// ContactPageHandler renders the contact page and its htmx form.
type ContactPageHandler struct {
	svc  *ContactService
	opts PageOptions
}

// NewContactPageHandler creates a new ContactPageHandler.
func NewContactPageHandler(svc *ContactService, opts PageOptions) *ContactPageHandler {
	if opts.ResetAfter <= 0 {
		opts.ResetAfter = 5 * time.Second
	}
	return &ContactPageHandler{svc: svc, opts: opts}
}

func (h *ContactPageHandler) formData(c *gin.Context, state State, form domain.ContactSubmission) gin.H {
	return middleware.PageData(c, gin.H{
		"Title":        "Contacto",
		"State":        state,
		"Form":         form,
		"Reasons":      domain.ContactReasons,
		"SiteKey":      h.opts.SiteKey,
		"ResetAfterMs": h.opts.ResetAfter.Milliseconds(),
	})
}

// Page renders the contact page with an idle form.
// GET /contacto
func (h *ContactPageHandler) Page(c *gin.Context) {
	c.HTML(http.StatusOK, "contact/page.html",
		h.formData(c, State{Status: StatusIdle}, domain.ContactSubmission{}))
}

// Form renders the idle form partial; the success state requests it once
// the reset delay has passed.
// GET /contacto/formulario
func (h *ContactPageHandler) Form(c *gin.Context) {
	c.HTML(http.StatusOK, "contact/form.html",
		h.formData(c, State{Status: StatusIdle}, domain.ContactSubmission{}))
}

// Submit runs the form flow against the contact service and renders the
// resulting state. Values are kept on error and cleared on success.
// POST /contacto
func (h *ContactPageHandler) Submit(c *gin.Context) {
	var form SubmitForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Debug("contact form: bind error", "error", err)
		h.render(c, State{Status: StatusError, Error: missingFieldsMessage}, form.toDomain())
		return
	}
	sub := form.toDomain()
	ip := c.ClientIP()

	flow := NewFlow(SenderFunc(func(ctx context.Context, sub domain.ContactSubmission) (string, error) {
		if _, err := h.svc.Submit(ctx, sub, ip); err != nil {
			return "", errors.New(errorMessage(err))
		}
		return SuccessMessage, nil
	}), 0)
	defer flow.Close()

	state := flow.Submit(c.Request.Context(), sub)
	if state.Status == StatusSuccess {
		sub = domain.ContactSubmission{}
	}
	h.render(c, state, sub)
}

func (h *ContactPageHandler) render(c *gin.Context, state State, form domain.ContactSubmission) {
	form.VerificationToken = ""
	data := h.formData(c, state, form)
	if middleware.IsHTMX(c) {
		c.HTML(http.StatusOK, "contact/form.html", data)
		return
	}
	status := http.StatusOK
	if state.Status == StatusError {
		status = http.StatusBadRequest
	}
	c.HTML(status, "contact/page.html", data)
}
