// Package contact relays contact form submissions by email after human
// verification.
package contact

import (
	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/middleware"
)

// ContactModule implements the app.Module interface for the contact form.
type ContactModule struct {
	handler     *ContactHandler
	pageHandler *ContactPageHandler
	limiter     *middleware.RateLimiter
}

// NewModule creates a new ContactModule. limiter may be nil to disable
// rate limiting. Panics if h or ph is nil.
func NewModule(h *ContactHandler, ph *ContactPageHandler, limiter *middleware.RateLimiter) *ContactModule {
	if h == nil {
		panic("contact.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("contact.NewModule: pageHandler must not be nil")
	}
	return &ContactModule{handler: h, pageHandler: ph, limiter: limiter}
}

// RegisterRoutes registers the contact page routes.
func (m *ContactModule) RegisterRoutes(_ *gin.RouterGroup, pages *gin.RouterGroup) {
	pages.GET("/contacto", m.pageHandler.Page)
	pages.GET("/contacto/formulario", m.pageHandler.Form)
	pages.POST("/contacto", m.limit(nil), m.pageHandler.Submit)
}

// RegisterRootRoutes registers POST /api/contacto, which lives outside the
// versioned API group.
func (m *ContactModule) RegisterRootRoutes(r gin.IRouter) {
	r.POST("/api/contacto", m.limit(rateLimited), m.handler.Submit)
}

func (m *ContactModule) limit(onLimit gin.HandlerFunc) gin.HandlerFunc {
	if m.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return m.limiter.Middleware(onLimit)
}
