// Package newsletter subscribes visitors to the mailing list through the
// backend GraphQL mutation.
package newsletter

import (
	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/middleware"
)

// NewsletterModule implements the app.Module interface for newsletter
// signups.
type NewsletterModule struct {
	handler     *NewsletterHandler
	pageHandler *NewsletterPageHandler
	limiter     *middleware.RateLimiter
}

// NewModule creates a new NewsletterModule. limiter may be nil to disable
// rate limiting. Panics if h or ph is nil.
func NewModule(h *NewsletterHandler, ph *NewsletterPageHandler, limiter *middleware.RateLimiter) *NewsletterModule {
	if h == nil {
		panic("newsletter.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("newsletter.NewModule: pageHandler must not be nil")
	}
	return &NewsletterModule{handler: h, pageHandler: ph, limiter: limiter}
}

// RegisterRoutes registers the newsletter API and form routes.
func (m *NewsletterModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.POST("/newsletter", m.limit(), m.handler.Subscribe)

	pages.GET("/newsletter", m.pageHandler.Form)
	pages.POST("/newsletter", m.limit(), m.pageHandler.Submit)
}

func (m *NewsletterModule) limit() gin.HandlerFunc {
	if m.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return m.limiter.Middleware(nil)
}
