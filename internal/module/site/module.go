// Package site serves the home page, crawler files and the health check.
package site

import "github.com/gin-gonic/gin"

// SiteModule implements the app.Module interface for site-wide pages.
type SiteModule struct {
	handler     *SiteHandler
	pageHandler *SitePageHandler
}

// NewModule creates a new SiteModule. Panics if h or ph is nil.
func NewModule(h *SiteHandler, ph *SitePageHandler) *SiteModule {
	if h == nil {
		panic("site.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("site.NewModule: pageHandler must not be nil")
	}
	return &SiteModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers the home page routes.
func (m *SiteModule) RegisterRoutes(_ *gin.RouterGroup, pages *gin.RouterGroup) {
	pages.GET("/", m.pageHandler.Home)
	pages.GET("/destacados", m.pageHandler.Featured)
}

// RegisterRootRoutes registers crawler files and the health check outside
// the page group.
func (m *SiteModule) RegisterRootRoutes(r gin.IRouter) {
	r.GET("/robots.txt", m.handler.Robots)
	r.GET("/sitemap-index.xml", m.handler.SitemapIndex)
	r.GET("/sitemap-0.xml", m.handler.Sitemap)
	r.GET("/health", m.handler.Health)
}
