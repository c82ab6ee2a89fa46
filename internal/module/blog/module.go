// Package blog serves markdown articles with YAML front matter.
package blog

import "github.com/gin-gonic/gin"

// BlogModule implements the app.Module interface for the blog.
type BlogModule struct {
	handler     *BlogHandler
	pageHandler *BlogPageHandler
}

// NewModule creates a new BlogModule. Panics if h or ph is nil.
func NewModule(h *BlogHandler, ph *BlogPageHandler) *BlogModule {
	if h == nil {
		panic("blog.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("blog.NewModule: pageHandler must not be nil")
	}
	return &BlogModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers the blog API and page routes.
func (m *BlogModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/posts", m.handler.List)
	api.GET("/posts/:slug", m.handler.Get)

	pages.GET("/blog", m.pageHandler.ListPage)
	pages.GET("/blog/:slug", m.pageHandler.PostPage)
}
