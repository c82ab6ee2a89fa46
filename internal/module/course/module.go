package course

import "github.com/gin-gonic/gin"

// CourseModule implements the app.Module interface for the course catalog.
type CourseModule struct {
	handler     *CourseHandler
	pageHandler *CoursePageHandler
}

// NewModule creates a new CourseModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *CourseHandler, ph *CoursePageHandler) *CourseModule {
	if h == nil {
		panic("course.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("course.NewModule: pageHandler must not be nil")
	}
	return &CourseModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers course API and page routes.
func (m *CourseModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/courses", m.handler.List)
	api.GET("/courses/:id/price", m.handler.Price)
	api.GET("/categories", m.handler.Categories)

	pages.GET("/cursos", m.pageHandler.ListPage)
	pages.GET("/cursos/eventos", m.pageHandler.CatalogEvents)
	pages.GET("/cursos/:slug", m.pageHandler.DetailPage)
	pages.GET("/cursos/:slug/eventos", m.pageHandler.CourseEvents)
}
