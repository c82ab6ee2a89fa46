// Package currency exposes the visitor's currency over HTTP: a JSON API,
// a server-sent event stream and the htmx selector.
package currency

import "github.com/gin-gonic/gin"

// CurrencyModule implements the app.Module interface for currency selection.
type CurrencyModule struct {
	handler     *CurrencyHandler
	pageHandler *CurrencyPageHandler
}

// NewModule creates a new CurrencyModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *CurrencyHandler, ph *CurrencyPageHandler) *CurrencyModule {
	if h == nil {
		panic("currency.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("currency.NewModule: pageHandler must not be nil")
	}
	return &CurrencyModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers currency API and page routes.
func (m *CurrencyModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/currency", m.handler.State)
	api.POST("/currency", m.handler.Select)
	api.GET("/currency/events", m.handler.Events)

	pages.GET("/moneda", m.pageHandler.Selector)
	pages.POST("/moneda", m.pageHandler.SelectHTMX)
}
