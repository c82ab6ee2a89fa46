package preference

import "github.com/gin-gonic/gin"

// PreferenceModule implements the app.Module interface for visitor preferences.
type PreferenceModule struct {
	handler     *PreferenceHandler
	pageHandler *PreferencePageHandler
}

// NewModule creates a new PreferenceModule with the given handlers.
// Panics if h or ph is nil.
func NewModule(h *PreferenceHandler, ph *PreferencePageHandler) *PreferenceModule {
	if h == nil {
		panic("preference.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("preference.NewModule: pageHandler must not be nil")
	}
	return &PreferenceModule{handler: h, pageHandler: ph}
}

// RegisterRoutes registers favourites and theme API and page routes.
func (m *PreferenceModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/favorites", m.handler.ListFavorites)
	api.POST("/favorites", m.handler.AddFavorite)
	api.DELETE("/favorites/:id", m.handler.RemoveFavorite)
	api.GET("/theme", m.handler.GetTheme)
	api.PUT("/theme", m.handler.SetTheme)

	pages.GET("/favoritos", m.pageHandler.FavoritesPage)
	pages.POST("/favoritos", m.pageHandler.AddFavoriteHTMX)
	pages.DELETE("/favoritos/:id", m.pageHandler.RemoveFavoriteHTMX)
	pages.POST("/tema", m.pageHandler.SetThemeHTMX)
}
