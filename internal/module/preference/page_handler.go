package preference

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
)

// PreferencePageHandler handles the favourites page and the htmx endpoints
// for favourites and theme.
type PreferencePageHandler struct {
	svc domain.PreferenceService
}

// NewPreferencePageHandler creates a new PreferencePageHandler with the given service.
func NewPreferencePageHandler(svc domain.PreferenceService) *PreferencePageHandler {
	return &PreferencePageHandler{svc: svc}
}

// FavoritesPage renders the visitor's favourites.
// GET /favoritos
func (h *PreferencePageHandler) FavoritesPage(c *gin.Context) {
	favs, err := h.svc.Favorites(c.Request.Context(), middleware.GetVisitorID(c))
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "load favorites failed", slog.String("error", err.Error()))
		c.HTML(http.StatusInternalServerError, "errors/500.html", middleware.PageData(c, nil))
		return
	}

	c.HTML(http.StatusOK, "preference/favorites.html", middleware.PageData(c, gin.H{
		"Title":     "Mis cursos favoritos",
		"Favorites": favs,
	}))
}

// AddFavoriteHTMX saves a course from a card's favourite button and
// returns the button in its saved state.
// POST /favoritos
func (h *PreferencePageHandler) AddFavoriteHTMX(c *gin.Context) {
	var form FavoriteForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Debug("add favorite: bind error", "error", err)
		c.Header("HX-Reswap", "none")
		middleware.ShowToast(c, "No se pudo guardar el curso.", middleware.ToastError)
		c.Status(http.StatusOK)
		return
	}

	fav := form.toDomain()
	if _, err := h.svc.AddFavorite(c.Request.Context(), middleware.GetVisitorID(c), fav); err != nil {
		c.Header("HX-Reswap", "none")
		middleware.ShowToast(c, domain.UserMessage(err, "No se pudo guardar el curso."), middleware.ToastError)
		c.Status(http.StatusOK)
		return
	}

	middleware.ShowToast(c, "Curso agregado a favoritos", middleware.ToastSuccess)
	c.HTML(http.StatusOK, "preference/favorite_button.html", middleware.PageData(c, gin.H{
		"Favorite": fav,
		"Saved":    true,
	}))
}

// RemoveFavoriteHTMX removes a course. From the favourites page the card
// is dropped (empty response); from a course card the button flips back.
// DELETE /favoritos/:id
func (h *PreferencePageHandler) RemoveFavoriteHTMX(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	favs, err := h.svc.RemoveFavorite(c.Request.Context(), middleware.GetVisitorID(c), id)
	if err != nil {
		c.Header("HX-Reswap", "none")
		middleware.ShowToast(c, domain.UserMessage(err, "No se pudo quitar el curso."), middleware.ToastError)
		c.Status(http.StatusOK)
		return
	}

	middleware.ShowToast(c, "Curso quitado de favoritos", middleware.ToastInfo)
	if c.Query("vista") == "lista" {
		if len(favs) == 0 {
			c.Header("HX-Refresh", "true")
		}
		c.Status(http.StatusOK)
		return
	}

	var form FavoriteForm
	_ = c.ShouldBindQuery(&form)
	form.ID = id
	c.HTML(http.StatusOK, "preference/favorite_button.html", middleware.PageData(c, gin.H{
		"Favorite": form.toDomain(),
		"Saved":    false,
	}))
}

// SetThemeHTMX stores the theme chosen in the toggle. The layout applies it
// from the themeChanged event.
// POST /tema
func (h *PreferencePageHandler) SetThemeHTMX(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Header("HX-Reswap", "none")
		middleware.ShowToast(c, "Tema no válido", middleware.ToastError)
		c.Status(http.StatusOK)
		return
	}

	if err := h.svc.SetTheme(c.Request.Context(), middleware.GetVisitorID(c), domain.Theme(req.Theme)); err != nil {
		c.Header("HX-Reswap", "none")
		middleware.ShowToast(c, domain.UserMessage(err, "No se pudo guardar el tema."), middleware.ToastError)
		c.Status(http.StatusOK)
		return
	}

	c.Header("HX-Trigger", `{"themeChanged":"`+req.Theme+`"}`)
	c.Status(http.StatusNoContent)
}
