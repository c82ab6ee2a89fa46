package preference

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/pkg"
)

// PreferenceHandler handles REST API requests for visitor preferences.
type PreferenceHandler struct {
	svc domain.PreferenceService
}

// NewPreferenceHandler creates a new PreferenceHandler with the given service.
func NewPreferenceHandler(svc domain.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{svc: svc}
}

// ListFavorites handles GET /api/v1/favorites.
func (h *PreferenceHandler) ListFavorites(c *gin.Context) {
	favs, err := h.svc.Favorites(c.Request.Context(), middleware.GetVisitorID(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, favs)
}

// AddFavorite handles POST /api/v1/favorites.
func (h *PreferenceHandler) AddFavorite(c *gin.Context) {
	var req domain.Favorite
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	favs, err := h.svc.AddFavorite(c.Request.Context(), middleware.GetVisitorID(c), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, pkg.Response{
		Code:    http.StatusCreated,
		Message: "success",
		Data:    favs,
	})
}

// RemoveFavorite handles DELETE /api/v1/favorites/:id.
func (h *PreferenceHandler) RemoveFavorite(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "id is required", nil))
		return
	}

	favs, err := h.svc.RemoveFavorite(c.Request.Context(), middleware.GetVisitorID(c), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, favs)
}

// GetTheme handles GET /api/v1/theme.
func (h *PreferenceHandler) GetTheme(c *gin.Context) {
	theme, err := h.svc.Theme(c.Request.Context(), middleware.GetVisitorID(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, ThemeResponse{Theme: theme})
}

// SetTheme handles PUT /api/v1/theme.
func (h *PreferenceHandler) SetTheme(c *gin.Context) {
	var req ThemeRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	theme := domain.Theme(req.Theme)
	if err := h.svc.SetTheme(c.Request.Context(), middleware.GetVisitorID(c), theme); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, ThemeResponse{Theme: theme})
}
