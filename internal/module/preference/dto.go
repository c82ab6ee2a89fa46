package preference

import "github.com/iqengi/site/internal/domain"

// FavoriteForm is the htmx form variant of domain.Favorite.
type FavoriteForm struct {
	ID       string  `form:"_id" binding:"required,max=64"`
	Title    string  `form:"courseTitle" binding:"required,max=200"`
	Slug     string  `form:"slug" binding:"required,max=200"`
	ImageURL string  `form:"imagenURL" binding:"omitempty,url"`
	Price    float64 `form:"precio" binding:"gte=0"`
	Currency string  `form:"currency" binding:"omitempty,len=3"`
}

func (f FavoriteForm) toDomain() domain.Favorite {
	return domain.Favorite{
		ID:       f.ID,
		Title:    f.Title,
		Slug:     f.Slug,
		ImageURL: f.ImageURL,
		Price:    f.Price,
		Currency: f.Currency,
	}
}

// ThemeRequest is the body of PUT /api/v1/theme and POST /tema.
type ThemeRequest struct {
	Theme string `json:"theme" form:"theme" binding:"required,oneof=light dark system"`
}

// ThemeResponse reports the active theme.
type ThemeResponse struct {
	Theme domain.Theme `json:"theme"`
}
