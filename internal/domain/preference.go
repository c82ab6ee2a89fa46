package domain

import "context"

// Preference keys stored per visitor.
const (
	PrefCurrency         = "currency"
	PrefDetectedCurrency = "detected_currency"
	PrefFavorites        = "favorites"
	PrefTheme            = "theme"
)

// Preference is one persisted visitor setting.
type Preference struct {
	BaseModel
	VisitorID string `gorm:"size:64;not null;uniqueIndex:idx_pref_visitor_key" json:"visitor_id"`
	Key       string `gorm:"size:64;not null;uniqueIndex:idx_pref_visitor_key" json:"key"`
	Value     string `gorm:"type:text;not null" json:"value"`
}

// PreferenceRepository is the durable per-visitor key/value store.
// Get returns ErrNotFound for a missing key.
type PreferenceRepository interface {
	Get(ctx context.Context, visitor, key string) (string, error)
	GetMany(ctx context.Context, visitor string, keys ...string) (map[string]string, error)
	Set(ctx context.Context, visitor, key, value string) error
	Delete(ctx context.Context, visitor, key string) error
	// Update runs fn on the current value inside a transaction and stores its result.
	Update(ctx context.Context, visitor, key string, fn func(current string, found bool) (string, error)) error
}

// Favorite is the minimal course record kept in a visitor's favourites list.
type Favorite struct {
	ID       string  `json:"_id" binding:"required,max=64"`
	Title    string  `json:"courseTitle" binding:"required,max=200"`
	Slug     string  `json:"slug" binding:"required,max=200"`
	ImageURL string  `json:"imagenURL,omitempty" binding:"omitempty,url"`
	Price    float64 `json:"precio" binding:"gte=0"`
	Currency string  `json:"currency,omitempty" binding:"omitempty,len=3"`
}

// Theme is the visitor's colour scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// PreferenceService manages favourites and theme.
type PreferenceService interface {
	Favorites(ctx context.Context, visitor string) ([]Favorite, error)
	AddFavorite(ctx context.Context, visitor string, fav Favorite) ([]Favorite, error)
	RemoveFavorite(ctx context.Context, visitor, courseID string) ([]Favorite, error)
	Theme(ctx context.Context, visitor string) (Theme, error)
	SetTheme(ctx context.Context, visitor string, theme Theme) error
}
