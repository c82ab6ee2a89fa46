package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
)

const themeContextKey = "theme"

// ThemeSource resolves a visitor's stored theme.
type ThemeSource interface {
	Theme(ctx context.Context, visitor string) (domain.Theme, error)
}

// Theme loads the visitor's theme for page templates. Lookup failures fall
// back to domain.ThemeSystem. It must run after Visitor.
func Theme(src ThemeSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		theme := domain.ThemeSystem
		if src != nil {
			t, err := src.Theme(c.Request.Context(), GetVisitorID(c))
			if err != nil {
				slog.DebugContext(c.Request.Context(), "theme lookup failed", slog.String("error", err.Error()))
			} else {
				theme = t
			}
		}
		c.Set(themeContextKey, theme)
		c.Next()
	}
}

// GetTheme returns the theme set by Theme, or domain.ThemeSystem.
func GetTheme(c *gin.Context) domain.Theme {
	if v, ok := c.Get(themeContextKey); ok {
		if t, ok := v.(domain.Theme); ok {
			return t
		}
	}
	return domain.ThemeSystem
}

// PageData adds the values every layout needs (CSRFToken, Theme, Path) to
// data without overriding keys the handler already set.
func PageData(c *gin.Context, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	defaults := gin.H{
		"CSRFToken": GetCSRFToken(c),
		"Theme":     string(GetTheme(c)),
		"Path":      c.Request.URL.Path,
	}
	for k, v := range defaults {
		if _, ok := data[k]; !ok {
			data[k] = v
		}
	}
	return data
}
