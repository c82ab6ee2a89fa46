package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

const (
	// VisitorCookie names the opaque cookie keying per-visitor preferences.
	VisitorCookie = "iq_visitor"

	visitorContextKey = "visitor_id"
	visitorMaxAge     = 365 * 24 * time.Hour
)

// Visitor assigns every browser a stable random identifier. A missing or
// malformed cookie is replaced with a fresh UUID. The id is stored in
// gin.Context and attached to the request context as the visitor_id log
// attribute.
func Visitor(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(VisitorCookie)
		if err != nil || !validVisitorID(id) {
			id = uuid.NewString()
		}
		// Refresh on every response so the cookie slides forward.
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     VisitorCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(visitorMaxAge / time.Second),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})

		c.Set(visitorContextKey, id)
		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("visitor_id", id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetVisitorID returns the visitor id set by Visitor, or "" when absent.
func GetVisitorID(c *gin.Context) string {
	if id, exists := c.Get(visitorContextKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

func validVisitorID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.Version() == 4 && len(id) == 36
}
