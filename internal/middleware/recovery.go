package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
)

// Recovery returns a gin middleware that recovers from panics, logs the value
// with its stack and answers in the form the caller expects:
//   - htmx requests get an empty 500 with HX-Reswap: none and an error toast,
//     so the swapped fragment keeps its last good content;
//   - requests accepting text/html get errors/500.html;
//   - everything else gets the JSON envelope
//     {"code": 500, "message": "internal server error", "data": null}.
//
// Nothing is written when the handler had already started a response, as
// happens with event streams.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					slog.Any("panic", err),
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				c.Abort()
				if c.Writer.Written() {
					return
				}

				switch {
				case IsHTMX(c):
					c.Header("HX-Reswap", "none")
					ShowToast(c, "Ocurrió un error inesperado. Inténtalo de nuevo.", ToastError)
					c.Status(http.StatusInternalServerError)
				case acceptsHTML(c):
					renderHTMLError(c)
				default:
					c.JSON(http.StatusInternalServerError, gin.H{
						"code":    http.StatusInternalServerError,
						"message": "internal server error",
						"data":    nil,
					})
				}
			}
		}()
		c.Next()
	}
}

// renderHTMLError renders errors/500.html, falling back to plain text when no
// HTML renderer is configured or rendering fails.
func renderHTMLError(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
		}
	}()
	c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
}

func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html")
}
