package app

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/pkg"
)

var errorTemplates = map[int]string{
	400: "errors/400.html",
	404: "errors/404.html",
	500: "errors/500.html",
}

// renderError answers a failed request in the form the caller expects.
// htmx swaps keep their current content and get an error toast instead,
// browsers get the matching error page and API clients get the JSON
// envelope carrying message.
func renderError(c *gin.Context, code int, message string) {
	accept := strings.ToLower(c.GetHeader("Accept"))
	switch {
	case middleware.IsHTMX(c):
		c.Header("HX-Reswap", "none")
		middleware.ShowToast(c, statusText(code), middleware.ToastError)
		c.Status(code)
	case strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html"):
		c.JSON(code, pkg.Response{Code: code, Message: message})
	case acceptsHTML(c):
		renderHTMLErrorPage(c, code)
	default:
		c.JSON(code, pkg.Response{Code: code, Message: message})
	}
}

// renderHTMLErrorPage renders the page for code, errors/500.html for codes
// without one, and plain text when rendering itself fails.
func renderHTMLErrorPage(c *gin.Context, code int) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(code, "text/plain; charset=utf-8", []byte(fmt.Sprintf("%d %s", code, statusText(code))))
		}
	}()

	tmpl, ok := errorTemplates[code]
	if !ok {
		tmpl = errorTemplates[500]
	}
	c.HTML(code, tmpl, middleware.PageData(c, gin.H{"Status": code}))
}

func acceptsHTML(c *gin.Context) bool {
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "text/html") ||
		strings.Contains(accept, "*/*") ||
		strings.TrimSpace(accept) == ""
}

// statusText is the visitor-facing label for an error status.
func statusText(code int) string {
	switch code {
	case 400:
		return "Solicitud no válida"
	case 403:
		return "Acceso denegado"
	case 404:
		return "Página no encontrada"
	case 408:
		return "La solicitud tardó demasiado"
	case 429:
		return "Demasiadas solicitudes, espera un momento"
	case 500:
		return "Error del servidor"
	default:
		return "Error"
	}
}
