package site

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/price"
	"github.com/iqengi/site/internal/seo"
)

const featuredFailedMessage = "No se pudieron actualizar los cursos destacados."

// SitePageHandler renders the home page.
type SitePageHandler struct {
	svc      *SiteService
	currency domain.CurrencyService
	site     seo.Site
}

// NewSitePageHandler creates a new SitePageHandler.
func NewSitePageHandler(svc *SiteService, currency domain.CurrencyService, site seo.Site) *SitePageHandler {
	return &SitePageHandler{svc: svc, currency: currency, site: site}
}

// Home renders the landing page. When the featured courses cannot be
// fetched the page still renders and the section loads itself later.
// GET /
func (h *SitePageHandler) Home(c *gin.Context) {
	code := h.visitorCurrency(c)
	featured, err := h.svc.Featured(c.Request.Context(), code)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "load featured courses failed", slog.String("error", err.Error()))
	}

	c.HTML(http.StatusOK, "home.html", middleware.PageData(c, gin.H{
		"Title":          "Inicio",
		"Featured":       featured,
		"FeaturedFailed": err != nil,
		"Currency":       code,
		"Price":          price.Formatter{Tag: price.Negotiate(c.GetHeader("Accept-Language"))},
		"JSONLD":         h.site.Home().Script(),
	}))
}

// Featured renders the featured section in the visitor's current
// currency. A failure keeps what the visitor already sees.
// GET /destacados
func (h *SitePageHandler) Featured(c *gin.Context) {
	code := h.visitorCurrency(c)
	featured, err := h.svc.Featured(c.Request.Context(), code)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "refresh featured courses failed", slog.String("error", err.Error()))
		c.Header("HX-Reswap", "none")
		middleware.ShowToast(c, featuredFailedMessage, middleware.ToastError)
		c.Status(http.StatusOK)
		return
	}
	c.HTML(http.StatusOK, "site/featured.html", middleware.PageData(c, gin.H{
		"Featured": featured,
		"Currency": code,
		"Price":    price.Formatter{Tag: price.Negotiate(c.GetHeader("Accept-Language"))},
	}))
}

func (h *SitePageHandler) visitorCurrency(c *gin.Context) string {
	state, err := h.currency.State(c.Request.Context(), middleware.GetVisitorID(c), middleware.CurrencyHints(c))
	if err == nil && state.Currency != "" {
		return state.Currency
	}
	if supported := h.currency.Supported(); len(supported) > 0 {
		return supported[0]
	}
	return "USD"
}
