package site

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/seo"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// SiteHandler serves crawler files and the health check.
type SiteHandler struct {
	svc    *SiteService
	site   seo.Site
	checks []HealthCheck
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(svc *SiteService, site seo.Site, checks ...HealthCheck) *SiteHandler {
	return &SiteHandler{svc: svc, site: site, checks: checks}
}

// Robots serves robots.txt.
// GET /robots.txt
func (h *SiteHandler) Robots(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.String(http.StatusOK, seo.Robots(h.site.URL))
}

// SitemapIndex serves the sitemap index.
// GET /sitemap-index.xml
func (h *SiteHandler) SitemapIndex(c *gin.Context) {
	body, err := h.site.SitemapIndex()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "render sitemap index failed", slog.String("error", err.Error()))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// Sitemap serves the URL set.
// GET /sitemap-0.xml
func (h *SiteHandler) Sitemap(c *gin.Context) {
	body, err := seo.Sitemap(h.svc.SitemapURLs(c.Request.Context()))
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "render sitemap failed", slog.String("error", err.Error()))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// Health reports the status of every probed dependency. Any failure
// answers 503 with status "degraded".
// GET /health
func (h *SiteHandler) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	components := gin.H{}

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		err := check.Check(ctx)
		cancel()
		if err != nil {
			slog.WarnContext(c.Request.Context(), "health check failed",
				slog.String("component", check.Name),
				slog.String("error", err.Error()),
			)
			components[check.Name] = "error"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		components[check.Name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":     status,
		"components": components,
	})
}
