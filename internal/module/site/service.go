package site

import (
	"context"
	"log/slog"
	"time"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/seo"
)

// FeaturedSource ranks courses for the home page.
type FeaturedSource interface {
	Popular(ctx context.Context, currency string, n int) ([]domain.Course, error)
}

// CourseLister pages through the catalog.
type CourseLister interface {
	List(ctx context.Context, offset, limit int, currency string) ([]domain.Course, error)
}

// PostLister lists published blog posts.
type PostLister interface {
	List(ctx context.Context) []domain.Post
}

// staticPages are the indexable pages that exist regardless of content.
var staticPages = []string{"/", "/cursos", "/blog", "/contacto"}

const (
	sitemapBatch      = 100
	sitemapMaxBatches = 50
)

// Config configures the site service.
type Config struct {
	FeaturedLimit int
	// SitemapCurrency prices the listing used to enumerate course slugs.
	SitemapCurrency string
}

// SiteService assembles the home page and crawler files.
type SiteService struct {
	featured FeaturedSource
	courses  CourseLister
	posts    PostLister
	site     seo.Site
	cfg      Config
	logger   *slog.Logger
}

// NewSiteService creates a SiteService. courses and posts may be nil, in
// which case the sitemap omits them.
func NewSiteService(featured FeaturedSource, courses CourseLister, posts PostLister, site seo.Site, cfg Config, logger *slog.Logger) *SiteService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FeaturedLimit <= 0 {
		cfg.FeaturedLimit = 3
	}
	if cfg.SitemapCurrency == "" {
		cfg.SitemapCurrency = "USD"
	}
	return &SiteService{featured: featured, courses: courses, posts: posts, site: site, cfg: cfg, logger: logger}
}

// Featured returns the home page's popular courses priced in currency.
func (s *SiteService) Featured(ctx context.Context, currency string) ([]domain.Course, error) {
	return s.featured.Popular(ctx, currency, s.cfg.FeaturedLimit)
}

// SitemapURLs lists the static pages, every course and every published
// post. A catalog failure is logged and the courses fetched so far are kept.
func (s *SiteService) SitemapURLs(ctx context.Context) []seo.URL {
	urls := make([]seo.URL, 0, len(staticPages))
	for _, p := range staticPages {
		urls = append(urls, s.site.NewURL(p, time.Time{}))
	}

	if s.courses != nil {
		for batch := 0; batch < sitemapMaxBatches; batch++ {
			courses, err := s.courses.List(ctx, batch*sitemapBatch, sitemapBatch, s.cfg.SitemapCurrency)
			if err != nil {
				s.logger.WarnContext(ctx, "sitemap: list courses failed",
					slog.Int("offset", batch*sitemapBatch),
					slog.String("error", err.Error()),
				)
				break
			}
			for _, c := range courses {
				if c.Slug != "" && !c.Deleted {
					urls = append(urls, s.site.NewURL("/cursos/"+c.Slug, time.Time{}))
				}
			}
			if len(courses) < sitemapBatch {
				break
			}
		}
	}

	if s.posts != nil {
		for _, p := range s.posts.List(ctx) {
			urls = append(urls, s.site.NewURL("/blog/"+p.Slug, p.Date))
		}
	}
	return urls
}
