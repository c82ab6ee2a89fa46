package course

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iqengi/site/internal/catalog"
	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/pkg"
)

// Listing is one rendered state of the catalog page.
type Listing struct {
	View       catalog.View
	Query      pkg.CatalogQuery
	Categories []domain.Category
	// MoreFailed is set when a load-more batch failed and the previously
	// loaded courses are shown instead.
	MoreFailed bool
}

// CourseService reads courses from the backend and builds catalog views.
type CourseService struct {
	source domain.CourseSource
	cfg    catalog.Config
	logger *slog.Logger
}

// NewCourseService creates a CourseService over source.
func NewCourseService(source domain.CourseSource, cfg catalog.Config, logger *slog.Logger) *CourseService {
	if logger == nil {
		logger = slog.Default()
	}
	d := catalog.DefaultConfig()
	if cfg.InitialLimit <= 0 {
		cfg.InitialLimit = d.InitialLimit
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = d.BatchSize
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = d.PageSize
	}
	return &CourseService{source: source, cfg: cfg, logger: logger}
}

// Config returns the catalog batch and page sizes.
func (s *CourseService) Config() catalog.Config {
	return s.cfg
}

// Source returns the underlying course source.
func (s *CourseService) Source() domain.CourseSource {
	return s.source
}

// Browse rebuilds the catalog described by q priced in currency. The
// loaded list is refetched from offset 0 (q.Loaded courses, at least one
// initial batch); with more set the next batch is appended. Once the
// server is found exhausted the returned query carries that, and later
// rebuilds never offer load more again. from is the
// page the visitor was on, used to decide whether the view scrolls.
// Categories are fetched concurrently and are optional.
func (s *CourseService) Browse(ctx context.Context, currency string, q pkg.CatalogQuery, from int, more bool) (*Listing, error) {
	var (
		cat        *catalog.Catalog
		categories []domain.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cat, err = catalog.Load(gctx, s.source, s.cfg, currency, q.Loaded, q.Exhausted)
		return err
	})
	g.Go(func() error {
		list, err := s.source.Categories(gctx)
		if err != nil {
			s.logger.WarnContext(ctx, "load categories failed", slog.String("error", err.Error()))
			return nil
		}
		categories = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	listing := &Listing{Categories: categories}
	if more {
		if _, err := cat.LoadMore(ctx); err != nil {
			s.logger.WarnContext(ctx, "load more courses failed", slog.String("error", err.Error()))
			listing.MoreFailed = true
		}
	}

	cat.SetSearch(q.Search)
	cat.SetCategory(q.Category)
	cat.SetSort(catalog.ParseSort(q.Sort))
	cat.SetPageSize(q.PageSize)
	if from > 1 {
		cat.GoTo(from)
	}
	scroll := cat.GoTo(q.Page)

	view := cat.Snapshot()
	view.Scroll = scroll

	q.Page = view.Page
	q.Loaded = 0
	if view.Loaded > s.cfg.InitialLimit {
		q.Loaded = view.Loaded
	}
	q.Exhausted = !view.HasMore
	listing.View = view
	listing.Query = q
	return listing, nil
}

// Popular returns up to n top-rated courses from the first batch.
func (s *CourseService) Popular(ctx context.Context, currency string, n int) ([]domain.Course, error) {
	courses, err := s.source.ListCourses(ctx, domain.CourseQuery{Offset: 0, Limit: s.cfg.InitialLimit, Currency: currency})
	if err != nil {
		return nil, err
	}
	return catalog.Popular(courses, n), nil
}

// List returns one window of courses.
func (s *CourseService) List(ctx context.Context, offset, limit int, currency string) ([]domain.Course, error) {
	return s.source.ListCourses(ctx, domain.CourseQuery{Offset: offset, Limit: limit, Currency: currency})
}

// BySlug returns one course priced in currency.
func (s *CourseService) BySlug(ctx context.Context, slug, currency string) (*domain.Course, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, domain.NewAppError(domain.CodeNotFound, "curso no encontrado", nil)
	}
	return s.source.CourseBySlug(ctx, slug, currency)
}

// Price returns the price of one course in currency.
func (s *CourseService) Price(ctx context.Context, courseID, currency string) (float64, error) {
	return s.source.CoursePrice(ctx, courseID, currency)
}

// Categories returns the category list.
func (s *CourseService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.source.Categories(ctx)
}
