// Package catalog layers client-side search, sort and pagination over
// course batches fetched from the backend.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/iqengi/site/internal/domain"
)

// ErrSuperseded is returned when a newer fetch replaced the list before
// this one finished. Its result is discarded.
var ErrSuperseded = errors.New("catalog: fetch superseded by a newer request")

// Sort orders the derived list.
type Sort string

const (
	SortRecent    Sort = "recent"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// ParseSort maps a query value to a Sort, defaulting to SortRecent.
func ParseSort(s string) Sort {
	switch Sort(strings.TrimSpace(s)) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	}
	return SortRecent
}

// AllCategories disables the category filter.
const AllCategories = "all"

// Filters are the client-only view filters.
type Filters struct {
	Search   string
	Category string
	Sort     Sort
}

// Config holds the batch and page sizes.
type Config struct {
	InitialLimit int
	BatchSize    int
	PageSize     int
}

// DefaultConfig matches the storefront: 24 courses per batch, 6 per page.
func DefaultConfig() Config {
	return Config{InitialLimit: 24, BatchSize: 24, PageSize: 6}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.InitialLimit <= 0 {
		c.InitialLimit = d.InitialLimit
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	return c
}

// Catalog is the view state of one catalog consumer. The loaded list only
// grows by LoadMore and is only replaced by ChangeCurrency; every derived
// view is computed from it without mutation. Methods are safe for
// concurrent use.
type Catalog struct {
	fetcher domain.CourseFetcher
	cfg     Config

	mu       sync.Mutex
	all      []domain.Course
	hasMore  bool
	filters  Filters
	page     int
	pageSize int
	currency string
	gen      uint64
	loading  bool
}

// New seeds a catalog with a server-rendered first batch. hasMore is the
// server's hint that more courses may exist.
func New(fetcher domain.CourseFetcher, cfg Config, seed []domain.Course, hasMore bool, currency string) *Catalog {
	cfg = cfg.normalized()
	return &Catalog{
		fetcher:  fetcher,
		cfg:      cfg,
		all:      slices.Clone(seed),
		hasMore:  hasMore,
		filters:  Filters{Category: AllCategories, Sort: SortRecent},
		page:     1,
		pageSize: cfg.PageSize,
		currency: currency,
	}
}

// Load fetches max(loaded, InitialLimit) courses from offset 0 and seeds a
// catalog with them. A full batch hints that more may exist unless an
// earlier load already found the server exhausted.
func Load(ctx context.Context, fetcher domain.CourseFetcher, cfg Config, currency string, loaded int, exhausted bool) (*Catalog, error) {
	cfg = cfg.normalized()
	limit := max(loaded, cfg.InitialLimit)
	courses, err := fetcher.ListCourses(ctx, domain.CourseQuery{Offset: 0, Limit: limit, Currency: currency})
	if err != nil {
		return nil, err
	}
	return New(fetcher, cfg, courses, len(courses) >= limit && !exhausted, currency), nil
}

// LoadMore appends the next server batch. Once a batch comes back shorter
// than requested, HasMore is false for the rest of the catalog's life. On
// error the loaded list is kept.
func (c *Catalog) LoadMore(ctx context.Context) (int, error) {
	c.mu.Lock()
	if !c.hasMore || c.loading {
		c.mu.Unlock()
		return 0, nil
	}
	c.loading = true
	gen, offset, currency := c.gen, len(c.all), c.currency
	c.mu.Unlock()

	batch, err := c.fetcher.ListCourses(ctx, domain.CourseQuery{Offset: offset, Limit: c.cfg.BatchSize, Currency: currency})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if gen != c.gen {
		return 0, ErrSuperseded
	}
	if err != nil {
		return 0, fmt.Errorf("load more courses: %w", err)
	}

	next := make([]domain.Course, 0, len(c.all)+len(batch))
	next = append(next, c.all...)
	c.all = append(next, batch...)
	if len(batch) < c.cfg.BatchSize {
		c.hasMore = false
	}
	return len(batch), nil
}

// ChangeCurrency refetches max(loaded, InitialLimit) courses from offset 0
// priced in code and replaces the loaded list. Calls for the active
// currency do nothing. A later call supersedes an earlier one still in
// flight; the earlier result is discarded with ErrSuperseded.
func (c *Catalog) ChangeCurrency(ctx context.Context, code string) error {
	c.mu.Lock()
	if code == c.currency {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	gen := c.gen
	limit := max(len(c.all), c.cfg.InitialLimit)
	c.mu.Unlock()

	courses, err := c.fetcher.ListCourses(ctx, domain.CourseQuery{Offset: 0, Limit: limit, Currency: code})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}
	if err != nil {
		return fmt.Errorf("refetch courses in %s: %w", code, err)
	}
	c.all = courses
	c.currency = code
	if len(courses) < limit {
		c.hasMore = false
	}
	return nil
}

// Currency returns the currency the loaded prices are in.
func (c *Catalog) Currency() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currency
}

// Courses returns a copy of the loaded list.
func (c *Catalog) Courses() []domain.Course {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.all)
}

// HasMore reports whether the server may have more courses.
func (c *Catalog) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Filters returns the active filters.
func (c *Catalog) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// SetSearch sets the search term and returns to page 1.
func (c *Catalog) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Search = term
	c.page = 1
}

// SetCategory sets the category filter and returns to page 1. An empty id
// means AllCategories.
func (c *Catalog) SetCategory(id string) {
	if id == "" {
		id = AllCategories
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Category = id
	c.page = 1
}

// SetSort sets the order and returns to page 1.
func (c *Catalog) SetSort(s Sort) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters.Sort = s
	c.page = 1
}

// SetPageSize sets the page size and returns to page 1. Non-positive
// sizes are ignored.
func (c *Catalog) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = n
	c.page = 1
}

// Page returns the current page number.
func (c *Catalog) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PageSize returns the current page size.
func (c *Catalog) PageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageSize
}

// GoTo moves to page. It reports whether the view should scroll back to
// the top of the catalog, which happens when moving backward or landing on
// the last page. Out of range pages are ignored.
func (c *Catalog) GoTo(page int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := totalPages(len(Derive(c.all, c.filters)), c.pageSize)
	if page < 1 || page > total {
		return false
	}
	back := page < c.page
	c.page = page
	return back || page == total
}

// Filtered returns the searched, filtered and sorted list.
func (c *Catalog) Filtered() []domain.Course {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Derive(c.all, c.filters)
}

// PageItems returns the current page of the filtered list.
func (c *Catalog) PageItems() []domain.Course {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pageSlice(Derive(c.all, c.filters), c.page, c.pageSize)
}

// TotalPages returns the number of pages of the filtered list.
func (c *Catalog) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return totalPages(len(Derive(c.all, c.filters)), c.pageSize)
}

// OffersRemoteSearch reports whether an empty result should offer to load
// more courses from the server, since the match may not be loaded yet.
func (c *Catalog) OffersRemoteSearch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore && len(Derive(c.all, c.filters)) == 0
}

// Derive applies filters to courses without modifying them.
func Derive(courses []domain.Course, f Filters) []domain.Course {
	out := make([]domain.Course, 0, len(courses))
	for _, course := range courses {
		if !course.Matches(f.Search) {
			continue
		}
		if f.Category != "" && f.Category != AllCategories && !course.HasCategory(f.Category) {
			continue
		}
		out = append(out, course)
	}

	switch f.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b domain.Course) int { return cmpPrice(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b domain.Course) int { return cmpPrice(b.Price, a.Price) })
	}
	return out
}

func cmpPrice(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func pageSlice(list []domain.Course, page, size int) []domain.Course {
	start := (page - 1) * size
	if start < 0 || start >= len(list) {
		return []domain.Course{}
	}
	end := min(start+size, len(list))
	return list[start:end]
}

func totalPages(items, size int) int {
	if size <= 0 {
		return 0
	}
	return (items + size - 1) / size
}
