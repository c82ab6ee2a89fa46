package catalog

import (
	"slices"

	"github.com/iqengi/site/internal/domain"
)

// PageLink is one entry of the pager. Ellipsis entries carry no number.
type PageLink struct {
	Number   int
	Current  bool
	Ellipsis bool
}

// maxVisiblePages is the pager width before ellipses kick in.
const maxVisiblePages = 5

// VisiblePages returns the pager entries for current out of total: every
// page when there are few, otherwise the first, the last, the neighbours of
// current and ellipses for the gaps.
func VisiblePages(current, total int) []PageLink {
	if total <= 0 {
		return nil
	}
	link := func(n int) PageLink { return PageLink{Number: n, Current: n == current} }

	links := make([]PageLink, 0, maxVisiblePages+2)
	if total <= maxVisiblePages {
		for i := 1; i <= total; i++ {
			links = append(links, link(i))
		}
		return links
	}

	links = append(links, link(1))
	if current > 3 {
		links = append(links, PageLink{Ellipsis: true})
	}
	start := max(2, current-1)
	end := min(total-1, current+1)
	for i := start; i <= end; i++ {
		links = append(links, link(i))
	}
	if current < total-2 {
		links = append(links, PageLink{Ellipsis: true})
	}
	links = append(links, link(total))
	return links
}

// View is a render-ready snapshot of a Catalog.
type View struct {
	Items              []domain.Course
	Filters            Filters
	Page               int
	PageSize           int
	TotalPages         int
	TotalItems         int
	Loaded             int
	HasMore            bool
	OffersRemoteSearch bool
	Currency           string
	Pages              []PageLink
	Scroll             bool
}

// Snapshot derives a View from the current state.
func (c *Catalog) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := Derive(c.all, c.filters)
	total := totalPages(len(filtered), c.pageSize)
	return View{
		Items:              pageSlice(filtered, c.page, c.pageSize),
		Filters:            c.filters,
		Page:               c.page,
		PageSize:           c.pageSize,
		TotalPages:         total,
		TotalItems:         len(filtered),
		Loaded:             len(c.all),
		HasMore:            c.hasMore,
		OffersRemoteSearch: c.hasMore && len(filtered) == 0,
		Currency:           c.currency,
		Pages:              VisiblePages(c.page, total),
	}
}

// Popular returns up to n non-deleted courses ranked by average rating plus
// a bonus of 0.1 per review, capped at five reviews.
func Popular(courses []domain.Course, n int) []domain.Course {
	out := make([]domain.Course, 0, len(courses))
	for _, c := range courses {
		if !c.Deleted {
			out = append(out, c)
		}
	}
	score := func(c domain.Course) float64 {
		return c.Rating.Average + float64(min(c.Rating.Count, 5))*0.1
	}
	slices.SortStableFunc(out, func(a, b domain.Course) int { return cmpPrice(score(b), score(a)) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
