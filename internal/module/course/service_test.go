package course

import (
	"context"
	"errors"
	"testing"

	"github.com/iqengi/site/internal/catalog"
	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/pkg"
)

var testConfig = catalog.Config{InitialLimit: 24, BatchSize: 24, PageSize: 6}

func TestBrowse_FirstPage(t *testing.T) {
	src := newFakeSource(30)
	svc := NewCourseService(src, testConfig, nil)

	listing, err := svc.Browse(context.Background(), "PEN", pkg.CatalogQuery{Sort: "recent", Page: 1, PageSize: 6}, 0, false)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	v := listing.View
	if v.Loaded != 24 || !v.HasMore {
		t.Errorf("Loaded = %d HasMore = %v; want 24 true", v.Loaded, v.HasMore)
	}
	if len(v.Items) != 6 || v.TotalPages != 4 {
		t.Errorf("items = %d pages = %d; want 6 and 4", len(v.Items), v.TotalPages)
	}
	if v.Items[0].Currency != "PEN" || v.Items[0].Price != 40 {
		t.Errorf("first item = %+v; want priced in PEN", v.Items[0])
	}
	if len(listing.Categories) != 2 {
		t.Errorf("categories = %v", listing.Categories)
	}
	if listing.Query.Loaded != 0 {
		t.Errorf("Query.Loaded = %d; a single batch should stay implicit", listing.Query.Loaded)
	}
}

func TestBrowse_FiltersAndClampsPage(t *testing.T) {
	svc := NewCourseService(newFakeSource(24), testConfig, nil)

	q := pkg.CatalogQuery{Category: "cat1", Sort: "price_desc", Page: 9, PageSize: 6}
	listing, err := svc.Browse(context.Background(), "USD", q, 0, false)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	v := listing.View
	if v.TotalItems != 12 {
		t.Fatalf("TotalItems = %d; want 12", v.TotalItems)
	}
	if v.Page != 1 || listing.Query.Page != 1 {
		t.Errorf("out of range page should stay on 1, got view %d query %d", v.Page, listing.Query.Page)
	}
	if v.Items[0].Price < v.Items[1].Price {
		t.Errorf("items not sorted by price desc: %v, %v", v.Items[0].Price, v.Items[1].Price)
	}
	for _, c := range v.Items {
		if !c.HasCategory("cat1") {
			t.Errorf("course %s is not in cat1", c.ID)
		}
	}
}

func TestBrowse_ScrollOnBackwardMove(t *testing.T) {
	svc := NewCourseService(newFakeSource(24), testConfig, nil)
	ctx := context.Background()

	back, _ := svc.Browse(ctx, "USD", pkg.CatalogQuery{Page: 2, PageSize: 6}, 3, false)
	if !back.View.Scroll {
		t.Error("moving from page 3 to 2 should scroll")
	}
	fwd, _ := svc.Browse(ctx, "USD", pkg.CatalogQuery{Page: 3, PageSize: 6}, 2, false)
	if fwd.View.Scroll {
		t.Error("moving forward to a middle page should not scroll")
	}
	last, _ := svc.Browse(ctx, "USD", pkg.CatalogQuery{Page: 4, PageSize: 6}, 3, false)
	if !last.View.Scroll {
		t.Error("landing on the last page should scroll")
	}
}

func TestBrowse_LoadMore(t *testing.T) {
	src := newFakeSource(30)
	svc := NewCourseService(src, testConfig, nil)

	listing, err := svc.Browse(context.Background(), "USD", pkg.CatalogQuery{Page: 1, PageSize: 6}, 0, true)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if listing.View.Loaded != 30 || listing.View.HasMore {
		t.Errorf("Loaded = %d HasMore = %v; want 30 false", listing.View.Loaded, listing.View.HasMore)
	}
	if listing.Query.Loaded != 30 {
		t.Errorf("Query.Loaded = %d; want 30", listing.Query.Loaded)
	}
	calls := src.queries()
	if len(calls) != 2 || calls[1].Offset != 24 || calls[1].Limit != 24 {
		t.Errorf("calls = %+v; want initial batch then offset 24", calls)
	}
}

func TestBrowse_ExhaustionSurvivesRebuild(t *testing.T) {
	src := newFakeSource(30)
	svc := NewCourseService(src, testConfig, nil)
	ctx := context.Background()

	first, err := svc.Browse(ctx, "USD", pkg.CatalogQuery{Page: 1, PageSize: 6}, 0, true)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if first.View.HasMore || !first.Query.Exhausted {
		t.Fatalf("after short batch HasMore = %v Exhausted = %v; want false true", first.View.HasMore, first.Query.Exhausted)
	}

	second, err := svc.Browse(ctx, "USD", first.Query.WithPage(2), 1, false)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if second.View.Loaded != 30 || second.View.HasMore {
		t.Errorf("next request Loaded = %d HasMore = %v; want 30 false", second.View.Loaded, second.View.HasMore)
	}
	if !second.Query.Exhausted {
		t.Error("exhausted flag dropped from the returned query")
	}

	// Asking for more again must not reach the server past the end.
	src.mu.Lock()
	src.calls = nil
	src.mu.Unlock()
	third, _ := svc.Browse(ctx, "USD", second.Query, 0, true)
	if third.View.Loaded != 30 || third.View.HasMore {
		t.Errorf("load more on exhausted catalog Loaded = %d HasMore = %v", third.View.Loaded, third.View.HasMore)
	}
	for _, call := range src.queries() {
		if call.Offset > 0 {
			t.Errorf("unexpected batch request %+v", call)
		}
	}
}

func TestBrowse_FilterKeepsLoadedCourses(t *testing.T) {
	svc := NewCourseService(newFakeSource(30), testConfig, nil)
	ctx := context.Background()

	loaded, err := svc.Browse(ctx, "USD", pkg.CatalogQuery{Page: 1, PageSize: 6}, 0, true)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}

	q := loaded.Query
	q.Search = "Curso 2"
	q.Page = 1
	filtered, err := svc.Browse(ctx, "USD", q, 0, false)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if filtered.View.Loaded != 30 {
		t.Errorf("Loaded = %d; a filter change must keep the 30 loaded courses", filtered.View.Loaded)
	}
	// Curso 2 and Curso 20 to 29, three of which came from the second batch.
	if filtered.View.TotalItems != 11 {
		t.Errorf("TotalItems = %d; want 11", filtered.View.TotalItems)
	}
	if filtered.Query.Loaded != 30 || !filtered.Query.Exhausted {
		t.Errorf("Query = %+v; want loaded 30 and exhausted", filtered.Query)
	}
}

func TestBrowse_LoadMoreFailureKeepsLoaded(t *testing.T) {
	src := newFakeSource(60)
	src.moreErr = errors.New("backend down")
	svc := NewCourseService(src, testConfig, nil)

	listing, err := svc.Browse(context.Background(), "USD", pkg.CatalogQuery{Page: 1, PageSize: 6}, 0, true)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if !listing.MoreFailed {
		t.Error("MoreFailed should be set")
	}
	if listing.View.Loaded != 24 || !listing.View.HasMore {
		t.Errorf("Loaded = %d HasMore = %v; want 24 true", listing.View.Loaded, listing.View.HasMore)
	}
}

func TestBrowse_RestoresLoadedCount(t *testing.T) {
	src := newFakeSource(60)
	svc := NewCourseService(src, testConfig, nil)

	listing, err := svc.Browse(context.Background(), "USD", pkg.CatalogQuery{Page: 1, PageSize: 6, Loaded: 48}, 0, false)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if calls := src.queries(); calls[0].Limit != 48 || calls[0].Offset != 0 {
		t.Errorf("first call = %+v; want offset 0 limit 48", calls[0])
	}
	if listing.View.Loaded != 48 {
		t.Errorf("Loaded = %d; want 48", listing.View.Loaded)
	}
}

func TestBrowse_Errors(t *testing.T) {
	src := newFakeSource(10)
	src.catErr = errors.New("categories down")
	svc := NewCourseService(src, testConfig, nil)

	listing, err := svc.Browse(context.Background(), "USD", pkg.CatalogQuery{Page: 1, PageSize: 6}, 0, false)
	if err != nil {
		t.Fatalf("category failure should not fail the page: %v", err)
	}
	if len(listing.Categories) != 0 {
		t.Errorf("categories = %v; want none", listing.Categories)
	}

	src.listErr = errors.New("backend down")
	if _, err := svc.Browse(context.Background(), "USD", pkg.CatalogQuery{Page: 1}, 0, false); err == nil {
		t.Error("expected error when the course list fails")
	}
}

func TestPopular(t *testing.T) {
	svc := NewCourseService(newFakeSource(10), catalog.Config{}, nil)

	got, err := svc.Popular(context.Background(), "USD", 3)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d; want 3", len(got))
	}
	// Average 4 with the review bonus capped at five ranks first.
	if got[0].ID != "c10" || got[1].ID != "c5" {
		t.Errorf("top courses = %s, %s; want c10, c5", got[0].ID, got[1].ID)
	}
}

func TestBySlug_Blank(t *testing.T) {
	svc := NewCourseService(newFakeSource(1), testConfig, nil)
	if _, err := svc.BySlug(context.Background(), "  ", "USD"); !domain.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}
