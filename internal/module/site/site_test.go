package site

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/seo"
)

type fakeFeatured struct {
	err       error
	currency  string
	requested int
}

func (f *fakeFeatured) Popular(_ context.Context, currency string, n int) ([]domain.Course, error) {
	f.currency = currency
	f.requested = n
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Course{{ID: "c1", Title: "Uno", Slug: "uno"}, {ID: "c2", Title: "Dos", Slug: "dos"}}, nil
}

type fakeLister struct {
	total   int
	failAt  int
	offsets []int
}

func (f *fakeLister) List(_ context.Context, offset, limit int, _ string) ([]domain.Course, error) {
	f.offsets = append(f.offsets, offset)
	if f.failAt > 0 && offset >= f.failAt {
		return nil, errors.New("backend down")
	}
	var out []domain.Course
	for i := offset; i < offset+limit && i < f.total; i++ {
		c := domain.Course{ID: "c", Slug: "curso-" + string(rune('a'+i%26))}
		if i == 0 {
			c.Deleted = true
		}
		out = append(out, c)
	}
	return out, nil
}

type fakePosts []domain.Post

func (f fakePosts) List(context.Context) []domain.Post { return f }

type fakeCurrency struct{ code string }

func (f fakeCurrency) State(context.Context, string, domain.CurrencyHints) (domain.CurrencyState, error) {
	return domain.CurrencyState{Currency: f.code}, nil
}

func (f fakeCurrency) Select(context.Context, string, string) (domain.CurrencyState, error) {
	return domain.CurrencyState{Currency: f.code}, nil
}

func (f fakeCurrency) Supported() []string { return []string{"USD", "PEN"} }

var testSite = seo.NewSite("IqEngi", "https://iqengi.com/")

const testTemplates = `
{{define "home.html"}}home:{{len .Featured}}:{{.FeaturedFailed}}:{{.Currency}}{{end}}
{{define "site/featured.html"}}featured:{{range .Featured}}{{.Slug}},{{end}}{{end}}
`

func setupRouter(featured *fakeFeatured, lister CourseLister, checks ...HealthCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("").Parse(testTemplates)))
	r.Use(middleware.Visitor(false))

	posts := fakePosts{{Slug: "hola", Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}}
	svc := NewSiteService(featured, lister, posts, testSite, Config{FeaturedLimit: 2}, nil)
	m := NewModule(NewSiteHandler(svc, testSite, checks...), NewSitePageHandler(svc, fakeCurrency{code: "PEN"}, testSite))
	m.RegisterRoutes(r.Group("/api/v1"), r.Group("/"))
	m.RegisterRootRoutes(r)
	return r
}

func get(r http.Handler, target string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"featured loaded", nil, "home:2:false:PEN"},
		{"featured failure keeps the page", errors.New("timeout"), "home:0:true:PEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			featured := &fakeFeatured{err: tt.err}
			w := get(setupRouter(featured, nil), "/", false)
			if w.Code != http.StatusOK || w.Body.String() != tt.want {
				t.Errorf("got %d %q; want %q", w.Code, w.Body.String(), tt.want)
			}
			if featured.currency != "PEN" || featured.requested != 2 {
				t.Errorf("Popular(%q, %d)", featured.currency, featured.requested)
			}
		})
	}
}

func TestFeaturedPartial(t *testing.T) {
	w := get(setupRouter(&fakeFeatured{}, nil), "/destacados", true)
	if w.Body.String() != "featured:uno,dos," {
		t.Errorf("body = %q", w.Body.String())
	}

	w = get(setupRouter(&fakeFeatured{err: errors.New("boom")}, nil), "/destacados", true)
	if w.Code != http.StatusOK || w.Header().Get("HX-Reswap") != "none" {
		t.Errorf("failure = %d reswap %q", w.Code, w.Header().Get("HX-Reswap"))
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), featuredFailedMessage) {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
}

func TestRobots(t *testing.T) {
	w := get(setupRouter(&fakeFeatured{}, nil), "/robots.txt", false)
	body := w.Body.String()
	if !strings.HasPrefix(body, "User-agent: *\nAllow: /\n") || !strings.HasSuffix(body, "Sitemap: https://iqengi.com/sitemap-index.xml") {
		t.Errorf("robots = %q", body)
	}
	if !strings.Contains(body, "Disallow: /api/\n") {
		t.Error("robots should hide the API")
	}
}

func TestSitemapIndex(t *testing.T) {
	w := get(setupRouter(&fakeFeatured{}, nil), "/sitemap-index.xml", false)
	if !strings.Contains(w.Body.String(), "<loc>https://iqengi.com/sitemap-0.xml</loc>") {
		t.Errorf("index = %s", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestSitemap(t *testing.T) {
	lister := &fakeLister{total: 3}
	body := get(setupRouter(&fakeFeatured{}, lister), "/sitemap-0.xml", false).Body.String()

	for _, want := range []string{
		"<loc>https://iqengi.com/</loc>",
		"<loc>https://iqengi.com/contacto</loc>",
		"<loc>https://iqengi.com/cursos/curso-b</loc>",
		"<loc>https://iqengi.com/cursos/curso-c</loc>",
		"<loc>https://iqengi.com/blog/hola</loc>",
		"<lastmod>2025-02-01</lastmod>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %s", want)
		}
	}
	if strings.Contains(body, "curso-a") {
		t.Error("deleted course listed")
	}
	if len(lister.offsets) != 1 {
		t.Errorf("offsets = %v; want a single short batch", lister.offsets)
	}
}

func TestSitemapURLs_PagesAndKeepsPartialResults(t *testing.T) {
	lister := &fakeLister{total: 250, failAt: 200}
	svc := NewSiteService(&fakeFeatured{}, lister, nil, testSite, Config{}, nil)

	urls := svc.SitemapURLs(context.Background())
	if got, want := len(urls), len(staticPages)+199; got != want {
		t.Errorf("len(urls) = %d; want %d", got, want)
	}
	if len(lister.offsets) != 3 || lister.offsets[2] != 200 {
		t.Errorf("offsets = %v", lister.offsets)
	}
}

func TestHealth(t *testing.T) {
	ok := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	bad := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("refused") }}

	tests := []struct {
		name   string
		checks []HealthCheck
		want   int
		body   string
	}{
		{"all ok", []HealthCheck{ok}, http.StatusOK, `{"components":{"database":"ok"},"status":"ok"}`},
		{"degraded", []HealthCheck{ok, bad}, http.StatusServiceUnavailable, `{"components":{"database":"ok","redis":"error"},"status":"degraded"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(setupRouter(&fakeFeatured{}, nil, tt.checks...), "/health", false)
			if w.Code != tt.want || w.Body.String() != tt.body {
				t.Errorf("got %d %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestSiteModule_PanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewModule(nil, &SitePageHandler{})
}
