package app

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/iqengi/site/internal/catalog"
	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/module/course"
	"github.com/iqengi/site/internal/pkg"
	"github.com/iqengi/site/web"
)

// testFS returns an in-memory filesystem suitable for testing template rendering.
// It mirrors the expected web/templates/ directory layout with a base layout,
// a partial, and two page templates (course list and error).
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(
				`{{ define "base" }}<!DOCTYPE html><html>` +
					`<head><title>{{ block "title" . }}Default{{ end }}</title></head>` +
					`<body>{{ block "nav" . }}{{ end }}{{ block "content" . }}{{ end }}</body>` +
					`</html>{{ end }}`),
		},
		"templates/partials/nav.html": &fstest.MapFile{
			Data: []byte(`{{ define "nav" }}<nav>Navigation</nav>{{ end }}`),
		},
		"templates/course/list.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}Cursos{{ end }}` +
					`{{ define "content" }}<h1>Catálogo</h1>{{ template "nav" . }}{{ end }}`),
		},
		"templates/errors/404.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}Not Found{{ end }}` +
					`{{ define "content" }}<h1>404 Not Found</h1>{{ end }}`),
		},
	}
}

// testFSWithFuncs returns a test filesystem that uses template functions
// (formatDate, add, sub, seq, stars, dict) in the page template.
func testFSWithFuncs() fstest.MapFS {
	base := testFS()
	base["templates/functest/page.html"] = &fstest.MapFile{
		Data: []byte(
			`{{ template "base" . }}` +
				`{{ define "content" }}` +
				`date:{{ formatDate .Date }}|` +
				`stars:{{ range stars 3.5 }}{{ if . }}*{{ else }}-{{ end }}{{ end }}|` +
				`dict:{{ with dict "A" 1 "B" "x" }}{{ .A }}{{ .B }}{{ end }}|` +
				`add:{{ add 3 4 }}|` +
				`sub:{{ sub 10 3 }}|` +
				`seq:{{ range seq 1 3 }}{{ . }}{{ end }}` +
				`{{ end }}`),
	}
	return base
}

// ---------------------------------------------------------------------------
// Template function tests
// ---------------------------------------------------------------------------

func TestTemplateFuncMap(t *testing.T) {
	fm := templateFuncMap()

	t.Run("json_string", func(t *testing.T) {
		fn := fm["json"].(func(any) template.JS)
		got := fn("操作成功")
		want := template.JS(`"操作成功"`)
		if got != want {
			t.Errorf("json(string) = %q; want %q", got, want)
		}
	})

	t.Run("json_string_with_special_chars", func(t *testing.T) {
		fn := fm["json"].(func(any) template.JS)
		got := fn(`He said "hello" & 'bye'`)
		// json.Marshal produces a valid JS string literal with quotes escaped.
		var roundtrip string
		if err := json.Unmarshal([]byte(got), &roundtrip); err != nil {
			t.Fatalf("json output %q is not valid JSON: %v", got, err)
		}
		if roundtrip != `He said "hello" & 'bye'` {
			t.Errorf("round-tripped value = %q; want original string", roundtrip)
		}
	})

	t.Run("json_nil_returns_null", func(t *testing.T) {
		fn := fm["json"].(func(any) template.JS)
		got := fn(nil)
		if got != "null" {
			t.Errorf("json(nil) = %q; want %q", got, "null")
		}
	})

	t.Run("formatDate", func(t *testing.T) {
		fn := fm["formatDate"].(func(time.Time) string)
		d := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
		if got, want := fn(d), "5 de marzo de 2026"; got != want {
			t.Errorf("formatDate() = %q; want %q", got, want)
		}
		if got := fn(time.Time{}); got != "" {
			t.Errorf("formatDate(zero) = %q; want empty", got)
		}
	})

	t.Run("isoDate", func(t *testing.T) {
		fn := fm["isoDate"].(func(time.Time) string)
		if got := fn(time.Date(2026, 12, 1, 23, 0, 0, 0, time.UTC)); got != "2026-12-01" {
			t.Errorf("isoDate() = %q", got)
		}
	})

	t.Run("add", func(t *testing.T) {
		fn := fm["add"].(func(int, int) int)
		if got := fn(3, 4); got != 7 {
			t.Errorf("add(3,4) = %d; want 7", got)
		}
	})

	t.Run("sub", func(t *testing.T) {
		fn := fm["sub"].(func(int, int) int)
		if got := fn(10, 3); got != 7 {
			t.Errorf("sub(10,3) = %d; want 7", got)
		}
	})

	t.Run("seq", func(t *testing.T) {
		fn := fm["seq"].(func(int, int) []int)

		got := fn(1, 5)
		want := []int{1, 2, 3, 4, 5}
		if len(got) != len(want) {
			t.Fatalf("seq(1,5) len = %d; want %d", len(got), len(want))
		}
		for i, v := range got {
			if v != want[i] {
				t.Errorf("seq(1,5)[%d] = %d; want %d", i, v, want[i])
			}
		}

		if got := fn(5, 1); got != nil {
			t.Errorf("seq(5,1) = %v; want nil", got)
		}
	})
}

func TestTemplateFuncMap_Catalog(t *testing.T) {
	fm := templateFuncMap()

	t.Run("stars", func(t *testing.T) {
		fn := fm["stars"].(func(float64) []bool)
		tests := []struct {
			rating float64
			want   int
		}{
			{0, 0}, {0.4, 0}, {0.5, 1}, {3.2, 3}, {4.5, 5}, {5, 5},
		}
		for _, tt := range tests {
			got := 0
			for _, on := range fn(tt.rating) {
				if on {
					got++
				}
			}
			if got != tt.want {
				t.Errorf("stars(%v) filled = %d; want %d", tt.rating, got, tt.want)
			}
		}
	})

	t.Run("oneDecimal", func(t *testing.T) {
		fn := fm["oneDecimal"].(func(float64) string)
		if got := fn(4.25); got != "4.2" && got != "4.3" {
			t.Errorf("oneDecimal(4.25) = %q", got)
		}
		if got := fn(5); got != "5.0" {
			t.Errorf("oneDecimal(5) = %q", got)
		}
	})

	t.Run("contains", func(t *testing.T) {
		fn := fm["contains"].(func(map[string]bool, string) bool)
		if !fn(map[string]bool{"c1": true}, "c1") || fn(nil, "c1") {
			t.Error("contains mismatch")
		}
	})

	t.Run("dict", func(t *testing.T) {
		fn := fm["dict"].(func(...any) (map[string]any, error))
		m, err := fn("Course", 1, "Saved", true)
		if err != nil || m["Course"] != 1 || m["Saved"] != true {
			t.Errorf("dict = %v, %v", m, err)
		}
		if _, err := fn("odd"); err == nil {
			t.Error("dict(odd) error = nil")
		}
		if _, err := fn(1, 2); err == nil {
			t.Error("dict(non-string key) error = nil")
		}
	})

	t.Run("catalogURL", func(t *testing.T) {
		fn := fm["catalogURL"].(func(pkg.CatalogQuery, ...any) (template.URL, error))

		got, err := fn(pkg.CatalogQuery{})
		if err != nil || got != "/cursos" {
			t.Errorf("catalogURL(empty) = %q, %v", got, err)
		}
		got, err = fn(pkg.CatalogQuery{Search: "tig", Page: 2}, "accion", "mas", "desde", 12)
		if err != nil {
			t.Fatal(err)
		}
		if want := template.URL("/cursos?accion=mas&desde=12&pagina=2&q=tig"); got != want {
			t.Errorf("catalogURL = %q; want %q", got, want)
		}
		if _, err := fn(pkg.CatalogQuery{}, "solo"); err == nil {
			t.Error("catalogURL(odd) error = nil")
		}
	})

	t.Run("originalPrice and favorite", func(t *testing.T) {
		discount := 20.0
		c := domain.Course{
			ID: "c1", Title: "Soldadura TIG", Slug: "soldadura-tig",
			Image: domain.Image{URL: "https://cdn.example.com/tig.jpg"},
			Price: 80, Currency: "USD", Discount: &discount,
		}
		orig := fm["originalPrice"].(func(domain.Course) float64)
		if got := orig(c); got != 100 {
			t.Errorf("originalPrice = %v; want 100", got)
		}
		c2 := c
		c2.Discount = nil
		if got := orig(c2); got != 0 {
			t.Errorf("originalPrice(no discount) = %v; want 0", got)
		}

		fav := fm["favorite"].(func(domain.Course) domain.Favorite)(c)
		want := domain.Favorite{ID: "c1", Title: "Soldadura TIG", Slug: "soldadura-tig", ImageURL: "https://cdn.example.com/tig.jpg", Price: 80, Currency: "USD"}
		if fav != want {
			t.Errorf("favorite = %+v; want %+v", fav, want)
		}
	})
}

// ---------------------------------------------------------------------------
// NewTemplateRenderer tests
// ---------------------------------------------------------------------------

func TestNewTemplateRenderer_Release(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if r.debug {
		t.Error("expected debug=false")
	}
	if r.templates == nil {
		t.Fatal("templates map should be initialized in release mode")
	}
	if _, ok := r.templates["course/list.html"]; !ok {
		t.Error("expected template 'course/list.html' to be loaded")
	}
	if _, ok := r.templates["errors/404.html"]; !ok {
		t.Error("expected template 'errors/404.html' to be loaded")
	}
}

func TestNewTemplateRenderer_SiteTemplates(t *testing.T) {
	r, err := NewTemplateRenderer(web.EmbeddedFS, false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer(web.EmbeddedFS) error: %v", err)
	}
	for _, page := range []string{
		"home.html", "site/featured.html",
		"course/list.html", "course/grid.html", "course/detail.html",
		"currency/selector.html",
		"preference/favorites.html", "preference/favorite_button.html",
		"contact/page.html", "contact/form.html",
		"newsletter/form.html",
		"blog/list.html", "blog/post.html",
		"errors/400.html", "errors/404.html", "errors/500.html",
	} {
		if _, ok := r.templates[page]; !ok {
			t.Errorf("page %q not loaded", page)
		}
	}

	w := httptest.NewRecorder()
	data := map[string]any{"Theme": "dark", "CSRFToken": "tok-123", "Path": "/cursos", "Status": 404}
	if err := r.Instance("errors/404.html", data).Render(w); err != nil {
		t.Fatalf("render 404: %v", err)
	}
	body := w.Body.String()
	for _, want := range []string{
		`data-theme="dark"`,
		"tok-123",
		"Página no encontrada",
		`<option value="dark" selected>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("404 page missing %q", want)
		}
	}
}

func TestCourseGrid_CarriesCatalogState(t *testing.T) {
	r, err := NewTemplateRenderer(web.EmbeddedFS, false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer(web.EmbeddedFS) error: %v", err)
	}
	listing := &course.Listing{
		View: catalog.View{
			Page: 2, PageSize: 6, TotalPages: 5, TotalItems: 30, Loaded: 30,
			HasMore: true, Currency: "USD", Pages: catalog.VisiblePages(2, 5),
		},
		Query: pkg.CatalogQuery{Sort: "recent", Page: 2, PageSize: 6, Loaded: 30},
	}

	w := httptest.NewRecorder()
	if err := r.Instance("course/grid.html", map[string]any{"Listing": listing}).Render(w); err != nil {
		t.Fatalf("render grid: %v", err)
	}
	body := w.Body.String()

	// Anterior, Siguiente and pages 1, 3, 4 and 5, each in href and hx-get.
	if n := strings.Count(body, "desde=2"); n != 12 {
		t.Errorf("pager links carrying desde=2: %d; want 12", n)
	}
	for _, want := range []string{
		`/cursos?cargados=30&amp;desde=2&amp;pagina=3&amp;por_pagina=6`,
		`/cursos?accion=mas&amp;cargados=30&amp;pagina=2&amp;por_pagina=6"`,
		`form="catalog-filters" name="cargados" value="30"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("grid missing %q", want)
		}
	}
	if strings.Contains(body, `name="agotado"`) {
		t.Error("grid marks the catalog exhausted while the server has more")
	}

	listing.View.HasMore = false
	listing.Query.Exhausted = true
	w = httptest.NewRecorder()
	if err := r.Instance("course/grid.html", map[string]any{"Listing": listing}).Render(w); err != nil {
		t.Fatalf("render grid: %v", err)
	}
	body = w.Body.String()
	if !strings.Contains(body, `form="catalog-filters" name="agotado" value="1"`) {
		t.Error("exhausted grid should hand agotado to the filter form")
	}
	if strings.Contains(body, "accion=mas") {
		t.Error("exhausted grid still offers load more")
	}
}

func TestNewTemplateRenderer_Debug(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), true)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if !r.debug {
		t.Error("expected debug=true")
	}
	if r.templates != nil {
		t.Error("templates should be nil in debug mode (parsed on each request)")
	}
}

func TestNewTemplateRenderer_InvalidTemplate(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{ define "base" }}{{ end }}`),
		},
		"templates/bad/page.html": &fstest.MapFile{
			Data: []byte(`{{ invalid_syntax `),
		},
	}
	_, err := NewTemplateRenderer(badFS, false)
	if err == nil {
		t.Fatal("expected error for invalid template syntax")
	}
}

// ---------------------------------------------------------------------------
// Instance + Render tests
// ---------------------------------------------------------------------------

func TestTemplateRenderer_Instance_Release(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	inst := r.Instance("course/list.html", nil)
	w := httptest.NewRecorder()
	if err := inst.Render(w); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	body := w.Body.String()
	for _, want := range []string{
		"<title>Cursos</title>",
		"<h1>Catálogo</h1>",
		"<nav>Navigation</nav>",
		"<!DOCTYPE html>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestTemplateRenderer_Instance_Debug(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), true)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	inst := r.Instance("errors/404.html", nil)
	w := httptest.NewRecorder()
	if err := inst.Render(w); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	body := w.Body.String()
	for _, want := range []string{
		"<title>Not Found</title>",
		"<h1>404 Not Found</h1>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestTemplateRenderer_Instance_NotFound(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	inst := r.Instance("nonexistent.html", nil)
	w := httptest.NewRecorder()
	if err := inst.Render(w); err == nil {
		t.Error("Render() should return error for nonexistent template")
	}
}

func TestTemplateRenderer_Instance_WithFuncMap(t *testing.T) {
	r, err := NewTemplateRenderer(testFSWithFuncs(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	data := map[string]any{
		"Date": time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC),
	}
	inst := r.Instance("functest/page.html", data)
	w := httptest.NewRecorder()
	if err := inst.Render(w); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	body := w.Body.String()
	for _, want := range []string{
		"date:15 de junio de 2024",
		"stars:****-",
		"dict:1x",
		"add:7",
		"sub:7",
		"seq:123",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

// ---------------------------------------------------------------------------
// HTMLInstance tests
// ---------------------------------------------------------------------------

func TestHTMLInstance_WriteContentType(t *testing.T) {
	w := httptest.NewRecorder()
	h := &HTMLInstance{}
	h.WriteContentType(w)

	got := w.Header().Get("Content-Type")
	want := "text/html; charset=utf-8"
	if got != want {
		t.Errorf("Content-Type = %q; want %q", got, want)
	}
}

func TestHTMLInstance_WriteContentType_NoOverwrite(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("Content-Type", "application/json")

	h := &HTMLInstance{}
	h.WriteContentType(w)

	got := w.Header().Get("Content-Type")
	if got != "application/json" {
		t.Errorf("Content-Type should not be overwritten; got %q", got)
	}
}

func TestHTMLInstance_Render_ParseError(t *testing.T) {
	w := httptest.NewRecorder()
	h := &HTMLInstance{err: fmt.Errorf("parse error")}

	err := h.Render(w)
	if err == nil {
		t.Fatal("expected error from Render")
	}
	if !strings.Contains(err.Error(), "parse error") {
		t.Errorf("error = %q; want to contain 'parse error'", err.Error())
	}
}

// ---------------------------------------------------------------------------
// discoverPageTemplates test
// ---------------------------------------------------------------------------

func TestDiscoverPageTemplates(t *testing.T) {
	r := &TemplateRenderer{fs: testFS()}

	pages, err := r.discoverPageTemplates()
	if err != nil {
		t.Fatalf("discoverPageTemplates() error: %v", err)
	}

	// Should find course/list.html and errors/404.html but not layouts or partials.
	wantPaths := map[string]bool{
		"templates/course/list.html":  false,
		"templates/errors/404.html": false,
	}
	for _, p := range pages {
		if _, ok := wantPaths[p]; ok {
			wantPaths[p] = true
		}
	}
	for p, found := range wantPaths {
		if !found {
			t.Errorf("expected page %q to be discovered", p)
		}
	}

	// Layouts and partials must NOT appear.
	for _, p := range pages {
		rel := strings.TrimPrefix(p, "templates/")
		if strings.HasPrefix(rel, "layouts/") || strings.HasPrefix(rel, "partials/") {
			t.Errorf("base template %q should not be in page list", p)
		}
	}
}
