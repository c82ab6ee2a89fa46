package seo

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iqengi/site/internal/domain"
)

var testSite = NewSite("Iq-Engi", "https://iqengi.example/")

func TestDocument_ScriptEscapesMarkup(t *testing.T) {
	doc := Document{"name": "</script><script>alert(1)</script>"}
	out := string(doc.Script())

	if !strings.HasPrefix(out, `<script type="application/ld+json">`) || !strings.HasSuffix(out, "</script>") {
		t.Fatalf("unexpected wrapper: %s", out)
	}
	if strings.Count(out, "</script>") != 1 {
		t.Errorf("payload closed the script element early: %s", out)
	}
	if Document(nil).Script() != "" {
		t.Error("nil document should render nothing")
	}
}

func TestSite_Home(t *testing.T) {
	doc := testSite.Home()
	if doc["url"] != "https://iqengi.example" {
		t.Errorf("url = %v", doc["url"])
	}
	action := doc["potentialAction"].(Document)
	if action["target"] != "https://iqengi.example/cursos?q={search_term_string}" {
		t.Errorf("search target = %v", action["target"])
	}
}

func TestSite_Courses(t *testing.T) {
	doc := testSite.Courses([]domain.Course{
		{Title: "API 650", Slug: "api-650"},
		{Title: "ASME IX", Slug: "asme-ix"},
	})
	items := doc["itemListElement"].([]Document)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[1]["position"] != 2 {
		t.Errorf("position = %v, want 2", items[1]["position"])
	}
	item := items[1]["item"].(Document)
	if item["url"] != "https://iqengi.example/cursos/asme-ix" {
		t.Errorf("url = %v", item["url"])
	}
}

func TestSite_Course(t *testing.T) {
	c := domain.Course{
		Title:         "Inspección API 650",
		Slug:          "api-650",
		Price:         149.9,
		Currency:      "PEN",
		DurationHours: 12,
		Image:         domain.Image{URL: "https://cdn.example/api650.webp"},
		Rating:        domain.Rating{Average: 4.5, Count: 8},
	}
	doc := testSite.Course(c, time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC))

	offer := doc["offers"].(Document)
	if offer["price"] != "149.90" || offer["priceCurrency"] != "PEN" || offer["category"] != "Paid" {
		t.Errorf("unexpected offer %v", offer)
	}
	if offer["validFrom"] != "2026-03-01" {
		t.Errorf("validFrom = %v", offer["validFrom"])
	}
	if doc["timeRequired"] != "PT12H" {
		t.Errorf("timeRequired = %v", doc["timeRequired"])
	}
	if _, ok := doc["aggregateRating"]; !ok {
		t.Error("expected aggregateRating for rated course")
	}

	free := testSite.Course(domain.Course{Title: "Intro", Currency: "USD", DurationHours: 1.5}, time.Now())
	if free["offers"].(Document)["category"] != "Free" {
		t.Error("zero price should be a free offer")
	}
	if free["timeRequired"] != "PT90M" {
		t.Errorf("timeRequired = %v, want PT90M", free["timeRequired"])
	}
	if _, ok := free["aggregateRating"]; ok {
		t.Error("unrated course should not carry aggregateRating")
	}
}

func TestSite_Post(t *testing.T) {
	p := domain.Post{
		Slug:        "inspeccion-tanques",
		Title:       "Inspección de tanques",
		Date:        time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC),
		Description: strings.Repeat("á", 250),
		Author:      "Equipo IqEngi",
		Tags:        []string{"API", "tanques"},
	}
	doc := testSite.Post(p)

	if got := []rune(doc["articleBody"].(string)); len(got) != 200 {
		t.Errorf("articleBody has %d runes, want 200", len(got))
	}
	if doc["datePublished"] != "2025-11-04" || doc["keywords"] != "API, tanques" {
		t.Errorf("unexpected post document %v", doc)
	}
	if _, err := json.Marshal(doc); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestRobots(t *testing.T) {
	out := Robots("https://iqengi.example/")
	lines := strings.Split(out, "\n")

	if lines[0] != "User-agent: *" || lines[1] != "Allow: /" {
		t.Errorf("unexpected header lines %q", lines[:2])
	}
	if !strings.Contains(out, "Disallow: /api/\n") {
		t.Error("expected /api/ to be disallowed")
	}
	if last := lines[len(lines)-1]; last != "Sitemap: https://iqengi.example/sitemap-index.xml" {
		t.Errorf("sitemap line = %q", last)
	}
}

func TestSitemap(t *testing.T) {
	out, err := Sitemap([]URL{
		testSite.NewURL("/", time.Time{}),
		testSite.NewURL("/blog/post", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("Sitemap: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		"<loc>https://iqengi.example/</loc>",
		"<lastmod>2025-01-02</lastmod>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("sitemap missing %q:\n%s", want, s)
		}
	}
	if strings.Count(s, "<lastmod>") != 1 {
		t.Error("zero time should omit lastmod")
	}

	idx, err := testSite.SitemapIndex()
	if err != nil {
		t.Fatalf("SitemapIndex: %v", err)
	}
	if !strings.Contains(string(idx), "<loc>https://iqengi.example/sitemap-0.xml</loc>") {
		t.Errorf("unexpected index:\n%s", idx)
	}
}
