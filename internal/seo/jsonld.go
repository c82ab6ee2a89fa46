// Package seo builds the structured data and crawler files served with pages.
package seo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iqengi/site/internal/domain"
)

const schemaContext = "https://schema.org/"

// Document is one JSON-LD object.
type Document map[string]any

// Script renders d as a <script type="application/ld+json"> element. The JSON
// encoder escapes '<', '>' and '&', so content cannot close the tag early.
func (d Document) Script() template.HTML {
	if d == nil {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(d); err != nil {
		return ""
	}
	return template.HTML(`<script type="application/ld+json">` + strings.TrimSpace(buf.String()) + `</script>`)
}

// Site carries the identity shared by every document.
type Site struct {
	Name string
	URL  string
}

// NewSite returns a Site for baseURL with the trailing slash removed.
func NewSite(name, baseURL string) Site {
	return Site{Name: name, URL: strings.TrimRight(baseURL, "/")}
}

func (s Site) organization() Document {
	return Document{
		"@type": "Organization",
		"name":  s.Name,
		"url":   s.URL,
		"logo":  s.URL + "/static/img/logo.png",
	}
}

// Home describes the landing page with a catalog search action.
func (s Site) Home() Document {
	return Document{
		"@context":    schemaContext,
		"@type":       "WebSite",
		"name":        s.Name,
		"url":         s.URL,
		"description": "Plataforma de cursos online en normativas API, ASME, NFPA y más.",
		"potentialAction": Document{
			"@type":       "SearchAction",
			"target":      s.URL + "/cursos?q={search_term_string}",
			"query-input": "required name=search_term_string",
		},
	}
}

// Blog describes the blog index.
func (s Site) Blog() Document {
	return Document{
		"@context":    schemaContext,
		"@type":       "WebSite",
		"name":        s.Name,
		"url":         s.URL + "/blog",
		"description": "Blog de IQEngi con artículos sobre normativas API, ASME, NFPA y más.",
	}
}

// Courses lists courses in catalog order.
func (s Site) Courses(courses []domain.Course) Document {
	items := make([]Document, 0, len(courses))
	for i, c := range courses {
		items = append(items, Document{
			"@type":    "ListItem",
			"position": i + 1,
			"item": Document{
				"@type": "Course",
				"name":  c.Title,
				"url":   s.courseURL(c.Slug),
			},
		})
	}
	return Document{
		"@context":        schemaContext,
		"@type":           "ItemList",
		"name":            "Lista de Cursos en IQEngi",
		"description":     "Encuentra cursos de normativas API, ASME, NFPA y más.",
		"itemListElement": items,
	}
}

// Course describes a single course with an offer priced in the currency the
// page was rendered with.
func (s Site) Course(c domain.Course, today time.Time) Document {
	doc := Document{
		"@context":    schemaContext,
		"@type":       "Course",
		"name":        c.Title,
		"description": c.ShortDescription,
		"url":         s.courseURL(c.Slug),
		"provider":    s.organization(),
		"offers": Document{
			"@type":         "Offer",
			"category":      offerCategory(c.Price),
			"price":         strconv.FormatFloat(c.Price, 'f', 2, 64),
			"priceCurrency": c.Currency,
			"availability":  "https://schema.org/InStock",
			"validFrom":     today.Format(time.DateOnly),
		},
	}
	if c.Image.URL != "" {
		doc["image"] = c.Image.URL
	}
	if c.DurationHours > 0 {
		doc["timeRequired"] = isoHours(c.DurationHours)
	}
	if c.Rating.Count > 0 {
		doc["aggregateRating"] = Document{
			"@type":       "AggregateRating",
			"ratingValue": c.Rating.Average,
			"ratingCount": c.Rating.Count,
		}
	}
	return doc
}

// Post describes a blog article. The body excerpt is the first 200
// characters of the description.
func (s Site) Post(p domain.Post) Document {
	doc := Document{
		"@context":      schemaContext,
		"@type":         "BlogPosting",
		"headline":      p.Title,
		"url":           s.URL + "/blog/" + p.Slug,
		"author":        Document{"@type": "Person", "name": p.Author},
		"publisher":     s.organization(),
		"datePublished": p.Date.Format(time.DateOnly),
		"articleBody":   truncateRunes(p.Description, 200),
	}
	if p.Image != "" {
		doc["image"] = p.Image
	}
	if len(p.Tags) > 0 {
		doc["keywords"] = strings.Join(p.Tags, ", ")
	}
	return doc
}

func (s Site) courseURL(slug string) string {
	return s.URL + "/cursos/" + slug
}

func offerCategory(price float64) string {
	if price == 0 {
		return "Free"
	}
	return "Paid"
}

func isoHours(h float64) string {
	if h == float64(int(h)) {
		return fmt.Sprintf("PT%dH", int(h))
	}
	return fmt.Sprintf("PT%dM", int(h*60+0.5))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
