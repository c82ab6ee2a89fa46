package domain

import (
	"context"
	"strings"
)

// Image is a course cover image.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Category is immutable reference data used to filter the catalog.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Rating summarises course reviews.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Course is a read-only catalog entry owned by the backend.
//
// Price is denominated in Currency, which is always the currency passed to
// the query that produced the course. Changing currency means fetching again.
type Course struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	ShortDescription string     `json:"short_description"`
	Slug             string     `json:"slug"`
	Image            Image      `json:"image"`
	Price            float64    `json:"price"`
	Currency         string     `json:"currency"`
	Discount         *float64   `json:"discount,omitempty"`
	DurationHours    float64    `json:"duration_hours"`
	Categories       []Category `json:"categories"`
	Rating           Rating     `json:"rating"`
	Deleted          bool       `json:"deleted"`
}

// HasCategory reports whether the course references the category id.
func (c Course) HasCategory(id string) bool {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return true
		}
	}
	return false
}

// Matches reports whether term is a case-insensitive substring of the title
// or the short description. An empty term matches everything.
func (c Course) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Title), term) ||
		strings.Contains(strings.ToLower(c.ShortDescription), term)
}

// OriginalPrice returns the pre-discount price. Price already has the
// discount applied, so the original is Price / (1 - Discount/100).
func (c Course) OriginalPrice() (float64, bool) {
	if c.Discount == nil || *c.Discount <= 0 || *c.Discount >= 100 {
		return 0, false
	}
	return c.Price / (1 - *c.Discount/100), true
}

// CourseQuery selects a page of courses priced in Currency.
type CourseQuery struct {
	Offset   int
	Limit    int
	Currency string
}

// CourseFetcher reads courses from the backend. Every call is a fresh
// request so prices reflect the exact currency asked for.
type CourseFetcher interface {
	ListCourses(ctx context.Context, q CourseQuery) ([]Course, error)
	CoursePrice(ctx context.Context, courseID, currency string) (float64, error)
}

// CourseSource extends CourseFetcher with the lookups page handlers need.
type CourseSource interface {
	CourseFetcher
	CourseBySlug(ctx context.Context, slug, currency string) (*Course, error)
	Categories(ctx context.Context) ([]Category, error)
}
