package domain

import (
	"html/template"
	"time"
)

// Post is a blog article loaded from markdown content.
type Post struct {
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Date        time.Time     `json:"date"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	Draft       bool          `json:"draft"`
	Author      string        `json:"author"`
	Tags        []string      `json:"tags"`
	Body        template.HTML `json:"-"`
}
