package blog

import (
	"time"

	"github.com/iqengi/site/internal/domain"
)

// PostSummary is a post in API listings.
type PostSummary struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Author      string    `json:"author"`
	Tags        []string  `json:"tags"`
}

// PostResponse is a full post including its rendered HTML.
type PostResponse struct {
	PostSummary
	HTML string `json:"html"`
}

func toSummary(p domain.Post) PostSummary {
	return PostSummary{
		Slug:        p.Slug,
		Title:       p.Title,
		Date:        p.Date,
		Description: p.Description,
		Image:       p.Image,
		Author:      p.Author,
		Tags:        p.Tags,
	}
}

func toSummaries(posts []domain.Post) []PostSummary {
	out := make([]PostSummary, len(posts))
	for i, p := range posts {
		out[i] = toSummary(p)
	}
	return out
}
