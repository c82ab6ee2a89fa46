package domain

import (
	"context"
	"strings"
)

// NewsletterSource is the GraphQL enum naming where a signup came from.
type NewsletterSource string

const (
	NewsletterWebFooter   NewsletterSource = "WEB_FOOTER"
	NewsletterBlogSection NewsletterSource = "BLOG_SECTION"
)

// NewsletterResult is the structured payload of the subscribe mutation.
type NewsletterResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewsletterSubscriber performs the subscribe mutation.
type NewsletterSubscriber interface {
	Subscribe(ctx context.Context, email string, source NewsletterSource) (*NewsletterResult, error)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
