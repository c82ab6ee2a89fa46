package newsletter

import "github.com/iqengi/site/internal/domain"

// SubscribeRequest is the body of POST /api/v1/newsletter.
type SubscribeRequest struct {
	Email  string `json:"email" binding:"required,email,max=254"`
	Source string `json:"source" binding:"omitempty,oneof=WEB_FOOTER BLOG_SECTION"`
}

// SubscribeResponse is the data member of a successful subscription.
type SubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubscribeForm is the htmx form post of a newsletter form.
type SubscribeForm struct {
	Email  string `form:"email" binding:"max=254"`
	Source string `form:"source"`
}

// parseSource returns the form's source when it is a known one.
func parseSource(s string) domain.NewsletterSource {
	switch src := domain.NewsletterSource(s); src {
	case domain.NewsletterWebFooter, domain.NewsletterBlogSection:
		return src
	}
	return ""
}
