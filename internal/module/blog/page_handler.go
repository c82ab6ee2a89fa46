package blog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/seo"
)

// BlogPageHandler renders the blog pages.
type BlogPageHandler struct {
	svc  *BlogService
	site seo.Site
}

// NewBlogPageHandler creates a new BlogPageHandler.
func NewBlogPageHandler(svc *BlogService, site seo.Site) *BlogPageHandler {
	return &BlogPageHandler{svc: svc, site: site}
}

// ListPage renders the post index.
// GET /blog?tag=
func (h *BlogPageHandler) ListPage(c *gin.Context) {
	tag := c.Query("tag")
	posts := h.svc.List(c.Request.Context())
	if tag != "" {
		posts = h.svc.Tagged(c.Request.Context(), tag)
	}
	c.HTML(http.StatusOK, "blog/list.html", middleware.PageData(c, gin.H{
		"Title":  "Blog",
		"Posts":  posts,
		"Tag":    tag,
		"Source": string(domain.NewsletterBlogSection),
		"JSONLD": h.site.Blog().Script(),
	}))
}

// PostPage renders one post.
// GET /blog/:slug
func (h *BlogPageHandler) PostPage(c *gin.Context) {
	post, err := h.svc.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.HTML(domain.HTTPStatusCode(err), "errors/404.html", middleware.PageData(c, nil))
		return
	}
	c.HTML(http.StatusOK, "blog/post.html", middleware.PageData(c, gin.H{
		"Title":       post.Title,
		"Description": post.Description,
		"Post":        post,
		"Source":      string(domain.NewsletterBlogSection),
		"JSONLD":      h.site.Post(*post).Script(),
	}))
}
