package blog

import (
	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/pkg"
)

// BlogHandler handles the blog JSON API.
type BlogHandler struct {
	svc *BlogService
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(svc *BlogService) *BlogHandler {
	return &BlogHandler{svc: svc}
}

// List returns published posts, optionally filtered by tag.
// GET /api/v1/posts?tag=
func (h *BlogHandler) List(c *gin.Context) {
	posts := h.svc.List(c.Request.Context())
	if tag := c.Query("tag"); tag != "" {
		posts = h.svc.Tagged(c.Request.Context(), tag)
	}
	pkg.Success(c, toSummaries(posts))
}

// Get returns one published post.
// GET /api/v1/posts/:slug
func (h *BlogHandler) Get(c *gin.Context) {
	post, err := h.svc.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, PostResponse{PostSummary: toSummary(*post), HTML: string(post.Body)})
}
