package blog

import (
	"context"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/iqengi/site/internal/domain"
)

// BlogService serves published posts loaded once at startup.
type BlogService struct {
	posts  []domain.Post
	bySlug map[string]int
	logger *slog.Logger
}

// NewBlogService loads the posts under fsys. Drafts are kept out of every
// listing and lookup.
func NewBlogService(fsys fs.FS, logger *slog.Logger) (*BlogService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	all, err := LoadPosts(fsys)
	if err != nil {
		return nil, err
	}

	s := &BlogService{bySlug: make(map[string]int, len(all)), logger: logger}
	drafts := 0
	for _, p := range all {
		if p.Draft {
			drafts++
			continue
		}
		s.bySlug[p.Slug] = len(s.posts)
		s.posts = append(s.posts, p)
	}
	logger.Info("blog: posts loaded", slog.Int("published", len(s.posts)), slog.Int("drafts", drafts))
	return s, nil
}

// List returns published posts, newest first.
func (s *BlogService) List(_ context.Context) []domain.Post {
	out := make([]domain.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Recent returns at most n published posts, newest first.
func (s *BlogService) Recent(ctx context.Context, n int) []domain.Post {
	posts := s.List(ctx)
	if n >= 0 && n < len(posts) {
		posts = posts[:n]
	}
	return posts
}

// BySlug returns the published post with slug.
func (s *BlogService) BySlug(_ context.Context, slug string) (*domain.Post, error) {
	i, ok := s.bySlug[strings.ToLower(strings.Trim(slug, "/ "))]
	if !ok {
		return nil, domain.NewAppError(domain.CodeNotFound, "post not found", nil)
	}
	p := s.posts[i]
	return &p, nil
}

// Tagged returns published posts carrying tag, compared case-insensitively.
func (s *BlogService) Tagged(ctx context.Context, tag string) []domain.Post {
	var out []domain.Post
	for _, p := range s.List(ctx) {
		for _, t := range p.Tags {
			if strings.EqualFold(t, tag) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
