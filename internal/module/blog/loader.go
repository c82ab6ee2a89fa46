package blog

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"

	"github.com/iqengi/site/internal/domain"
)

var frontMatterDelim = []byte("---")

// frontMatter is the YAML header of a post file.
type frontMatter struct {
	Title       string   `yaml:"title" validate:"required"`
	Date        string   `yaml:"date" validate:"required"`
	Description string   `yaml:"description" validate:"required"`
	Image       string   `yaml:"image" validate:"required"`
	Draft       bool     `yaml:"draft"`
	Slug        string   `yaml:"slug"`
	Author      string   `yaml:"author" validate:"required"`
	Tags        []string `yaml:"tags" validate:"required,dive,required"`
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	validate = validator.New()
)

// LoadPosts reads every .md file under fsys, drafts included, newest first.
// A file with invalid front matter fails the whole load.
func LoadPosts(fsys fs.FS) ([]domain.Post, error) {
	var posts []domain.Post
	seen := map[string]string{}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".md") {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		post, err := ParsePost(p, raw)
		if err != nil {
			return err
		}
		if prev, ok := seen[post.Slug]; ok {
			return fmt.Errorf("blog: %s: slug %q already used by %s", p, post.Slug, prev)
		}
		seen[post.Slug] = p
		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Slug < posts[j].Slug
		}
		return posts[i].Date.After(posts[j].Date)
	})
	return posts, nil
}

// ParsePost parses one markdown file. The slug defaults to the lowercased
// file name without its extension.
func ParsePost(name string, raw []byte) (domain.Post, error) {
	header, body, err := splitFrontMatter(raw)
	if err != nil {
		return domain.Post{}, fmt.Errorf("blog: %s: %w", name, err)
	}

	var fm frontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return domain.Post{}, fmt.Errorf("blog: %s: front matter: %w", name, err)
	}
	if err := validate.Struct(fm); err != nil {
		return domain.Post{}, fmt.Errorf("blog: %s: front matter: %w", name, err)
	}
	date, err := parseDate(fm.Date)
	if err != nil {
		return domain.Post{}, fmt.Errorf("blog: %s: %w", name, err)
	}

	var html bytes.Buffer
	if err := markdown.Convert(body, &html); err != nil {
		return domain.Post{}, fmt.Errorf("blog: %s: markdown: %w", name, err)
	}

	slug := strings.Trim(strings.TrimSpace(fm.Slug), "/")
	if slug == "" {
		base := path.Base(name)
		slug = strings.ToLower(strings.TrimSuffix(base, path.Ext(base)))
	}

	return domain.Post{
		Slug:        slug,
		Title:       fm.Title,
		Date:        date,
		Description: fm.Description,
		Image:       fm.Image,
		Draft:       fm.Draft,
		Author:      fm.Author,
		Tags:        fm.Tags,
		// goldmark drops raw HTML unless WithUnsafe is set.
		Body: template.HTML(html.String()),
	}, nil
}

func splitFrontMatter(raw []byte) (header, body []byte, err error) {
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(raw, frontMatterDelim) {
		return nil, nil, errors.New("missing front matter")
	}
	rest := raw[len(frontMatterDelim):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || len(bytes.TrimSpace(rest[:nl])) != 0 {
		return nil, nil, errors.New("malformed front matter opening")
	}
	rest = rest[nl+1:]

	for off := 0; off < len(rest); {
		end := bytes.IndexByte(rest[off:], '\n')
		line := rest[off:]
		next := len(rest)
		if end >= 0 {
			line = rest[off : off+end]
			next = off + end + 1
		}
		if bytes.Equal(bytes.TrimRight(line, " \t"), frontMatterDelim) {
			return rest[:off], rest[next:], nil
		}
		off = next
	}
	return nil, nil, errors.New("unterminated front matter")
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
