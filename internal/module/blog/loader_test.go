package blog

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

const samplePost = `---
title: Soldadura segura
date: 2025-03-10
description: Buenas prácticas en taller.
image: /img/soldadura.webp
author: Equipo IqEngi
tags: [soldadura, seguridad]
---
# Introducción

Texto con **negrita** y <script>alert(1)</script>.
`

func TestParsePost(t *testing.T) {
	post, err := ParsePost("Soldadura-Segura.md", []byte(samplePost))
	if err != nil {
		t.Fatalf("ParsePost: %v", err)
	}
	if post.Slug != "soldadura-segura" {
		t.Errorf("slug = %q", post.Slug)
	}
	if !post.Date.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", post.Date)
	}
	if post.Draft {
		t.Error("draft should default to false")
	}
	if len(post.Tags) != 2 || post.Tags[1] != "seguridad" {
		t.Errorf("tags = %v", post.Tags)
	}
	body := string(post.Body)
	if !strings.Contains(body, `<h1 id="`) || !strings.Contains(body, "Introducción</h1>") || !strings.Contains(body, "<strong>negrita</strong>") {
		t.Errorf("body = %s", body)
	}
	if strings.Contains(body, "<script>") {
		t.Error("raw HTML should not be rendered")
	}
}

func TestParsePost_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no front matter", "# hola"},
		{"unterminated", "---\ntitle: x\n"},
		{"missing required field", strings.Replace(samplePost, "author: Equipo IqEngi\n", "", 1)},
		{"empty tag", strings.Replace(samplePost, "[soldadura, seguridad]", `["", seguridad]`, 1)},
		{"bad date", strings.Replace(samplePost, "2025-03-10", "ayer", 1)},
		{"bad yaml", strings.Replace(samplePost, "tags: [soldadura, seguridad]", "tags: [soldadura", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePost("post.md", []byte(tt.raw)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParsePost_SlugAndCRLF(t *testing.T) {
	raw := strings.ReplaceAll(strings.Replace(samplePost, "tags:", "slug: /guia-soldadura/\ntags:", 1), "\n", "\r\n")
	post, err := ParsePost("a/b.md", []byte(raw))
	if err != nil {
		t.Fatalf("ParsePost: %v", err)
	}
	if post.Slug != "guia-soldadura" {
		t.Errorf("slug = %q", post.Slug)
	}
}

func postFile(title, date string, draft bool) *fstest.MapFile {
	d := "false"
	if draft {
		d = "true"
	}
	return &fstest.MapFile{Data: []byte("---\ntitle: " + title + "\ndate: " + date +
		"\ndescription: d\nimage: /i.webp\nauthor: a\ntags: [x]\ndraft: " + d + "\n---\nbody\n")}
}

func TestLoadPosts(t *testing.T) {
	fsys := fstest.MapFS{
		"old.md":         postFile("Viejo", "2024-01-01", false),
		"nested/new.md":  postFile("Nuevo", "2025-06-01", false),
		"borrador.md":    postFile("Borrador", "2025-07-01", true),
		"notes.txt":      {Data: []byte("ignored")},
		"nested/img.png": {Data: []byte{0x89}},
	}
	posts, err := LoadPosts(fsys)
	if err != nil {
		t.Fatalf("LoadPosts: %v", err)
	}
	var slugs []string
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	if got := strings.Join(slugs, ","); got != "borrador,new,old" {
		t.Errorf("slugs = %s", got)
	}
}

func TestLoadPosts_DuplicateSlug(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md": postFile("A", "2024-01-01", false),
		"A.md": postFile("B", "2024-01-02", false),
	}
	if _, err := LoadPosts(fsys); err == nil {
		t.Error("expected duplicate slug error")
	}
}
