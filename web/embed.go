// Package web embeds the templates, static assets and blog posts served by
// the site.
package web

import "embed"

// EmbeddedFS holds templates/, static/ and content/. Release builds serve
// from it; debug mode reads the same tree from disk.
//
//go:embed templates static content
var EmbeddedFS embed.FS
