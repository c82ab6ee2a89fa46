package seo

import (
	"encoding/xml"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// URL is one sitemap entry.
type URL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	NS      string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type sitemapRef struct {
	Loc string `xml:"loc"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	NS       string       `xml:"xmlns,attr"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

// NewURL builds an entry for path under the site, with an optional last
// modification date.
func (s Site) NewURL(path string, modified time.Time) URL {
	u := URL{Loc: s.URL + path}
	if !modified.IsZero() {
		u.LastMod = modified.Format(time.DateOnly)
	}
	return u
}

// SitemapIndex renders the index pointing at the single URL set.
func (s Site) SitemapIndex() ([]byte, error) {
	return marshalXML(sitemapIndex{
		NS:       sitemapNS,
		Sitemaps: []sitemapRef{{Loc: s.URL + "/sitemap-0.xml"}},
	})
}

// Sitemap renders urls as a URL set.
func Sitemap(urls []URL) ([]byte, error) {
	return marshalXML(urlSet{NS: sitemapNS, URLs: urls})
}

func marshalXML(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
