package seo

import "strings"

// disallowed lists the private or low-value paths hidden from crawlers.
var disallowed = []string{
	"/admin/",
	"/privado/",
	"/dashboard/",
	"/instructor/",
	"/cuenta/",
	"/perfil/",
	"/login/",
	"/registro/",
	"/logout/",
	"/recuperar/",
	"/carrito/",
	"/checkout/",
	"/orden/",
	"/factura/",
	"/buscar/",
	"/etiquetas/",
	"/filtrar/",
	"/api/",
	"/static/",
	"/uploads/",
	"/temp/",
}

// Robots renders robots.txt for a site served at siteURL.
func Robots(siteURL string) string {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\n")
	for _, p := range disallowed {
		b.WriteString("Disallow: ")
		b.WriteString(p)
		b.WriteByte('\n')
	}
	b.WriteString("Sitemap: ")
	b.WriteString(strings.TrimRight(siteURL, "/"))
	b.WriteString("/sitemap-index.xml")
	return b.String()
}
