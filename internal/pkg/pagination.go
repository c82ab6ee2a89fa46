package pkg

import (
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// Query keys carrying the catalog view state.
const (
	QuerySearch    = "q"
	QueryCategory  = "categoria"
	QuerySort      = "orden"
	QueryPage      = "pagina"
	QueryPageSize  = "por_pagina"
	QueryLoaded    = "cargados"
	QueryExhausted = "agotado"
)

const (
	defaultPage     = 1
	maxSearchLength = 100
	maxLoaded       = 480
	defaultLimit    = 24
	maxLimit        = 100
)

// validID matches backend identifiers: letters, digits, '-' and '_'.
var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// allowedSorts lists the accepted sort keys.
var allowedSorts = []string{"recent", "price_asc", "price_desc"}

// CatalogQuery is the client-side catalog state round-tripped through the URL.
// Exhausted records that the server ran out of courses, so a rebuilt
// catalog must not offer load more again.
type CatalogQuery struct {
	Search    string
	Category  string
	Sort      string
	Page      int
	PageSize  int
	Loaded    int
	Exhausted bool
}

// ParseCatalogQuery reads the catalog state from query params. Unknown sort
// keys, malformed category ids and page sizes outside pageSizes fall back to
// defaults; the search term is trimmed and capped.
func ParseCatalogQuery(c *gin.Context, pageSizes []int, defaultSize int) CatalogQuery {
	q := CatalogQuery{
		Search:    strings.TrimSpace(c.Query(QuerySearch)),
		Category:  strings.TrimSpace(c.Query(QueryCategory)),
		Sort:      strings.TrimSpace(c.Query(QuerySort)),
		Page:      intQuery(c, QueryPage, defaultPage),
		PageSize:  intQuery(c, QueryPageSize, defaultSize),
		Loaded:    intQuery(c, QueryLoaded, 0),
		Exhausted: c.Query(QueryExhausted) == "1",
	}

	if utf8.RuneCountInString(q.Search) > maxSearchLength {
		q.Search = string([]rune(q.Search)[:maxSearchLength])
	}
	if q.Category == "all" || !validID.MatchString(q.Category) {
		q.Category = ""
	}
	if !slices.Contains(allowedSorts, q.Sort) {
		q.Sort = "recent"
	}
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if len(pageSizes) > 0 && !slices.Contains(pageSizes, q.PageSize) {
		q.PageSize = defaultSize
	}
	if q.Loaded < 0 {
		q.Loaded = 0
	}
	if q.Loaded > maxLoaded {
		q.Loaded = maxLoaded
	}
	return q
}

// Values encodes q, leaving out defaults so URLs stay short.
func (q CatalogQuery) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set(QuerySearch, q.Search)
	}
	if q.Category != "" {
		v.Set(QueryCategory, q.Category)
	}
	if q.Sort != "" && q.Sort != "recent" {
		v.Set(QuerySort, q.Sort)
	}
	if q.Page > 1 {
		v.Set(QueryPage, strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set(QueryPageSize, strconv.Itoa(q.PageSize))
	}
	if q.Loaded > 0 {
		v.Set(QueryLoaded, strconv.Itoa(q.Loaded))
	}
	if q.Exhausted {
		v.Set(QueryExhausted, "1")
	}
	return v
}

// WithPage returns a copy of q on page.
func (q CatalogQuery) WithPage(page int) CatalogQuery {
	q.Page = page
	return q
}

// Encode returns the URL query string of q.
func (q CatalogQuery) Encode() string {
	return q.Values().Encode()
}

// ParseWindow reads offset/limit query params for server-paginated lists.
func ParseWindow(c *gin.Context) (offset, limit int) {
	offset = intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit = intQuery(c, "limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
