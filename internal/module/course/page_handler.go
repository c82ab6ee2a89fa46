package course

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	currencysvc "github.com/iqengi/site/internal/currency"
	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/pkg"
	"github.com/iqengi/site/internal/price"
	"github.com/iqengi/site/internal/seo"
)

const loadFailedMessage = "No se pudieron cargar los cursos. Inténtalo de nuevo."

// PageOptions configures the catalog page.
type PageOptions struct {
	PageSizes       []int
	DefaultPageSize int
}

// CoursePageHandler renders the catalog and course pages, their htmx
// partials and price event streams.
type CoursePageHandler struct {
	svc       *CourseService
	currency  domain.CurrencyService
	broker    currencysvc.Broker
	favorites domain.PreferenceService
	site      seo.Site
	opts      PageOptions
	keepAlive time.Duration
}

// NewCoursePageHandler creates a CoursePageHandler. favorites may be nil,
// in which case course pages never show a saved state.
func NewCoursePageHandler(svc *CourseService, currency domain.CurrencyService, broker currencysvc.Broker, favorites domain.PreferenceService, site seo.Site, opts PageOptions) *CoursePageHandler {
	if len(opts.PageSizes) == 0 {
		opts.PageSizes = []int{6, 9, 12, 24}
	}
	if !slices.Contains(opts.PageSizes, opts.DefaultPageSize) {
		opts.DefaultPageSize = opts.PageSizes[0]
	}
	return &CoursePageHandler{
		svc:       svc,
		currency:  currency,
		broker:    broker,
		favorites: favorites,
		site:      site,
		opts:      opts,
		keepAlive: defaultKeepAlive,
	}
}

func (h *CoursePageHandler) parseQuery(c *gin.Context) pkg.CatalogQuery {
	return pkg.ParseCatalogQuery(c, h.opts.PageSizes, h.opts.DefaultPageSize)
}

// ListPage renders the catalog. htmx requests (filters, pager, load more)
// get the grid partial and the canonical URL to push.
// GET /cursos
func (h *CoursePageHandler) ListPage(c *gin.Context) {
	q := h.parseQuery(c)
	from, _ := strconv.Atoi(c.Query("desde"))
	more := c.Query("accion") == "mas"
	code := visitorCurrency(c, h.currency)
	htmx := middleware.IsHTMX(c)

	listing, err := h.svc.Browse(c.Request.Context(), code, q, from, more)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "load catalog failed", slog.String("error", err.Error()))
		if htmx {
			// Keep the grid the visitor already sees.
			c.Header("HX-Reswap", "none")
			middleware.ShowToast(c, loadFailedMessage, middleware.ToastError)
			c.Status(http.StatusOK)
			return
		}
		c.HTML(http.StatusInternalServerError, "errors/500.html", middleware.PageData(c, nil))
		return
	}

	data := middleware.PageData(c, gin.H{
		"Title":     "Cursos",
		"Listing":   listing,
		"PageSizes": h.opts.PageSizes,
		"Price":     price.Formatter{Tag: price.Negotiate(c.GetHeader("Accept-Language"))},
		"Saved":     h.savedIDs(c),
	})

	if htmx {
		c.Header("HX-Push-Url", catalogURL(listing.Query))
		switch {
		case listing.MoreFailed:
			middleware.ShowToast(c, loadFailedMessage, middleware.ToastError)
		case listing.View.Scroll:
			c.Header("HX-Trigger-After-Settle", "scrollToCatalog")
		}
		c.HTML(http.StatusOK, "course/grid.html", data)
		return
	}

	data["JSONLD"] = h.site.Courses(listing.View.Items).Script()
	c.HTML(http.StatusOK, "course/list.html", data)
}

// DetailPage renders one course.
// GET /cursos/:slug
func (h *CoursePageHandler) DetailPage(c *gin.Context) {
	code := visitorCurrency(c, h.currency)

	course, err := h.svc.BySlug(c.Request.Context(), c.Param("slug"), code)
	if err != nil {
		if domain.IsNotFound(err) {
			c.HTML(http.StatusNotFound, "errors/404.html", middleware.PageData(c, nil))
			return
		}
		slog.ErrorContext(c.Request.Context(), "load course failed",
			slog.String("slug", c.Param("slug")),
			slog.String("error", err.Error()),
		)
		c.HTML(http.StatusInternalServerError, "errors/500.html", middleware.PageData(c, nil))
		return
	}

	c.HTML(http.StatusOK, "course/detail.html", middleware.PageData(c, gin.H{
		"Title":  course.Title,
		"Course": course,
		"Price":  price.Formatter{Tag: price.Negotiate(c.GetHeader("Accept-Language"))},
		"Saved":  h.savedIDs(c),
		"JSONLD": h.site.Course(*course, time.Now()).Script(),
	}))
}

// savedIDs returns the ids of the visitor's favourite courses.
func (h *CoursePageHandler) savedIDs(c *gin.Context) map[string]bool {
	saved := map[string]bool{}
	if h.favorites == nil {
		return saved
	}
	favs, err := h.favorites.Favorites(c.Request.Context(), middleware.GetVisitorID(c))
	if err != nil {
		slog.WarnContext(c.Request.Context(), "load favorites failed", slog.String("error", err.Error()))
		return saved
	}
	for _, f := range favs {
		saved[f.ID] = true
	}
	return saved
}

func catalogURL(q pkg.CatalogQuery) string {
	if enc := q.Encode(); enc != "" {
		return "/cursos?" + enc
	}
	return "/cursos"
}
