package course

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/pkg"
	"github.com/iqengi/site/internal/price"
)

// CourseHandler handles REST API requests for courses.
type CourseHandler struct {
	svc      *CourseService
	currency domain.CurrencyService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(svc *CourseService, currency domain.CurrencyService) *CourseHandler {
	return &CourseHandler{svc: svc, currency: currency}
}

// List handles GET /api/v1/courses?offset=&limit=&currency=.
func (h *CourseHandler) List(c *gin.Context) {
	code, ok := resolveCurrency(c, h.currency)
	if !ok {
		return
	}
	offset, limit := pkg.ParseWindow(c)

	courses, err := h.svc.List(c.Request.Context(), offset, limit, code)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, courses, pkg.ListMeta{Offset: offset, Limit: limit, Currency: code})
}

// Price handles GET /api/v1/courses/:id/price?currency=.
func (h *CourseHandler) Price(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	code, ok := resolveCurrency(c, h.currency)
	if !ok {
		return
	}

	amount, err := h.svc.Price(c.Request.Context(), id, code)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, PriceResponse{
		ID:        id,
		Price:     amount,
		Currency:  code,
		Formatted: price.Format(amount, code, price.Negotiate(c.GetHeader("Accept-Language"))),
	})
}

// Categories handles GET /api/v1/categories.
func (h *CourseHandler) Categories(c *gin.Context) {
	list, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	if list == nil {
		list = []domain.Category{}
	}
	pkg.Success(c, list)
}

// resolveCurrency returns the currency query param when given, otherwise
// the visitor's active currency. An unsupported code answers 400.
func resolveCurrency(c *gin.Context, svc domain.CurrencyService) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(c.Query("currency")))
	if code == "" {
		return visitorCurrency(c, svc), true
	}
	if !slices.Contains(svc.Supported(), code) {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "moneda no soportada: "+code, nil))
		return "", false
	}
	return code, true
}

// visitorCurrency returns the visitor's active currency. A failing lookup
// yields the first supported code.
func visitorCurrency(c *gin.Context, svc domain.CurrencyService) string {
	state, err := svc.State(c.Request.Context(), middleware.GetVisitorID(c), middleware.CurrencyHints(c))
	if err == nil && state.Currency != "" {
		return state.Currency
	}
	if supported := svc.Supported(); len(supported) > 0 {
		return supported[0]
	}
	return "USD"
}
