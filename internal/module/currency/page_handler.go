package currency

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
)

// CurrencyPageHandler renders the currency selector partial and handles
// its htmx submissions.
type CurrencyPageHandler struct {
	svc domain.CurrencyService
}

// NewCurrencyPageHandler creates a new CurrencyPageHandler with the given service.
func NewCurrencyPageHandler(svc domain.CurrencyService) *CurrencyPageHandler {
	return &CurrencyPageHandler{svc: svc}
}

// Selector renders the selector for the visitor's current state.
// GET /moneda
func (h *CurrencyPageHandler) Selector(c *gin.Context) {
	state, err := h.svc.State(c.Request.Context(), middleware.GetVisitorID(c), middleware.CurrencyHints(c))
	if err != nil {
		slog.WarnContext(c.Request.Context(), "currency state failed", slog.String("error", err.Error()))
	}
	h.render(c, state)
}

// SelectHTMX stores the chosen currency. The new state reaches other
// consumers through the event stream; the caller also gets a
// currencyChanged trigger.
// POST /moneda
func (h *CurrencyPageHandler) SelectHTMX(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Header("HX-Reswap", "none")
		middleware.ShowToast(c, "Selecciona una moneda válida.", middleware.ToastError)
		c.Status(http.StatusOK)
		return
	}

	state, err := h.svc.Select(c.Request.Context(), middleware.GetVisitorID(c), req.Currency)
	if err != nil {
		c.Header("HX-Reswap", "none")
		middleware.ShowToast(c, domain.UserMessage(err, "No se pudo cambiar la moneda."), middleware.ToastError)
		c.Status(http.StatusOK)
		return
	}

	trigger, _ := json.Marshal(map[string]any{
		"currencyChanged": map[string]string{"currency": state.Currency},
	})
	c.Header("HX-Trigger", string(trigger))
	h.render(c, state)
}

func (h *CurrencyPageHandler) render(c *gin.Context, state domain.CurrencyState) {
	c.HTML(http.StatusOK, "currency/selector.html", middleware.PageData(c, gin.H{
		"State":     state,
		"Supported": h.svc.Supported(),
	}))
}
