package currency

import (
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	currencysvc "github.com/iqengi/site/internal/currency"
	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/pkg"
)

// EventName is the server-sent event carrying currency changes.
const EventName = "currency"

const defaultKeepAlive = 25 * time.Second

// CurrencyHandler handles the currency REST API and its event stream.
type CurrencyHandler struct {
	svc       domain.CurrencyService
	broker    currencysvc.Broker
	keepAlive time.Duration
}

// NewCurrencyHandler creates a new CurrencyHandler. broker feeds the event stream.
func NewCurrencyHandler(svc domain.CurrencyService, broker currencysvc.Broker) *CurrencyHandler {
	return &CurrencyHandler{svc: svc, broker: broker, keepAlive: defaultKeepAlive}
}

// State handles GET /api/v1/currency.
func (h *CurrencyHandler) State(c *gin.Context) {
	state, err := h.svc.State(c.Request.Context(), middleware.GetVisitorID(c), middleware.CurrencyHints(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, StateResponse{CurrencyState: state, Supported: h.svc.Supported()})
}

// Select handles POST /api/v1/currency.
func (h *CurrencyHandler) Select(c *gin.Context) {
	var req SelectRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	state, err := h.svc.Select(c.Request.Context(), middleware.GetVisitorID(c), req.Currency)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, StateResponse{CurrencyState: state, Supported: h.svc.Supported()})
}

// Events handles GET /api/v1/currency/events. The stream opens with the
// current currency and then sends every change for the visitor, skipping
// values equal to the last one sent.
func (h *CurrencyHandler) Events(c *gin.Context) {
	ctx := c.Request.Context()
	visitor := middleware.GetVisitorID(c)

	sub := h.broker.Subscribe(visitor)
	defer sub.Close()

	state, err := h.svc.State(ctx, visitor, middleware.CurrencyHints(c))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	last := ""
	send := func(ev Event) {
		if ev.Currency == last {
			return
		}
		last = ev.Currency
		c.SSEvent(EventName, ev)
	}

	first := true
	c.Stream(func(io.Writer) bool {
		if first {
			first = false
			send(Event{Currency: state.Currency, Origin: string(state.Source)})
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.C:
			if !ok {
				return false
			}
			send(Event{Currency: msg.Currency, Origin: string(msg.Origin), Seq: msg.Seq})
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", "")
			return true
		}
	})

	slog.DebugContext(ctx, "currency stream closed", slog.String("last", last))
}
