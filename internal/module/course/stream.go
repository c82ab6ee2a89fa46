package course

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/iqengi/site/internal/catalog"
	"github.com/iqengi/site/internal/domain"
	"github.com/iqengi/site/internal/middleware"
	"github.com/iqengi/site/internal/price"
)

// PricesEventName is the server-sent event carrying refreshed prices.
const PricesEventName = "prices"

const defaultKeepAlive = 25 * time.Second

// refresher refetches prices in a new currency. It may return
// catalog.ErrSuperseded when a newer refresh overtook it.
type refresher func(ctx context.Context, currency string) ([]PriceUpdate, error)

type refreshResult struct {
	currency string
	prices   []PriceUpdate
	err      error
}

// streamPrices subscribes to the visitor's currency changes and pushes a
// prices event for each one. Every change starts its own refresh; results
// of superseded refreshes are dropped and failed ones keep the prices the
// page already shows.
func (h *CoursePageHandler) streamPrices(c *gin.Context, current string, refresh refresher) {
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.broker.Subscribe(middleware.GetVisitorID(c))
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	// Nothing is sent until the first currency change, so open the stream now.
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	results := make(chan refreshResult)

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	sent := current
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.C:
			if !ok {
				return false
			}
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				prices, err := refresh(ctx, code)
				select {
				case results <- refreshResult{currency: code, prices: prices, err: err}:
				case <-ctx.Done():
				}
			}(msg.Currency)
			return true
		case res := <-results:
			switch {
			case errors.Is(res.err, catalog.ErrSuperseded):
			case res.err != nil:
				slog.WarnContext(ctx, "price refresh failed, keeping shown prices",
					slog.String("currency", res.currency),
					slog.String("error", res.err.Error()),
				)
			case res.currency != sent:
				sent = res.currency
				c.SSEvent(PricesEventName, PricesEvent{Currency: res.currency, Prices: res.prices})
			}
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", "")
			return true
		}
	})
}

// CatalogEvents streams price updates for the courses of a catalog view.
// GET /cursos/eventos
func (h *CoursePageHandler) CatalogEvents(c *gin.Context) {
	q := h.parseQuery(c)
	code := visitorCurrency(c, h.currency)
	tag := price.Negotiate(c.GetHeader("Accept-Language"))

	cat, err := catalog.Load(c.Request.Context(), h.svc.Source(), h.svc.Config(), code, q.Loaded, q.Exhausted)
	if err != nil {
		h.streamError(c, err)
		return
	}

	h.streamPrices(c, code, func(ctx context.Context, currency string) ([]PriceUpdate, error) {
		if err := cat.ChangeCurrency(ctx, currency); err != nil {
			return nil, err
		}
		return priceUpdates(cat.Courses(), tag), nil
	})
}

// CourseEvents streams price updates for one course.
// GET /cursos/:slug/eventos
func (h *CoursePageHandler) CourseEvents(c *gin.Context) {
	code := visitorCurrency(c, h.currency)
	tag := price.Negotiate(c.GetHeader("Accept-Language"))

	course, err := h.svc.BySlug(c.Request.Context(), c.Param("slug"), code)
	if err != nil {
		h.streamError(c, err)
		return
	}

	tracker := catalog.NewPriceTracker(h.svc.Source(), course.ID, course.Price, code)
	h.streamPrices(c, code, func(ctx context.Context, currency string) ([]PriceUpdate, error) {
		amount, err := tracker.Refresh(ctx, currency)
		if err != nil {
			return nil, err
		}
		refreshed := *course
		refreshed.Price = amount
		refreshed.Currency = currency
		return priceUpdates([]domain.Course{refreshed}, tag), nil
	})
}

// streamError answers a stream that could not start. 204 tells the htmx
// SSE extension not to reconnect for a missing course.
func (h *CoursePageHandler) streamError(c *gin.Context, err error) {
	if domain.IsNotFound(err) {
		c.Status(http.StatusNoContent)
		return
	}
	slog.WarnContext(c.Request.Context(), "price stream unavailable", slog.String("error", err.Error()))
	c.Status(http.StatusServiceUnavailable)
}

func priceUpdates(courses []domain.Course, tag language.Tag) []PriceUpdate {
	out := make([]PriceUpdate, 0, len(courses))
	for _, course := range courses {
		u := PriceUpdate{ID: course.ID, Formatted: price.Format(course.Price, course.Currency, tag)}
		if original, ok := course.OriginalPrice(); ok {
			u.Original = price.Format(original, course.Currency, tag)
		}
		out = append(out, u)
	}
	return out
}
