package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/iqengi/site/internal/domain"
)

// PriceTracker keeps one course's displayed price in step with the active
// currency. Only the newest refresh may update it.
type PriceTracker struct {
	fetcher  domain.CourseFetcher
	courseID string

	mu       sync.Mutex
	price    float64
	currency string
	ticket   uint64
}

// NewPriceTracker starts from the server-rendered price.
func NewPriceTracker(fetcher domain.CourseFetcher, courseID string, price float64, currency string) *PriceTracker {
	return &PriceTracker{fetcher: fetcher, courseID: courseID, price: price, currency: currency}
}

// Current returns the last applied price and its currency.
func (p *PriceTracker) Current() (float64, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.price, p.currency
}

// Refresh fetches the price in currency. It is a no-op when the price is
// already in currency. On error the previous price is kept; a refresh
// overtaken by a newer one returns ErrSuperseded.
func (p *PriceTracker) Refresh(ctx context.Context, currency string) (float64, error) {
	p.mu.Lock()
	if currency == p.currency {
		price := p.price
		p.mu.Unlock()
		return price, nil
	}
	p.ticket++
	ticket := p.ticket
	p.mu.Unlock()

	price, err := p.fetcher.CoursePrice(ctx, p.courseID, currency)

	p.mu.Lock()
	defer p.mu.Unlock()
	if ticket != p.ticket {
		return p.price, ErrSuperseded
	}
	if err != nil {
		return p.price, fmt.Errorf("refresh price of %s: %w", p.courseID, err)
	}
	p.price = price
	p.currency = currency
	return price, nil
}
