package course

// PriceResponse is the data of GET /api/v1/courses/:id/price.
type PriceResponse struct {
	ID        string  `json:"id"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}

// PriceUpdate is one course price pushed on the catalog and course event
// streams. Original is set for discounted courses.
type PriceUpdate struct {
	ID        string `json:"id"`
	Formatted string `json:"formatted"`
	Original  string `json:"original,omitempty"`
}

// PricesEvent is the data of a "prices" server-sent event.
type PricesEvent struct {
	Currency string        `json:"currency"`
	Prices   []PriceUpdate `json:"prices"`
}
