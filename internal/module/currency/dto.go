package currency

import (
	"github.com/iqengi/site/internal/domain"
)

// SelectRequest is the body of POST /api/v1/currency and POST /moneda.
type SelectRequest struct {
	Currency string `json:"currency" form:"currency" binding:"required,len=3,alpha"`
}

// StateResponse is the currency state plus the codes a visitor may pick.
type StateResponse struct {
	domain.CurrencyState
	Supported []string `json:"supported"`
}

// Event is the data of a "currency" server-sent event.
type Event struct {
	Currency string `json:"currency"`
	Origin   string `json:"origin"`
	Seq      uint64 `json:"seq,omitempty"`
}
