package domain

import "context"

// CurrencySource records where the active currency came from.
type CurrencySource string

const (
	SourceStored   CurrencySource = "stored"
	SourceUser     CurrencySource = "user"
	SourceTimezone CurrencySource = "timezone"
	SourceNetwork  CurrencySource = "network"
	SourceDefault  CurrencySource = "default"
)

// Confidence tags a detection result. Low results come from the local
// timezone heuristic; High results are stored or network-confirmed.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceHigh
)

func (c Confidence) String() string {
	if c == ConfidenceHigh {
		return "high"
	}
	return "low"
}

// CurrencyHints carries what a request knows about the visitor's locale.
type CurrencyHints struct {
	Timezone string
	IP       string
}

// CurrencyState is the selection state shared by every consumer of one visitor.
type CurrencyState struct {
	Currency   string         `json:"currency"`
	Detected   string         `json:"detectedCurrency"`
	IsLoading  bool           `json:"isLoading"`
	Source     CurrencySource `json:"source"`
	Confidence Confidence     `json:"-"`
}

// CurrencyService resolves and changes the active currency of a visitor.
type CurrencyService interface {
	State(ctx context.Context, visitor string, hints CurrencyHints) (CurrencyState, error)
	Select(ctx context.Context, visitor, code string) (CurrencyState, error)
	Supported() []string
}
