package currency

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/iqengi/site/internal/domain"
)

// DefaultLookupTimeout bounds the network correction.
const DefaultLookupTimeout = 5 * time.Second

// ErrMalformedLookup is returned when the lookup answers something other
// than a three-letter code.
var ErrMalformedLookup = errors.New("currency lookup returned a malformed code")

// Lookup resolves the local currency of an IP address.
type Lookup interface {
	CurrencyForIP(ctx context.Context, ip string) (string, error)
}

// Result is a confidence-tagged detection outcome.
type Result struct {
	Currency   string
	Source     domain.CurrencySource
	Confidence domain.Confidence
}

// DetectorConfig configures a Detector. Zero values fall back to the package
// defaults.
type DetectorConfig struct {
	Supported []string
	Default   string
	Timeout   time.Duration
	// DevCurrency is returned for loopback clients instead of calling the lookup.
	DevCurrency string
}

// Detector is a two-stage resolver: a fast local guess from the timezone and
// a slower network correction from the client IP.
type Detector struct {
	lookup      Lookup
	supported   []string
	fallback    string
	timeout     time.Duration
	devCurrency string
}

// NewDetector creates a Detector backed by lookup.
func NewDetector(lookup Lookup, cfg DetectorConfig) *Detector {
	d := &Detector{
		lookup:      lookup,
		supported:   DefaultSupported,
		fallback:    DefaultCurrency,
		timeout:     DefaultLookupTimeout,
		devCurrency: Normalize(cfg.DevCurrency),
	}
	if len(cfg.Supported) > 0 {
		d.supported = make([]string, 0, len(cfg.Supported))
		for _, c := range cfg.Supported {
			d.supported = append(d.supported, Normalize(c))
		}
	}
	if cfg.Default != "" {
		d.fallback = Normalize(cfg.Default)
	}
	if cfg.Timeout > 0 {
		d.timeout = cfg.Timeout
	}
	return d
}

// Supported returns the supported codes.
func (d *Detector) Supported() []string {
	out := make([]string, len(d.supported))
	copy(out, d.supported)
	return out
}

// IsSupported reports whether code is one of the supported currencies.
func (d *Detector) IsSupported(code string) bool {
	return contains(d.supported, Normalize(code))
}

// Guess maps an IANA timezone to a supported currency. It never fails.
func (d *Detector) Guess(tz string) Result {
	if code, ok := lookupTimezone(tz); ok && contains(d.supported, code) {
		return Result{Currency: code, Source: domain.SourceTimezone, Confidence: domain.ConfidenceLow}
	}
	return Result{Currency: d.fallback, Source: domain.SourceDefault, Confidence: domain.ConfidenceLow}
}

// Correct asks the network lookup for the currency of ip. Unsupported codes
// resolve to the default currency. On error the caller keeps guess.
func (d *Detector) Correct(ctx context.Context, ip string) (Result, error) {
	if d.devCurrency != "" && isLoopback(ip) {
		return Result{Currency: d.devCurrency, Source: domain.SourceNetwork, Confidence: domain.ConfidenceHigh}, nil
	}
	if d.lookup == nil {
		return Result{}, errors.New("currency lookup not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	raw, err := d.lookup.CurrencyForIP(ctx, ip)
	if err != nil {
		return Result{}, fmt.Errorf("lookup currency for %q: %w", ip, err)
	}
	raw = strings.TrimSpace(raw)
	if !isCode(raw) {
		return Result{}, fmt.Errorf("%w: %q", ErrMalformedLookup, raw)
	}

	code := Normalize(raw)
	if !contains(d.supported, code) {
		code = d.fallback
	}
	return Result{Currency: code, Source: domain.SourceNetwork, Confidence: domain.ConfidenceHigh}, nil
}

func isLoopback(ip string) bool {
	if ip == "localhost" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}
