package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLookupURL is the public IP geolocation service.
const DefaultLookupURL = "https://ipapi.co"

// IPAPILookup queries an ipapi.co compatible service that answers
// GET /{ip}/currency/ with a bare currency code.
type IPAPILookup struct {
	baseURL string
	client  *http.Client
}

// NewIPAPILookup creates a lookup against baseURL. A nil client uses
// http.DefaultClient; the caller's context bounds each request.
func NewIPAPILookup(baseURL string, client *http.Client) *IPAPILookup {
	if baseURL == "" {
		baseURL = DefaultLookupURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &IPAPILookup{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// CurrencyForIP implements Lookup. An empty ip asks about the caller's own address.
func (l *IPAPILookup) CurrencyForIP(ctx context.Context, ip string) (string, error) {
	endpoint := l.baseURL + "/currency/"
	if ip != "" {
		endpoint = l.baseURL + "/" + url.PathEscape(ip) + "/currency/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", fmt.Errorf("read lookup response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// KeyValueStore is the subset of the Redis client used by CachedLookup.
type KeyValueStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedLookup remembers lookup answers per IP in Redis. Cache failures are
// logged and never fail the lookup.
type CachedLookup struct {
	store  KeyValueStore
	next   Lookup
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedLookup wraps next with a Redis cache holding entries for ttl.
func NewCachedLookup(store KeyValueStore, next Lookup, ttl time.Duration, logger *slog.Logger) *CachedLookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedLookup{store: store, next: next, ttl: ttl, logger: logger}
}

func cacheKey(ip string) string {
	return "iqengi:ipcurrency:" + ip
}

// CurrencyForIP implements Lookup.
func (c *CachedLookup) CurrencyForIP(ctx context.Context, ip string) (string, error) {
	key := cacheKey(ip)

	cached, err := c.store.Get(ctx, key).Result()
	switch {
	case err == nil && cached != "":
		return cached, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "currency cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	code, err := c.next.CurrencyForIP(ctx, ip)
	if err != nil {
		return "", err
	}

	if isCode(strings.TrimSpace(code)) {
		if err := c.store.Set(ctx, key, code, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "currency cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return code, nil
}
