package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Verifier checks a human-verification token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Mailer relays one email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// Email is the payload of the email provider API.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// ProviderError carries the status and body of a failed provider call.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       []byte
}

func (e *ProviderError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("%s: status=%d body=%s", e.Provider, e.StatusCode, body)
}

const defaultProviderTimeout = 10 * time.Second

func defaultHTTPClient(hc *http.Client) *http.Client {
	if hc != nil {
		return hc
	}
	return &http.Client{Timeout: defaultProviderTimeout}
}

// postJSON sends body as JSON and decodes a 2xx response into out when out
// is non-nil. Provider calls are not retried: sending an email twice is
// worse than failing once.
func postJSON(ctx context.Context, hc *http.Client, provider, url string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", provider, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Body: raw}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", provider, err)
	}
	return nil
}

// TurnstileVerifier checks tokens against the Cloudflare Turnstile
// siteverify endpoint.
type TurnstileVerifier struct {
	url    string
	secret string
	http   *http.Client
}

// NewTurnstileVerifier creates a verifier. hc may be nil. With an empty
// secret every token fails verification.
func NewTurnstileVerifier(url, secret string, hc *http.Client) *TurnstileVerifier {
	return &TurnstileVerifier{url: url, secret: secret, http: defaultHTTPClient(hc)}
}

type turnstileRequest struct {
	Secret   string `json:"secret"`
	Response string `json:"response"`
	RemoteIP string `json:"remoteip,omitempty"`
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify reports whether token is valid for remoteIP.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if v.secret == "" || strings.TrimSpace(token) == "" {
		return false, nil
	}
	var out turnstileResponse
	err := postJSON(ctx, v.http, "turnstile", v.url, nil,
		turnstileRequest{Secret: v.secret, Response: token, RemoteIP: remoteIP}, &out)
	if err != nil {
		return false, err
	}
	return out.Success, nil
}

// ResendMailer sends email through the Resend HTTP API.
type ResendMailer struct {
	url    string
	apiKey string
	http   *http.Client
}

// NewResendMailer creates a mailer. hc may be nil.
func NewResendMailer(url, apiKey string, hc *http.Client) *ResendMailer {
	return &ResendMailer{url: url, apiKey: apiKey, http: defaultHTTPClient(hc)}
}

// Send posts msg to the provider.
func (m *ResendMailer) Send(ctx context.Context, msg Email) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+m.apiKey)
	var out struct {
		ID string `json:"id"`
	}
	return postJSON(ctx, m.http, "resend", m.url, header, msg, &out)
}
