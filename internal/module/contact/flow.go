package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/iqengi/site/internal/domain"
)

// Status is the state of a contact form.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Form-side messages, shown before anything is sent.
const (
	missingFieldsMessage = "Por favor completa todos los campos requeridos"
	missingTokenMessage  = "Por favor, completa el CAPTCHA."
)

// State is what a contact form shows.
type State struct {
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Sender delivers a submission and returns the confirmation message.
type Sender interface {
	Send(ctx context.Context, sub domain.ContactSubmission) (string, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, sub domain.ContactSubmission) (string, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, sub domain.ContactSubmission) (string, error) {
	return f(ctx, sub)
}

// Flow drives one contact form: idle, submitting, then success or error.
// A success returns to idle after the reset delay unless a newer
// submission started meanwhile. Methods are safe for concurrent use.
type Flow struct {
	sender     Sender
	resetAfter time.Duration

	mu    sync.Mutex
	state State
	gen   uint64
	timer *time.Timer
}

// NewFlow creates an idle Flow. A non-positive resetAfter keeps the
// success state until the next submission.
func NewFlow(sender Sender, resetAfter time.Duration) *Flow {
	return &Flow{sender: sender, resetAfter: resetAfter, state: State{Status: StatusIdle}}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit validates sub locally and sends it. Missing fields or a missing
// verification token fail without calling the Sender.
func (f *Flow) Submit(ctx context.Context, sub domain.ContactSubmission) State {
	gen := f.set(State{Status: StatusSubmitting})

	if sub.MissingRequired() {
		return f.finish(gen, State{Status: StatusError, Error: missingFieldsMessage})
	}
	if strings.TrimSpace(sub.VerificationToken) == "" {
		return f.finish(gen, State{Status: StatusError, Error: missingTokenMessage})
	}

	msg, err := f.sender.Send(ctx, sub)
	if err != nil {
		text := err.Error()
		if text == "" {
			text = sendFailedMessage
		}
		return f.finish(gen, State{Status: StatusError, Error: text})
	}
	if msg == "" {
		msg = SuccessMessage
	}
	return f.finish(gen, State{Status: StatusSuccess, Message: msg})
}

// Reset returns to idle and cancels a pending auto-reset.
func (f *Flow) Reset() {
	f.set(State{Status: StatusIdle})
}

// Close cancels a pending auto-reset.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopTimer()
}

func (f *Flow) set(s State) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopTimer()
	f.gen++
	f.state = s
	return f.gen
}

func (f *Flow) finish(gen uint64, s State) State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return f.state
	}
	f.state = s
	if s.Status == StatusSuccess && f.resetAfter > 0 {
		f.timer = time.AfterFunc(f.resetAfter, func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.gen == gen {
				f.state = State{Status: StatusIdle}
			}
		})
	}
	return s
}

func (f *Flow) stopTimer() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// HTTPSender posts submissions as JSON to the contact endpoint.
type HTTPSender struct {
	url  string
	http *http.Client
}

// NewHTTPSender creates a sender for the endpoint at url. hc may be nil.
func NewHTTPSender(url string, hc *http.Client) *HTTPSender {
	return &HTTPSender{url: url, http: defaultHTTPClient(hc)}
}

// Send posts sub. A non-2xx answer fails with the endpoint's error text.
func (s *HTTPSender) Send(ctx context.Context, sub domain.ContactSubmission) (string, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out SubmitResponse
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !out.Success {
		if out.Error != "" {
			return "", errors.New(out.Error)
		}
		return "", errors.New(sendFailedMessage)
	}
	return out.Message, nil
}
