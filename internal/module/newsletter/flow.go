package newsletter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iqengi/site/internal/domain"
)

// Status is the state of a newsletter form.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is what a newsletter form shows. Email is the value the input
// keeps; it is cleared after a successful subscription.
type State struct {
	Status  Status `json:"status"`
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

// Loading reports whether a subscription is in flight.
func (s State) Loading() bool {
	return s.Status == StatusLoading
}

// Flow drives one newsletter form: idle, loading, then success or error.
// A success returns to idle after the reset delay unless a newer
// submission started meanwhile. Methods are safe for concurrent use.
type Flow struct {
	subscriber domain.NewsletterSubscriber
	source     domain.NewsletterSource
	resetAfter time.Duration

	mu    sync.Mutex
	state State
	gen   uint64
	timer *time.Timer
}

// NewFlow creates an idle Flow subscribing with source. A non-positive
// resetAfter keeps the success state until the next submission.
func NewFlow(subscriber domain.NewsletterSubscriber, source domain.NewsletterSource, resetAfter time.Duration) *Flow {
	return &Flow{
		subscriber: subscriber,
		source:     source,
		resetAfter: resetAfter,
		state:      State{Status: StatusIdle},
	}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SetEmail updates the input value.
func (f *Flow) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Email = email
}

// Submit subscribes the current email.
func (f *Flow) Submit(ctx context.Context) State {
	f.mu.Lock()
	f.stopTimer()
	f.gen++
	gen := f.gen
	email := f.state.Email
	f.state = State{Status: StatusLoading, Email: email}
	f.mu.Unlock()

	res, err := f.subscriber.Subscribe(ctx, email, f.source)

	switch {
	case err != nil:
		return f.finish(gen, State{Status: StatusError, Email: email, Message: failureMessage(err)})
	case res == nil || !res.Success:
		msg := defaultRejectMessage
		if res != nil && strings.TrimSpace(res.Message) != "" {
			msg = res.Message
		}
		return f.finish(gen, State{Status: StatusError, Email: email, Message: msg})
	default:
		msg := res.Message
		if strings.TrimSpace(msg) == "" {
			msg = DefaultSuccessMessage
		}
		return f.finish(gen, State{Status: StatusSuccess, Message: msg})
	}
}

// Close cancels a pending auto-reset.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopTimer()
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
				f.state = State{Status: StatusIdle, Email: f.state.Email}
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

// failureMessage returns the text shown for err: the backend or
// validation message when there is one, the connection message otherwise.
func failureMessage(err error) string {
	return domain.UserMessage(err, connectionMessage)
}
