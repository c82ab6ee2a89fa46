package currency

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Origin tells subscribers why the currency changed.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginDetection Origin = "detection"
)

// Message announces a new active currency for one visitor.
type Message struct {
	Visitor  string    `json:"visitor"`
	Currency string    `json:"currency"`
	Origin   Origin    `json:"origin"`
	Seq      uint64    `json:"seq"`
	At       time.Time `json:"at"`
}

// Broker delivers currency changes to every subscriber of a visitor.
type Broker interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(visitor string) *Subscription
}

// Subscription receives the messages of one visitor on C. C holds at most
// one message: a newer message replaces one not yet received.
type Subscription struct {
	C <-chan Message

	ch     chan Message
	bus    *Bus
	key    string
	closed bool
}

// Close detaches the subscription and closes C. It is safe to call twice.
func (s *Subscription) Close() {
	s.bus.remove(s)
}

// Bus is the in-process broker. Publishing never blocks.
type Bus struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
	seq  atomic.Uint64
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe implements Broker.
func (b *Bus) Subscribe(visitor string) *Subscription {
	ch := make(chan Message, 1)
	sub := &Subscription{C: ch, ch: ch, bus: b, key: visitor}

	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[visitor]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[visitor] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish implements Broker. Seq and At are stamped when unset.
func (b *Bus) Publish(_ context.Context, msg Message) error {
	if msg.Seq == 0 {
		msg.Seq = b.seq.Add(1)
	}
	if msg.At.IsZero() {
		msg.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[msg.Visitor] {
		deliver(sub.ch, msg)
	}
	return nil
}

// Subscribers returns the number of open subscriptions for visitor.
func (b *Bus) Subscribers(visitor string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[visitor])
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	if set, ok := b.subs[sub.key]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.key)
		}
	}
	close(sub.ch)
}

// deliver stores msg in ch, dropping an undelivered older message.
// Callers hold the bus lock, so there is a single writer.
func deliver(ch chan Message, msg Message) {
	select {
	case ch <- msg:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- msg:
	default:
	}
}
