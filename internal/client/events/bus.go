// Package events is a small synchronous publish/subscribe bus. Stores
// publish what happened to them; reactions in other stores are subscribed
// in one place, so no store needs a reference to another.
package events

import (
	"context"
	"errors"
	"sync"
)

// Kind names a state change.
type Kind string

const (
	LoggedIn       Kind = "auth.logged_in"
	LoggedOut      Kind = "auth.logged_out"
	ProductUpdated Kind = "product.updated"
	ProductDeleted Kind = "product.deleted"
)

// Event is a published state change. Payload depends on Kind: the
// models.Session for LoggedIn, the models.Product for ProductUpdated, the
// product id string for ProductDeleted, nil for LoggedOut.
type Event struct {
	Kind    Kind
	Payload any
}

// Handler reacts to an event. It runs on the publisher's goroutine.
type Handler func(ctx context.Context, e Event) error

// Bus is safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers h for events of kind k. Handlers run in subscription
// order.
func (b *Bus) Subscribe(k Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[k] = append(b.handlers[k], h)
}

// Publish runs every handler subscribed to e.Kind, even when earlier ones
// fail, and returns their errors joined.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Kind]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
