package store

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/events"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// Storefront owns the three stores and the bus connecting them. All
// reactions of one store to another are subscribed in New.
type Storefront struct {
	Auth     *AuthStore
	Products *ProductStore
	Cart     *CartStore

	client client.Client
	bus    *events.Bus
}

func New(c client.Client, sessions services.SessionStore, log logging.Logger) *Storefront {
	bus := events.NewBus()

	sf := &Storefront{
		Auth:     NewAuthStore(c, sessions, bus, log),
		Products: NewProductStore(c, bus, log),
		Cart:     NewCartStore(c, log),
		client:   c,
		bus:      bus,
	}

	bus.Subscribe(events.LoggedOut, func(ctx context.Context, e events.Event) error {
		sf.Cart.Clear()
		sf.Products.ResetOwnProducts()
		return nil
	})

	bus.Subscribe(events.LoggedIn, sf.refreshCart)
	bus.Subscribe(events.ProductDeleted, sf.refreshCart)

	bus.Subscribe(events.ProductUpdated, func(ctx context.Context, e events.Event) error {
		if p, ok := e.Payload.(models.Product); ok {
			return sf.Cart.RefreshProduct(ctx, p)
		}
		return nil
	})

	return sf
}

// Close releases the API client.
func (sf *Storefront) Close() error {
	return sf.client.Close()
}

// refreshCart refetches the cart. A token the server no longer accepts ends
// the session.
func (sf *Storefront) refreshCart(ctx context.Context, _ events.Event) error {
	_, err := sf.Cart.Fetch(ctx)
	if errors.Is(err, client.ErrUnauthorized) && sf.Auth.IsAuthenticated() {
		return errors.Join(err, sf.Auth.Logout(ctx))
	}
	return err
}
