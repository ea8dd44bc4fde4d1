package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/views"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/shopspring/decimal"
)

// CartStore mirrors the signed-in user's cart. It holds at most one line
// per product.
type CartStore struct {
	client client.Client
	log    logging.Logger

	mu     sync.RWMutex
	items  []models.CartItem
	status Status
	err    error
}

func NewCartStore(c client.Client, log logging.Logger) *CartStore {
	return &CartStore{
		client: c,
		log:    log.With("store", "cart"),
	}
}

// Fetch replaces the local lines with the server's cart.
func (s *CartStore) Fetch(ctx context.Context) ([]models.CartItem, error) {
	s.begin()

	items, err := s.client.GetCart(ctx)
	if err != nil {
		return nil, s.fail(ctx, "fetch cart", err)
	}

	s.mu.Lock()
	s.items = cloneItems(items)
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Debug(ctx, "cart fetched", "lines", len(items))
	return cloneItems(items), nil
}

// Add puts one unit of the product in the cart. The server answers with the
// whole cart, which replaces the local lines.
func (s *CartStore) Add(ctx context.Context, productID string) error {
	if _, ok := s.line(productID); ok {
		return s.fail(ctx, "add to cart", ErrAlreadyInCart)
	}

	s.begin()

	items, err := s.client.AddToCart(ctx, productID)
	if err != nil {
		return s.fail(ctx, "add to cart", err)
	}

	s.mu.Lock()
	s.items = cloneItems(items)
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Info(ctx, "added to cart", "product", productID)
	return nil
}

// SetQuantity changes the quantity of an existing line. The quantity must
// lie between 1 and the stock recorded in the line's product snapshot;
// otherwise nothing is sent.
func (s *CartStore) SetQuantity(ctx context.Context, productID string, quantity int) error {
	item, ok := s.line(productID)
	if !ok {
		return s.fail(ctx, "set quantity", ErrNotInCart)
	}
	if err := models.NewValidationError(models.ValidateQuantity(quantity, item.Product.InStock)); err != nil {
		return s.fail(ctx, "set quantity", err)
	}

	s.begin()

	if err := s.client.UpdateCartItem(ctx, productID, quantity); err != nil {
		return s.fail(ctx, "set quantity", err)
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ProductID() == productID {
			s.items[i].Quantity = quantity
		}
	}
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Debug(ctx, "quantity changed", "product", productID, "quantity", quantity)
	return nil
}

// Remove deletes the line once the server confirms.
func (s *CartStore) Remove(ctx context.Context, productID string) error {
	if _, ok := s.line(productID); !ok {
		return s.fail(ctx, "remove from cart", ErrNotInCart)
	}

	s.begin()

	if err := s.client.DeleteCartItem(ctx, productID); err != nil {
		return s.fail(ctx, "remove from cart", err)
	}

	s.mu.Lock()
	s.items = removeItem(s.items, productID)
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Info(ctx, "removed from cart", "product", productID)
	return nil
}

// Clear empties the cart locally without contacting the server.
func (s *CartStore) Clear() {
	s.mu.Lock()
	s.items = nil
	s.status = StatusIdle
	s.err = nil
	s.mu.Unlock()
}

// RefreshProduct replaces the product snapshot of the matching line. When
// the new stock is below the line's quantity the line is cut down to the
// stock on the server, or removed once nothing is left.
func (s *CartStore) RefreshProduct(ctx context.Context, p models.Product) error {
	s.mu.Lock()
	quantity := 0
	for i := range s.items {
		if s.items[i].ProductID() == p.ID {
			s.items[i].Product = p.Clone()
			quantity = s.items[i].Quantity
		}
	}
	s.mu.Unlock()

	switch {
	case quantity <= p.InStock:
		return nil
	case p.InStock > 0:
		s.log.Info(ctx, "stock dropped below cart quantity", "product", p.ID, "stock", p.InStock)
		return s.SetQuantity(ctx, p.ID, p.InStock)
	default:
		s.log.Info(ctx, "product sold out, dropping cart line", "product", p.ID)
		return s.Remove(ctx, p.ID)
	}
}

// Items returns every line, orphans included.
func (s *CartStore) Items() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Visible returns the lines whose product is still in catalog.
func (s *CartStore) Visible(catalog []models.Product) []models.CartItem {
	return views.VisibleCartItems(s.Items(), catalog)
}

// Total is the price of the visible lines, rounded to cents.
func (s *CartStore) Total(catalog []models.Product) decimal.Decimal {
	return views.CartTotal(s.Items(), catalog)
}

// Quantity is the number of units over the visible lines.
func (s *CartStore) Quantity(catalog []models.Product) int {
	return views.CartQuantity(s.Items(), catalog)
}

func (s *CartStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *CartStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *CartStore) line(productID string) (models.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ProductID() == productID {
			return it, true
		}
	}
	return models.CartItem{}, false
}

func (s *CartStore) begin() {
	s.mu.Lock()
	s.status = StatusLoading
	s.err = nil
	s.mu.Unlock()
}

func (s *CartStore) fail(ctx context.Context, op string, err error) error {
	s.mu.Lock()
	s.status = StatusError
	s.err = err
	s.mu.Unlock()

	s.log.Warn(ctx, op+" failed", "error", err)
	return err
}

func cloneItems(items []models.CartItem) []models.CartItem {
	if items == nil {
		return nil
	}
	out := make([]models.CartItem, len(items))
	for i, it := range items {
		out[i] = models.CartItem{Product: it.Product.Clone(), Quantity: it.Quantity}
	}
	return out
}

func removeItem(items []models.CartItem, productID string) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		if it.ProductID() != productID {
			out = append(out, it)
		}
	}
	return out
}
