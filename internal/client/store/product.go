package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/events"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/views"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

// ProductStore keeps three views of products: the public catalog, the
// signed-in user's own products and a single detail record. Writes keep all
// three consistent. The owner list has its own status so that loading it
// does not disturb the catalog.
type ProductStore struct {
	client client.Client
	bus    *events.Bus
	log    logging.Logger

	mu         sync.RWMutex
	catalog    []models.Product
	own        []models.Product
	detail     *models.Product
	searchTerm string
	status     Status
	err        error
	ownStatus  Status
	ownErr     error
}

func NewProductStore(c client.Client, bus *events.Bus, log logging.Logger) *ProductStore {
	return &ProductStore{
		client: c,
		bus:    bus,
		log:    log.With("store", "product"),
	}
}

// FetchCatalog replaces the catalog with the server's list. No token needed.
func (s *ProductStore) FetchCatalog(ctx context.Context) ([]models.Product, error) {
	s.begin()

	products, err := s.client.ListProducts(ctx)
	if err != nil {
		return nil, s.fail(ctx, "fetch catalog", err)
	}

	s.mu.Lock()
	s.catalog = cloneProducts(products)
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Debug(ctx, "catalog fetched", "count", len(products))
	return cloneProducts(products), nil
}

// FetchOwnProducts replaces the owner list. It fails with
// client.ErrAuthRequired when nobody is signed in.
func (s *ProductStore) FetchOwnProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	s.ownStatus = StatusLoading
	s.ownErr = nil
	s.mu.Unlock()

	products, err := s.client.ListUserProducts(ctx)
	if err != nil {
		s.mu.Lock()
		s.ownStatus = StatusError
		s.ownErr = err
		s.mu.Unlock()

		s.log.Warn(ctx, "fetch own products failed", "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.own = cloneProducts(products)
	s.ownStatus = StatusSuccess
	s.mu.Unlock()

	s.log.Debug(ctx, "own products fetched", "count", len(products))
	return cloneProducts(products), nil
}

// FetchDetail loads one product into the detail view. A missing product
// clears the view and returns an error wrapping client.ErrNotFound.
func (s *ProductStore) FetchDetail(ctx context.Context, id string) (*models.Product, error) {
	s.begin()

	p, err := s.client.GetProduct(ctx, id)
	if err != nil {
		s.mu.Lock()
		s.detail = nil
		s.mu.Unlock()
		return nil, s.fail(ctx, "fetch product", err)
	}

	s.mu.Lock()
	s.detail = cloneProduct(p)
	s.status = StatusSuccess
	s.mu.Unlock()

	return cloneProduct(p), nil
}

// AddProduct validates the submission locally, reporting every violated
// field at once, before anything is sent. The created product is added to
// the catalog and the owner list.
func (s *ProductStore) AddProduct(ctx context.Context, fields models.ProductFields, images []models.Image) (*models.Product, error) {
	if err := models.NewValidationError(models.ValidateProduct(fields, images)); err != nil {
		return nil, s.fail(ctx, "add product", err)
	}

	s.begin()

	p, err := s.client.CreateProduct(ctx, fields, images)
	if err != nil {
		return nil, s.fail(ctx, "add product", err)
	}

	s.mu.Lock()
	s.catalog = upsertProduct(s.catalog, *p)
	s.own = upsertProduct(s.own, *p)
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Info(ctx, "product added", "id", p.ID)
	return cloneProduct(p), nil
}

// UpdateProduct submits new fields and, optionally, a replacement image.
// The server decides whether the caller owns the product. Every view that
// holds the product gets the updated record and events.ProductUpdated is
// published.
func (s *ProductStore) UpdateProduct(ctx context.Context, id string, fields models.ProductFields, image *models.Image) (*models.Product, error) {
	if err := models.NewValidationError(models.ValidateProductUpdate(fields)); err != nil {
		return nil, s.fail(ctx, "update product", err)
	}

	s.begin()

	p, err := s.client.UpdateProduct(ctx, id, fields, image)
	if err != nil {
		return nil, s.fail(ctx, "update product", err)
	}

	s.mu.Lock()
	s.catalog = replaceProduct(s.catalog, *p)
	s.own = replaceProduct(s.own, *p)
	if s.detail != nil && s.detail.ID == p.ID {
		s.detail = cloneProduct(p)
	}
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Info(ctx, "product updated", "id", p.ID)
	s.publish(ctx, events.Event{Kind: events.ProductUpdated, Payload: p.Clone()})

	return cloneProduct(p), nil
}

// DeleteProduct removes the product from every view once the server has
// deleted it, then publishes events.ProductDeleted. Failures of the
// subscribers are logged and do not fail the delete.
func (s *ProductStore) DeleteProduct(ctx context.Context, id string) error {
	s.begin()

	if err := s.client.DeleteProduct(ctx, id); err != nil {
		return s.fail(ctx, "delete product", err)
	}

	s.mu.Lock()
	s.catalog = removeProduct(s.catalog, id)
	s.own = removeProduct(s.own, id)
	if s.detail != nil && s.detail.ID == id {
		s.detail = nil
	}
	s.status = StatusSuccess
	s.mu.Unlock()

	s.log.Info(ctx, "product deleted", "id", id)
	s.publish(ctx, events.Event{Kind: events.ProductDeleted, Payload: id})

	return nil
}

// ResetOwnProducts forgets the owner list, e.g. after logout.
func (s *ProductStore) ResetOwnProducts() {
	s.mu.Lock()
	s.own = nil
	s.ownStatus = StatusIdle
	s.ownErr = nil
	s.mu.Unlock()
}

// SetSearchTerm sets the term shared by the catalog and owner views.
func (s *ProductStore) SetSearchTerm(term string) {
	s.mu.Lock()
	s.searchTerm = term
	s.mu.Unlock()
}

func (s *ProductStore) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchTerm
}

func (s *ProductStore) Catalog() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.catalog)
}

func (s *ProductStore) OwnProducts() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.own)
}

// Detail returns the product in the detail view, or nil.
func (s *ProductStore) Detail() *models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProduct(s.detail)
}

// FilteredCatalog is the catalog narrowed by the search term.
func (s *ProductStore) FilteredCatalog() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return views.FilterBySearch(cloneProducts(s.catalog), s.searchTerm)
}

// FilteredOwnProducts is the owner list narrowed by the search term.
func (s *ProductStore) FilteredOwnProducts() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return views.FilterBySearch(cloneProducts(s.own), s.searchTerm)
}

func (s *ProductStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *ProductStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *ProductStore) OwnStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownStatus
}

func (s *ProductStore) OwnErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownErr
}

func (s *ProductStore) begin() {
	s.mu.Lock()
	s.status = StatusLoading
	s.err = nil
	s.mu.Unlock()
}

func (s *ProductStore) fail(ctx context.Context, op string, err error) error {
	s.mu.Lock()
	s.status = StatusError
	s.err = err
	s.mu.Unlock()

	s.log.Warn(ctx, op+" failed", "error", err)
	return err
}

func (s *ProductStore) publish(ctx context.Context, e events.Event) {
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warn(ctx, "event handlers failed", "event", e.Kind, "error", err)
	}
}

func cloneProduct(p *models.Product) *models.Product {
	if p == nil {
		return nil
	}
	c := p.Clone()
	return &c
}

func cloneProducts(ps []models.Product) []models.Product {
	if ps == nil {
		return nil
	}
	out := make([]models.Product, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// upsertProduct replaces the entry with p's id or appends p.
func upsertProduct(ps []models.Product, p models.Product) []models.Product {
	for i := range ps {
		if ps[i].ID == p.ID {
			ps[i] = p.Clone()
			return ps
		}
	}
	return append(ps, p.Clone())
}

// replaceProduct replaces the entry with p's id, if present.
func replaceProduct(ps []models.Product, p models.Product) []models.Product {
	for i := range ps {
		if ps[i].ID == p.ID {
			ps[i] = p.Clone()
		}
	}
	return ps
}

func removeProduct(ps []models.Product, id string) []models.Product {
	out := ps[:0]
	for _, p := range ps {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
