package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/events"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func newProducts(t *testing.T) (*ProductStore, *fakeClient, *events.Bus) {
	t.Helper()
	fc := newFakeClient()
	bus := events.NewBus()
	return NewProductStore(fc, bus, logging.NewNop()), fc, bus
}

func deskFields() models.ProductFields {
	return models.ProductFields{
		Name:        "Desk",
		Description: "Wooden desk",
		Price:       decimal.NewFromInt(50),
		InStock:     3,
	}
}

func deskImages() []models.Image {
	return []models.Image{{Filename: "desk.jpg", Content: []byte("jpeg")}}
}

func prod(id, name, desc string) models.Product {
	return models.Product{ID: id, Name: name, Description: desc, Price: decimal.NewFromInt(10), InStock: 5}
}

func productIDs(ps []models.Product) []string {
	out := []string{}
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

// ---- tests ----

func TestProductStore_FetchCatalog_ReplacesAndIsIdempotent(t *testing.T) {
	s, fc, _ := newProducts(t)
	fc.ListRet = []models.Product{prod("1", "Desk", "Wood"), prod("2", "Lamp", "Brass")}

	_, err := s.FetchCatalog(context.Background())
	require.NoError(t, err)
	_, err = s.FetchCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, productIDs(s.Catalog()))
	assert.Equal(t, StatusSuccess, s.Status())
	assert.Equal(t, 2, fc.count("ListProducts"))
}

func TestProductStore_FetchCatalog_Failure(t *testing.T) {
	s, fc, _ := newProducts(t)
	fc.ListErr = client.ErrUnavailable

	_, err := s.FetchCatalog(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, StatusError, s.Status())
	assert.ErrorIs(t, s.Err(), client.ErrUnavailable)
}

func TestProductStore_FetchOwnProducts_RequiresToken(t *testing.T) {
	s, fc, _ := newProducts(t)

	_, err := s.FetchOwnProducts(context.Background())
	require.ErrorIs(t, err, client.ErrAuthRequired)
	assert.Zero(t, fc.total())
	assert.Equal(t, StatusError, s.OwnStatus())
	assert.ErrorIs(t, s.OwnErr(), client.ErrAuthRequired)
	assert.Equal(t, StatusIdle, s.Status(), "catalog status is tracked separately")

	fc.SetToken("tok")
	fc.ListOwnRet = []models.Product{prod("9", "Mine", "Own product")}
	_, err = s.FetchOwnProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, productIDs(s.OwnProducts()))
	assert.Equal(t, StatusSuccess, s.OwnStatus())
}

func TestProductStore_FetchDetail(t *testing.T) {
	s, fc, _ := newProducts(t)
	p := prod("1", "Desk", "Wood")
	fc.GetRet = &p

	got, err := s.FetchDetail(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, "1", s.Detail().ID)

	fc.GetRet, fc.GetErr = nil, client.ErrNotFound
	_, err = s.FetchDetail(context.Background(), "missing")
	require.ErrorIs(t, err, client.ErrNotFound)
	assert.Nil(t, s.Detail())
	assert.Equal(t, StatusError, s.Status())
}

func TestProductStore_AddProduct_ValidationCollectsAllAndSendsNothing(t *testing.T) {
	s, fc, _ := newProducts(t)
	fc.SetToken("tok")

	_, err := s.AddProduct(context.Background(), models.ProductFields{Name: "de", Price: decimal.NewFromInt(-1)}, nil)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"name":         "Product name must be at least 3 characters long",
		"description":  "Description is required",
		"price":        "Price must be greater than 0",
		"inStock":      "Stock quantity must be greater than 0",
		"productImage": "Product image is required",
	}, verr.Fields)
	assert.Zero(t, fc.total())
	assert.Equal(t, StatusError, s.Status())
}

func TestProductStore_AddProduct_RequiresToken(t *testing.T) {
	s, fc, _ := newProducts(t)

	_, err := s.AddProduct(context.Background(), deskFields(), deskImages())
	require.ErrorIs(t, err, client.ErrAuthRequired)
	assert.Zero(t, fc.total())
}

func TestProductStore_AddProduct_AppearsInCatalogAndOwnList(t *testing.T) {
	s, fc, _ := newProducts(t)
	fc.SetToken("tok")
	fc.ListRet = []models.Product{prod("1", "Lamp", "Brass")}
	_, err := s.FetchCatalog(context.Background())
	require.NoError(t, err)

	created := models.Product{ID: "d1", Name: "Desk", Description: "Wooden desk", Price: decimal.NewFromInt(50), InStock: 3, OwnerID: "u1"}
	fc.CreateRet = &created

	got, err := s.AddProduct(context.Background(), deskFields(), deskImages())
	require.NoError(t, err)

	assert.Equal(t, "d1", got.ID)
	assert.Equal(t, []string{"1", "d1"}, productIDs(s.Catalog()))
	assert.Equal(t, []string{"d1"}, productIDs(s.OwnProducts()))

	// adding the same id again replaces instead of duplicating
	_, err = s.AddProduct(context.Background(), deskFields(), deskImages())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "d1"}, productIDs(s.Catalog()))
}

func TestProductStore_UpdateProduct_ReplacesEverywhereAndPublishes(t *testing.T) {
	s, fc, bus := newProducts(t)
	updated := record(bus, events.ProductUpdated)
	fc.SetToken("tok")

	orig := prod("1", "Desk", "Wood")
	fc.ListRet = []models.Product{orig}
	fc.ListOwnRet = []models.Product{orig}
	fc.GetRet = &orig
	_, _ = s.FetchCatalog(context.Background())
	_, _ = s.FetchOwnProducts(context.Background())
	_, _ = s.FetchDetail(context.Background(), "1")

	next := orig
	next.Name = "Standing Desk"
	fc.UpdateRet = &next
	img := &models.Image{Filename: "new.jpg", Content: []byte{1}}

	f := next.Fields()
	f.InStock = 0
	_, err := s.UpdateProduct(context.Background(), "1", f, img)
	require.NoError(t, err)

	assert.Equal(t, "Standing Desk", s.Catalog()[0].Name)
	assert.Equal(t, "Standing Desk", s.OwnProducts()[0].Name)
	assert.Equal(t, "Standing Desk", s.Detail().Name)
	assert.Same(t, img, fc.LastImage)
	require.Len(t, *updated, 1)
	assert.Equal(t, "Standing Desk", (*updated)[0].Payload.(models.Product).Name)
}

func TestProductStore_UpdateProduct_Validation(t *testing.T) {
	s, fc, _ := newProducts(t)
	fc.SetToken("tok")

	f := deskFields()
	f.InStock = -1
	_, err := s.UpdateProduct(context.Background(), "1", f, nil)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "inStock")
	assert.Zero(t, fc.total())
}

func TestProductStore_UpdateProduct_ForbiddenKeepsState(t *testing.T) {
	s, fc, bus := newProducts(t)
	updated := record(bus, events.ProductUpdated)
	fc.SetToken("tok")
	fc.ListRet = []models.Product{prod("1", "Desk", "Wood")}
	_, _ = s.FetchCatalog(context.Background())

	fc.UpdateErr = client.ErrUnauthorized
	_, err := s.UpdateProduct(context.Background(), "1", deskFields(), nil)

	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, "Desk", s.Catalog()[0].Name)
	assert.Empty(t, *updated)
}

func TestProductStore_DeleteProduct_RemovesEverywhereAndPublishes(t *testing.T) {
	s, fc, bus := newProducts(t)
	deleted := record(bus, events.ProductDeleted)
	fc.SetToken("tok")

	p1, p2 := prod("1", "Desk", "Wood"), prod("2", "Lamp", "Brass")
	fc.ListRet = []models.Product{p1, p2}
	fc.ListOwnRet = []models.Product{p1}
	fc.GetRet = &p1
	_, _ = s.FetchCatalog(context.Background())
	_, _ = s.FetchOwnProducts(context.Background())
	_, _ = s.FetchDetail(context.Background(), "1")

	require.NoError(t, s.DeleteProduct(context.Background(), "1"))

	assert.Equal(t, []string{"2"}, productIDs(s.Catalog()))
	assert.Empty(t, s.OwnProducts())
	assert.Nil(t, s.Detail())
	require.Len(t, *deleted, 1)
	assert.Equal(t, "1", (*deleted)[0].Payload)
}

func TestProductStore_DeleteProduct_SubscriberFailureIsNotReturned(t *testing.T) {
	s, fc, bus := newProducts(t)
	fc.SetToken("tok")
	bus.Subscribe(events.ProductDeleted, func(ctx context.Context, e events.Event) error {
		return client.ErrUnavailable
	})

	require.NoError(t, s.DeleteProduct(context.Background(), "1"))
	assert.Equal(t, StatusSuccess, s.Status())
}

func TestProductStore_SearchFiltersBothViews(t *testing.T) {
	s, fc, _ := newProducts(t)
	fc.SetToken("tok")
	fc.ListRet = []models.Product{prod("1", "Soap Bar", "Lavender"), prod("2", "Shampoo", "organic soap"), prod("3", "Towel", "Cotton")}
	fc.ListOwnRet = []models.Product{prod("3", "Towel", "Cotton"), prod("2", "Shampoo", "organic soap")}
	_, _ = s.FetchCatalog(context.Background())
	_, _ = s.FetchOwnProducts(context.Background())

	assert.Equal(t, []string{"1", "2", "3"}, productIDs(s.FilteredCatalog()))

	s.SetSearchTerm("SOAP")
	assert.Equal(t, "SOAP", s.SearchTerm())
	assert.Equal(t, []string{"1", "2"}, productIDs(s.FilteredCatalog()))
	assert.Equal(t, []string{"2"}, productIDs(s.FilteredOwnProducts()))

	// filtering never mutates the underlying lists
	assert.Len(t, s.Catalog(), 3)
}

func TestProductStore_ResetOwnProducts(t *testing.T) {
	s, fc, _ := newProducts(t)
	fc.SetToken("tok")
	fc.ListOwnRet = []models.Product{prod("1", "Desk", "Wood")}
	_, _ = s.FetchOwnProducts(context.Background())

	s.ResetOwnProducts()
	assert.Empty(t, s.OwnProducts())
	assert.Equal(t, StatusIdle, s.OwnStatus())
}

func TestProductStore_ReturnedSlicesAreCopies(t *testing.T) {
	s, fc, _ := newProducts(t)
	fc.ListRet = []models.Product{prod("1", "Desk", "Wood")}
	_, _ = s.FetchCatalog(context.Background())

	c := s.Catalog()
	c[0].Name = "Hacked"
	assert.Equal(t, "Desk", s.Catalog()[0].Name)
}
