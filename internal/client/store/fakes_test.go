package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
)

// ---- fake client ----

// fakeClient implements client.Client. Authenticated methods fail with
// client.ErrAuthRequired without counting a request when no token is set,
// like the HTTP client.
type fakeClient struct {
	mu    sync.Mutex
	token string
	calls map[string]int

	RegisterRet *models.User
	RegisterErr error

	LoginRet *models.Session
	LoginErr error

	ListRet    []models.Product
	ListErr    error
	ListOwnRet []models.Product
	ListOwnErr error
	GetRet     *models.Product
	GetErr     error
	CreateRet  *models.Product
	CreateErr  error
	UpdateRet  *models.Product
	UpdateErr  error
	DeleteErr  error

	CartRet       []models.CartItem
	CartErr       error
	AddRet        []models.CartItem
	AddErr        error
	UpdateCartErr error
	DeleteCartErr error

	LastQuantity int
	LastImage    *models.Image
}

func newFakeClient() *fakeClient {
	return &fakeClient{calls: make(map[string]int)}
}

func (f *fakeClient) hit(name string, authenticated bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if authenticated && f.token == "" {
		return client.ErrAuthRequired
	}
	f.calls[name]++
	return nil
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeClient) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeClient) Register(ctx context.Context, creds models.Credentials) (*models.User, error) {
	_ = f.hit("Register", false)
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeClient) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	_ = f.hit("Login", false)
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	_ = f.hit("ListProducts", false)
	return f.ListRet, f.ListErr
}

func (f *fakeClient) ListUserProducts(ctx context.Context) ([]models.Product, error) {
	if err := f.hit("ListUserProducts", true); err != nil {
		return nil, err
	}
	return f.ListOwnRet, f.ListOwnErr
}

func (f *fakeClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	_ = f.hit("GetProduct", false)
	return f.GetRet, f.GetErr
}

func (f *fakeClient) CreateProduct(ctx context.Context, fields models.ProductFields, images []models.Image) (*models.Product, error) {
	if err := f.hit("CreateProduct", true); err != nil {
		return nil, err
	}
	return f.CreateRet, f.CreateErr
}

func (f *fakeClient) UpdateProduct(ctx context.Context, id string, fields models.ProductFields, image *models.Image) (*models.Product, error) {
	if err := f.hit("UpdateProduct", true); err != nil {
		return nil, err
	}
	f.LastImage = image
	return f.UpdateRet, f.UpdateErr
}

func (f *fakeClient) DeleteProduct(ctx context.Context, id string) error {
	if err := f.hit("DeleteProduct", true); err != nil {
		return err
	}
	return f.DeleteErr
}

func (f *fakeClient) GetCart(ctx context.Context) ([]models.CartItem, error) {
	if err := f.hit("GetCart", true); err != nil {
		return nil, err
	}
	return f.CartRet, f.CartErr
}

func (f *fakeClient) AddToCart(ctx context.Context, productID string) ([]models.CartItem, error) {
	if err := f.hit("AddToCart", true); err != nil {
		return nil, err
	}
	return f.AddRet, f.AddErr
}

func (f *fakeClient) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	if err := f.hit("UpdateCartItem", true); err != nil {
		return err
	}
	f.LastQuantity = quantity
	return f.UpdateCartErr
}

func (f *fakeClient) DeleteCartItem(ctx context.Context, productID string) error {
	if err := f.hit("DeleteCartItem", true); err != nil {
		return err
	}
	return f.DeleteCartErr
}

// ---- fake session store ----

type fakeSessions struct {
	Saved    *models.Session
	SaveErr  error
	LoadErr  error
	ClearErr error
	Cleared  int
}

func (f *fakeSessions) Load(ctx context.Context) (*models.Session, error) {
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	if f.Saved == nil {
		return nil, nil
	}
	s := *f.Saved
	return &s, nil
}

func (f *fakeSessions) Save(ctx context.Context, s models.Session) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.Saved = &s
	return nil
}

func (f *fakeSessions) Clear(ctx context.Context) error {
	f.Cleared++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.Saved = nil
	return nil
}
