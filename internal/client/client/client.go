package client

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/client/models"
)

// Client is the contract of the remote storefront API as the stores see it.
type Client interface {
	Close() error
	SetToken(token string)
	Token() string

	Register(ctx context.Context, creds models.Credentials) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.Session, error)

	ListProducts(ctx context.Context) ([]models.Product, error)
	ListUserProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, fields models.ProductFields, images []models.Image) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, fields models.ProductFields, image *models.Image) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	GetCart(ctx context.Context) ([]models.CartItem, error)
	AddToCart(ctx context.Context, productID string) ([]models.CartItem, error)
	UpdateCartItem(ctx context.Context, productID string, quantity int) error
	DeleteCartItem(ctx context.Context, productID string) error
}
