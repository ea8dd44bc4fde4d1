package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the user's cart. Product is the snapshot the
// server returned with the line; it may describe a product that no longer
// exists in the catalog.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// ProductID identifies the product the line refers to.
func (c CartItem) ProductID() string {
	return c.Product.ID
}

// Subtotal is price times quantity, unrounded.
func (c CartItem) Subtotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// ValidateQuantity checks 1 <= quantity <= inStock.
func ValidateQuantity(quantity, inStock int) map[string]string {
	errs := make(map[string]string)
	switch {
	case quantity <= 0:
		errs["quantity"] = "Quantity must be at least 1"
	case quantity > inStock:
		errs["quantity"] = fmt.Sprintf("Quantity must not exceed %d in stock", inStock)
	}
	return errs
}
