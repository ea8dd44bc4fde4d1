package store

import "errors"

var (
	// ErrAlreadyInCart is returned by CartStore.Add for a product the cart
	// already holds. No request is sent.
	ErrAlreadyInCart = errors.New("product already in cart")
	// ErrNotInCart is returned for quantity changes and removals of a product
	// the cart does not hold.
	ErrNotInCart = errors.New("product not in cart")
)
