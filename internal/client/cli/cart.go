package cli

import (
	"context"
	"fmt"
)

// Cart reloads the cart and prints the lines whose product is still listed.
func (a *App) Cart(ctx context.Context) error {
	sf := a.storefront
	if _, err := sf.Cart.Fetch(ctx); err != nil {
		return err
	}
	// orphan detection needs a catalog to compare against
	if len(sf.Products.Catalog()) == 0 {
		if _, err := sf.Products.FetchCatalog(ctx); err != nil {
			return err
		}
	}

	catalog := sf.Products.Catalog()
	printCart(a.out, sf.Cart.Visible(catalog), sf.Cart.Quantity(catalog), sf.Cart.Total(catalog))
	return nil
}

func (a *App) Buy(ctx context.Context, id string) error {
	if err := a.storefront.Cart.Add(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s to the cart\n", id)
	return nil
}

func (a *App) SetQuantity(ctx context.Context, id string, quantity int) error {
	if err := a.storefront.Cart.SetQuantity(ctx, id, quantity); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Quantity of %s set to %d\n", id, quantity)
	return nil
}

func (a *App) Remove(ctx context.Context, id string) error {
	if err := a.storefront.Cart.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %s from the cart\n", id)
	return nil
}
