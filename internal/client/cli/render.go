package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/store"
	"github.com/shopspring/decimal"
)

func printProducts(w io.Writer, ps []models.Product) {
	if len(ps) == 0 {
		fmt.Fprintln(w, "No products")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tIN STOCK")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Price.StringFixed(2), p.InStock)
	}
	_ = tw.Flush()
}

func printProduct(w io.Writer, p models.Product) {
	fmt.Fprintf(w, "%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(w, "  %s\n", p.Description)
	fmt.Fprintf(w, "  Price: %s  In stock: %d\n", p.Price.StringFixed(2), p.InStock)
	for _, img := range p.Images {
		fmt.Fprintf(w, "  Image: %s\n", img)
	}
}

func printCart(w io.Writer, items []models.CartItem, quantity int, total decimal.Decimal) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			it.ProductID(), it.Product.Name, it.Quantity,
			it.Product.Price.StringFixed(2), it.Subtotal().StringFixed(2))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Items: %d  Total: %s\n", quantity, total.StringFixed(2))
}

// describeError turns store and client errors into a line for the user.
func describeError(err error) string {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, verr.Fields[k])
		}
		return strings.Join(msgs, "; ")
	case errors.Is(err, client.ErrAuthRequired):
		return "please log in first"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, store.ErrAlreadyInCart):
		return "product is already in your cart"
	case errors.Is(err, store.ErrNotInCart):
		return "product is not in your cart"
	default:
		return err.Error()
	}
}
