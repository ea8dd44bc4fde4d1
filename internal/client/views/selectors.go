// Package views computes what the CLI renders from store state. Every
// function is pure and never modifies its inputs.
package views

import (
	"strings"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/shopspring/decimal"
)

// FilterBySearch keeps the products whose name or description contains term,
// ignoring case, in their original order. An empty term returns items as is.
func FilterBySearch(items []models.Product, term string) []models.Product {
	if term == "" {
		return items
	}

	needle := strings.ToLower(term)
	out := make([]models.Product, 0, len(items))
	for _, p := range items {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}

// VisibleCartItems drops orphans: lines whose product is not in catalog.
func VisibleCartItems(items []models.CartItem, catalog []models.Product) []models.CartItem {
	ids := make(map[string]struct{}, len(catalog))
	for _, p := range catalog {
		ids[p.ID] = struct{}{}
	}

	out := make([]models.CartItem, 0, len(items))
	for _, it := range items {
		if _, ok := ids[it.ProductID()]; ok {
			out = append(out, it)
		}
	}
	return out
}

// CartTotal sums price × quantity over visible lines, rounded to cents.
func CartTotal(items []models.CartItem, catalog []models.Product) decimal.Decimal {
	total := decimal.Zero
	for _, it := range VisibleCartItems(items, catalog) {
		total = total.Add(it.Subtotal())
	}
	return total.Round(2)
}

// CartQuantity counts units over visible lines.
func CartQuantity(items []models.CartItem, catalog []models.Product) int {
	n := 0
	for _, it := range VisibleCartItems(items, catalog) {
		n += it.Quantity
	}
	return n
}
