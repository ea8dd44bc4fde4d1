package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/filex"
	"github.com/shopspring/decimal"
)

// Products fetches the catalog and lists it through the search filter.
func (a *App) Products(ctx context.Context) error {
	if _, err := a.storefront.Products.FetchCatalog(ctx); err != nil {
		return err
	}
	a.printSearchTerm()
	printProducts(a.out, a.storefront.Products.FilteredCatalog())
	return nil
}

// Mine lists the products the current user owns.
func (a *App) Mine(ctx context.Context) error {
	if _, err := a.storefront.Products.FetchOwnProducts(ctx); err != nil {
		return err
	}
	a.printSearchTerm()
	printProducts(a.out, a.storefront.Products.FilteredOwnProducts())
	return nil
}

func (a *App) Show(ctx context.Context, id string) error {
	p, err := a.storefront.Products.FetchDetail(ctx, id)
	if err != nil {
		return err
	}
	printProduct(a.out, *p)
	return nil
}

// Search sets the filter applied to product listings and shows the cached
// catalog through it. An empty term clears the filter.
func (a *App) Search(term string) error {
	a.storefront.Products.SetSearchTerm(term)
	if term == "" {
		fmt.Fprintln(a.out, "Search cleared")
	}
	a.printSearchTerm()
	printProducts(a.out, a.storefront.Products.FilteredCatalog())
	return nil
}

// Add prompts for a new product and its images and submits it.
func (a *App) Add(ctx context.Context) error {
	if !a.isLoggedIn() {
		return client.ErrAuthRequired
	}

	fields, malformed, err := a.promptFields(models.ProductFields{})
	if err != nil {
		return err
	}

	paths, err := getSimpleText(a.reader, "Image files (comma separated)", a.out)
	if err != nil {
		return err
	}
	images, err := readImages(splitList(paths))
	if err != nil {
		return err
	}
	if len(malformed) > 0 {
		return withMalformed(models.ValidateProduct(fields, images), malformed)
	}

	p, err := a.storefront.Products.AddProduct(ctx, fields, images)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s (%s)\n", p.Name, p.ID)
	return nil
}

// Edit prompts for new values of a product, offering the current ones as
// defaults. An empty image path keeps the existing images.
func (a *App) Edit(ctx context.Context, id string) error {
	if !a.isLoggedIn() {
		return client.ErrAuthRequired
	}

	current, err := a.storefront.Products.FetchDetail(ctx, id)
	if err != nil {
		return err
	}

	fields, malformed, err := a.promptFields(current.Fields())
	if err != nil {
		return err
	}
	if len(malformed) > 0 {
		return withMalformed(models.ValidateProductUpdate(fields), malformed)
	}

	path, err := getSimpleText(a.reader, "New image file (empty keeps the current one)", a.out)
	if err != nil {
		return err
	}
	var image *models.Image
	if path != "" {
		images, err := readImages([]string{path})
		if err != nil {
			return err
		}
		image = &images[0]
	}

	p, err := a.storefront.Products.UpdateProduct(ctx, id, fields, image)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s\n", p.Name)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if !a.isLoggedIn() {
		return client.ErrAuthRequired
	}

	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete product %s? (y/N)", id), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.storefront.Products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

func (a *App) printSearchTerm() {
	if term := a.storefront.Products.SearchTerm(); term != "" {
		fmt.Fprintf(a.out, "Filter: %q\n", term)
	}
}

// promptFields asks for every editable field. An empty answer keeps the value
// from def when def has one. Answers that do not parse as numbers are
// returned by field name, and the matching field is left zero.
func (a *App) promptFields(def models.ProductFields) (models.ProductFields, map[string]string, error) {
	ask := func(prompt, current string) (string, error) {
		if current != "" {
			prompt = fmt.Sprintf("%s [%s]", prompt, current)
		}
		v, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return "", err
		}
		if v == "" {
			return current, nil
		}
		return v, nil
	}

	var (
		curPrice, curStock string
		out                models.ProductFields
		err                error
	)
	if !def.Price.IsZero() {
		curPrice = def.Price.String()
	}
	if def.InStock != 0 {
		curStock = strconv.Itoa(def.InStock)
	}

	if out.Name, err = ask("Product name", def.Name); err != nil {
		return out, nil, err
	}
	if out.Description, err = ask("Description", def.Description); err != nil {
		return out, nil, err
	}
	price, err := ask("Price", curPrice)
	if err != nil {
		return out, nil, err
	}
	stock, err := ask("Stock quantity", curStock)
	if err != nil {
		return out, nil, err
	}

	invalid := make(map[string]string)
	if price != "" {
		if out.Price, err = decimal.NewFromString(price); err != nil {
			invalid["price"] = "Price must be a number"
		}
	}
	if stock != "" {
		if out.InStock, err = strconv.Atoi(stock); err != nil {
			invalid["inStock"] = "Stock quantity must be a whole number"
		}
	}
	return out, invalid, nil
}

// withMalformed reports the parse failures together with every other failing
// field, the parse message taking precedence for its field.
func withMalformed(checks, malformed map[string]string) error {
	for field, msg := range malformed {
		checks[field] = msg
	}
	return models.NewValidationError(checks)
}

func readImages(paths []string) ([]models.Image, error) {
	images := make([]models.Image, 0, len(paths))
	for _, path := range paths {
		name, content, err := filex.ReadUpload(path, maxImageSize)
		if err != nil {
			return nil, err
		}
		images = append(images, models.Image{Filename: name, Content: content})
	}
	return images, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
