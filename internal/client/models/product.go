package models

import (
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. JSON names follow the remote API.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	InStock     int             `json:"inStock"`
	Images      []string        `json:"productImage"`
	OwnerID     string          `json:"userId"`
}

// ProductFields is the editable part of a product, submitted on create and update.
type ProductFields struct {
	Name        string
	Description string
	Price       decimal.Decimal
	InStock     int
}

// Image is a file attached to a product submission.
type Image struct {
	Filename string
	Content  []byte
}

// Fields returns the editable part of p.
func (p Product) Fields() ProductFields {
	return ProductFields{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		InStock:     p.InStock,
	}
}

// Clone returns a copy of p that shares no slices with it.
func (p Product) Clone() Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}

// ValidateProduct runs every create-time check and returns one message per
// violated field. An empty map means the submission is valid.
func ValidateProduct(f ProductFields, images []Image) map[string]string {
	errs := make(map[string]string)

	switch {
	case f.Name == "":
		errs["name"] = "Product name is required"
	case utf8.RuneCountInString(f.Name) < 3:
		errs["name"] = "Product name must be at least 3 characters long"
	case !startsWithUpper(f.Name):
		errs["name"] = "Product name must start with a capital letter"
	}

	switch {
	case f.Description == "":
		errs["description"] = "Description is required"
	case utf8.RuneCountInString(f.Description) < 5:
		errs["description"] = "Description must be at least 5 characters long"
	}

	if !f.Price.IsPositive() {
		errs["price"] = "Price must be greater than 0"
	}

	if f.InStock <= 0 {
		errs["inStock"] = "Stock quantity must be greater than 0"
	}

	if len(images) == 0 {
		errs["productImage"] = "Product image is required"
	}

	return errs
}

// ValidateProductUpdate applies the looser edit-time rules: stock may drop to
// zero and the image is optional.
func ValidateProductUpdate(f ProductFields) map[string]string {
	errs := make(map[string]string)

	if f.Name == "" {
		errs["name"] = "Product name is required"
	}
	if f.Description == "" {
		errs["description"] = "Description is required"
	}
	if !f.Price.IsPositive() {
		errs["price"] = "Price must be greater than 0"
	}
	if f.InStock < 0 {
		errs["inStock"] = "In Stock must be a non-negative number"
	}

	return errs
}

func startsWithUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
