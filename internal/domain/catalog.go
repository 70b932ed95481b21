package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus is the publication state of a product.
type ProductStatus string

const (
	StatusDraft     ProductStatus = "draft"
	StatusPublished ProductStatus = "published"
	StatusArchived  ProductStatus = "archived"
)

// ValidStatus reports whether s is one of the known product statuses.
func ValidStatus(s string) bool {
	switch ProductStatus(s) {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Product is a catalog entry. Prices are exact decimals; CompareAt is an
// optional strike-through reference price and is not required to exceed
// Price.
type Product struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	CompareAt   *decimal.Decimal `json:"compareAt,omitempty"`
	Status      ProductStatus    `json:"status"`
	Stock       int              `json:"stock"`
	Images      []string         `json:"images"`
	Tags        []string         `json:"tags"`
	Categories  []CategoryRef    `json:"categories"`
	SEOTitle    string           `json:"seoTitle,omitempty"`
	SEODesc     string           `json:"seoDesc,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ProductListItem is the projection returned by paged product lists.
type ProductListItem struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Slug       string           `json:"slug"`
	Price      decimal.Decimal  `json:"price"`
	CompareAt  *decimal.Decimal `json:"compareAt,omitempty"`
	Status     ProductStatus    `json:"status"`
	Stock      int              `json:"stock"`
	Images     []string         `json:"images"`
	Categories []string         `json:"categories"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// Category groups products. The product count is derived by the store, never
// maintained on the row.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategoryWithCount is the list projection carrying the linked-product count.
type CategoryWithCount struct {
	Category
	ProductCount int `json:"productCount"`
}

// CategoryRef is the minimal category shape embedded in product payloads.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}
