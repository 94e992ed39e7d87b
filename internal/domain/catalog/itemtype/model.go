// Package itemtype provides the product type catalog and its lifecycle:
// a product type owns variants, carries the stamping price tiers used for
// order add-on pricing, and cascades deactivation onto its variants.
package itemtype

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
)

// Category groups product types and drives variant defaults.
type Category string

const (
	CategoryShirt  Category = "camiseta"
	CategoryHoodie Category = "buzo"
	CategoryCap    Category = "gorra"
	CategoryMug    Category = "taza"
	CategoryOther  Category = "otro"
)

// DefaultMinStock returns the default minimum stock threshold for new
// variants of this category. Values mirror the storefront's restocking
// practice: fast movers get a higher floor.
func (c Category) DefaultMinStock() int {
	switch c {
	case CategoryShirt, CategoryHoodie:
		return 5
	case CategoryCap:
		return 10
	case CategoryMug:
		return 6
	default:
		return 3
	}
}

// StampingPrice is one pricing tier for a customization add-on, keyed by
// slug (print location or technique, e.g. "pecho", "espalda", "bordado").
type StampingPrice struct {
	ItemTypeID id.ID           `db:"item_type_id" json:"-"`
	Slug       string          `db:"slug" json:"slug"`
	Price      decimal.Decimal `db:"price" json:"price"`
}

// ItemType is a catalog entry owning zero or more variants.
type ItemType struct {
	ID       id.ID    `db:"id" json:"id"`
	Name     string   `db:"name" json:"name"`
	Category Category `db:"category" json:"category"`

	// HasSizes indicates whether variants of this type carry a size.
	HasSizes bool `db:"has_sizes" json:"hasSizes"`

	ImageURL *string `db:"image_url" json:"imageUrl,omitempty"`

	Active bool `db:"active" json:"active"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`

	// StampingPrices is the add-on pricing map, loaded explicitly.
	StampingPrices []StampingPrice `db:"-" json:"stampingPrices,omitempty"`
}

// New creates an item type with a generated id.
func New(name string, category Category, hasSizes bool) *ItemType {
	now := time.Now().UTC()
	return &ItemType{
		ID:        id.New(),
		Name:      name,
		Category:  category,
		HasSizes:  hasSizes,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks invariants.
func (t *ItemType) Validate(ctx context.Context) error {
	if t.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	switch t.Category {
	case CategoryShirt, CategoryHoodie, CategoryCap, CategoryMug, CategoryOther:
	default:
		return apperror.NewValidation("invalid category").
			WithDetail("field", "category").
			WithDetail("value", string(t.Category))
	}
	for _, sp := range t.StampingPrices {
		if sp.Slug == "" {
			return apperror.NewValidation("stamping price slug is required").
				WithDetail("field", "stampingPrices")
		}
		if sp.Price.IsNegative() {
			return apperror.NewValidation("stamping price cannot be negative").
				WithDetail("field", "stampingPrices").
				WithDetail("slug", sp.Slug)
		}
	}
	return nil
}

// PriceMap returns the loaded stamping prices keyed by slug.
func (t *ItemType) PriceMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(t.StampingPrices))
	for _, sp := range t.StampingPrices {
		m[sp.Slug] = sp.Price
	}
	return m
}
