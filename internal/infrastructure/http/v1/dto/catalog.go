package dto

import (
	"github.com/shopspring/decimal"
)

// --- Item types ---

// StampingPriceDTO is one add-on price tier.
type StampingPriceDTO struct {
	Slug  string          `json:"slug" binding:"required"`
	Price decimal.Decimal `json:"price"`
}

// CreateItemTypeRequest for creating item types.
type CreateItemTypeRequest struct {
	Name           string             `json:"name" binding:"required"`
	Category       string             `json:"category" binding:"required"`
	HasSizes       bool               `json:"hasSizes"`
	ImageURL       *string            `json:"imageUrl"`
	StampingPrices []StampingPriceDTO `json:"stampingPrices"`
}

// UpdateStampingPricesRequest replaces a type's add-on price tiers.
type UpdateStampingPricesRequest struct {
	StampingPrices []StampingPriceDTO `json:"stampingPrices" binding:"required"`
}

// --- Colors ---

// CreateColorRequest for creating colors.
type CreateColorRequest struct {
	Name string  `json:"name" binding:"required"`
	Hex  *string `json:"hex"`
}

// --- Variants ---

// CreateVariantRequest for creating variants.
type CreateVariantRequest struct {
	ItemTypeID      string          `json:"itemTypeId" binding:"required"`
	ColorID         string          `json:"colorId" binding:"required"`
	Size            *string         `json:"size"`
	InitialQuantity int             `json:"initialQuantity" binding:"min=0"`
	MinStock        *int            `json:"minStock"`
	Price           decimal.Decimal `json:"price"`
}

// UpdateVariantRequest edits variant metadata; nil fields stay untouched.
type UpdateVariantRequest struct {
	Price    *decimal.Decimal `json:"price"`
	MinStock *int             `json:"minStock"`
	Reason   string           `json:"reason"`
}

// AdjustStockRequest applies a signed stock delta.
type AdjustStockRequest struct {
	Delta     int    `json:"delta" binding:"required"`
	Operation string `json:"operation"`
	Reason    string `json:"reason"`
}

// --- Packs ---

// PackItemDTO is one pack component.
type PackItemDTO struct {
	VariantID string `json:"variantId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// CreatePackRequest for creating packs.
type CreatePackRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Discount decimal.Decimal `json:"discount"`
	Items    []PackItemDTO   `json:"items" binding:"required,min=1"`
}
