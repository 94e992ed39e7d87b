// Package variant provides the purchasable SKU catalog and the stock
// ledger that owns every quantity change. A variant is one (product type,
// color, size) combination; its quantity is only ever mutated here, and
// every mutation pairs with exactly one audit movement.
package variant

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/movement"
)

// Variant is one purchasable SKU.
type Variant struct {
	ID         id.ID `db:"id" json:"id"`
	ItemTypeID id.ID `db:"item_type_id" json:"itemTypeId"`
	ColorID    id.ID `db:"color_id" json:"colorId"`

	// Size is nil for types without sizes (mugs, caps).
	Size *string `db:"size" json:"size,omitempty"`

	// Quantity is the current stock level, never negative at commit.
	Quantity int `db:"quantity" json:"quantity"`

	// MinStock is the restocking threshold.
	MinStock int `db:"min_stock" json:"minStock"`

	Price decimal.Decimal `db:"price" json:"price"`

	Active bool `db:"active" json:"active"`

	// ParentDeactivated marks variants deactivated only because their
	// product type was deactivated. Restoring the type reactivates
	// exactly these; manually deactivated variants stay down.
	ParentDeactivated bool `db:"parent_deactivated" json:"parentDeactivated"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// Validate checks invariants that hold without database access.
func (v *Variant) Validate(ctx context.Context) error {
	if id.IsNil(v.ItemTypeID) {
		return apperror.NewValidation("item type is required").WithDetail("field", "itemTypeId")
	}
	if id.IsNil(v.ColorID) {
		return apperror.NewValidation("color is required").WithDetail("field", "colorId")
	}
	if v.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	if v.MinStock < 0 {
		return apperror.NewValidation("min stock cannot be negative").WithDetail("field", "minStock")
	}
	if v.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").WithDetail("field", "price")
	}
	if v.Size != nil && *v.Size == "" {
		return apperror.NewValidation("size cannot be empty").WithDetail("field", "size")
	}
	return nil
}

// BelowMinStock reports whether the variant needs restocking.
func (v *Variant) BelowMinStock() bool {
	return v.Quantity < v.MinStock
}

// Detail is a variant with its parent type and color resolved. The
// movement recorder computes snapshots from it, so it must be loaded
// before recording, never lazily.
type Detail struct {
	Variant

	TypeName   string `db:"type_name" json:"typeName"`
	TypeActive bool   `db:"type_active" json:"typeActive"`
	ColorName  string `db:"color_name" json:"colorName"`
}

// Snapshot freezes the denormalized state for an audit movement.
func (d *Detail) Snapshot() movement.Snapshot {
	return movement.Snapshot{
		ItemName: d.TypeName,
		Color:    d.ColorName,
		Size:     d.Size,
		Price:    d.Price,
	}
}
