// Package pack provides bundles of variants sold as one order line, and
// the expansion of a pack line into its per-variant stock requirements.
package pack

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
)

// Item is one component of a pack: a variant and how many units of it
// each pack contains.
type Item struct {
	PackID    id.ID `db:"pack_id" json:"-"`
	VariantID id.ID `db:"variant_id" json:"variantId"`
	Quantity  int   `db:"quantity" json:"quantity"`
}

// Pack is a named bundle with its own price.
type Pack struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// Price is the bundle list price; Discount is an absolute amount
	// subtracted from it at order time (0 <= Discount <= Price).
	Price    decimal.Decimal `db:"price" json:"price"`
	Discount decimal.Decimal `db:"discount" json:"discount"`

	Active bool `db:"active" json:"active"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items []Item `db:"-" json:"items,omitempty"`
}

// UnitPrice is the effective price of one pack at order time.
func (p *Pack) UnitPrice() decimal.Decimal {
	return p.Price.Sub(p.Discount)
}

// Validate checks invariants.
func (p *Pack) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").WithDetail("field", "price")
	}
	if p.Discount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").WithDetail("field", "discount")
	}
	if p.Discount.GreaterThan(p.Price) {
		return apperror.NewValidation("discount cannot exceed price").WithDetail("field", "discount")
	}
	if len(p.Items) == 0 {
		return apperror.NewValidation("a pack needs at least one item").WithDetail("field", "items")
	}
	seen := make(map[id.ID]bool, len(p.Items))
	for i, item := range p.Items {
		if id.IsNil(item.VariantID) {
			return apperror.NewValidation("pack item variant is required").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("pack item quantity must be positive").
				WithDetail("field", "items").
				WithDetail("index", i)
		}
		if seen[item.VariantID] {
			return apperror.NewValidation("pack items must reference distinct variants").
				WithDetail("field", "items").
				WithDetail("variant_id", item.VariantID.String())
		}
		seen[item.VariantID] = true
	}
	return nil
}

// Repository defines persistence for packs.
type Repository interface {
	Create(ctx context.Context, p *Pack) error

	// GetByID retrieves a pack without items.
	GetByID(ctx context.Context, packID id.ID) (*Pack, error)

	// GetWithItems retrieves a pack with its component list loaded.
	GetWithItems(ctx context.Context, packID id.ID) (*Pack, error)

	// SetActive flips the active flag.
	SetActive(ctx context.Context, packID id.ID, active bool) error

	List(ctx context.Context, onlyActive bool) ([]Pack, error)

	// CountPacksReferencing counts packs containing the variant; used by
	// the stock ledger to guard deactivation and purge.
	CountPacksReferencing(ctx context.Context, variantID id.ID, onlyActive bool) (int, error)
}
