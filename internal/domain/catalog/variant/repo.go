package variant

import (
	"context"
	"time"

	"estampa/internal/core/id"
)

// Repository defines persistence for variants. Quantity writes happen
// only through UpdateQuantity so the service can pair them with audit
// movements under one transaction.
type Repository interface {
	Create(ctx context.Context, v *Variant) error

	GetByID(ctx context.Context, variantID id.ID) (*Variant, error)

	// GetDetail loads the variant joined with its type and color.
	GetDetail(ctx context.Context, variantID id.ID) (*Detail, error)

	// GetDetailForUpdate is GetDetail with a row-level lock on the
	// variant row. Must be called inside a transaction; concurrent
	// adjustments to the same variant serialize on this lock.
	GetDetailForUpdate(ctx context.Context, variantID id.ID) (*Detail, error)

	// UpdateQuantity sets the absolute quantity after a locked read.
	UpdateQuantity(ctx context.Context, variantID id.ID, quantity int) error

	// Update persists price, min stock and image edits.
	Update(ctx context.Context, v *Variant) error

	// Deactivate sets inactive plus the soft-delete timestamp;
	// byParent distinguishes lifecycle cascades from manual action.
	Deactivate(ctx context.Context, variantID id.ID, byParent bool, at time.Time) error

	// Restore clears inactive, parent_deactivated and deleted_at.
	Restore(ctx context.Context, variantID id.ID) error

	// HardDelete removes the row. Movements must be detached first.
	HardDelete(ctx context.Context, variantID id.ID) error

	// ExistsByKey reports whether a live variant already uses the
	// (type, color, size) combination.
	ExistsByKey(ctx context.Context, typeID, colorID id.ID, size *string) (bool, error)

	// ListByType returns all variants of a product type, including
	// inactive ones (the lifecycle cascade needs both).
	ListByType(ctx context.Context, typeID id.ID) ([]Variant, error)

	List(ctx context.Context, filter Filter) ([]Detail, error)
}

// Filter narrows variant listings.
type Filter struct {
	ItemTypeID    *id.ID
	ColorID       *id.ID
	OnlyActive    bool
	BelowMinStock bool
	Limit         int
	Offset        int
}

// PackRefCounter reports how many packs reference a variant. Implemented
// by the pack repository; declared here so the ledger does not depend on
// the pack package.
type PackRefCounter interface {
	// CountPacksReferencing counts packs containing the variant.
	// With onlyActive, inactive packs are ignored.
	CountPacksReferencing(ctx context.Context, variantID id.ID, onlyActive bool) (int, error)
}

// noopRefCounter lets tests and tooling run the ledger without packs.
type noopRefCounter struct{}

func (noopRefCounter) CountPacksReferencing(context.Context, id.ID, bool) (int, error) {
	return 0, nil
}

// NoPackRefs returns a PackRefCounter that reports zero references.
func NoPackRefs() PackRefCounter { return noopRefCounter{} }
