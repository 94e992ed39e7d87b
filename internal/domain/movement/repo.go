package movement

import (
	"context"
	"time"

	"estampa/internal/core/id"
)

// Repository defines persistence for the audit trail.
// Append is the only write path for movement rows; the soft-delete
// methods exist solely to mirror the owning variant's lifecycle.
type Repository interface {
	// Append inserts one movement. Movements are never updated.
	Append(ctx context.Context, m *Movement) error

	// GetByID retrieves a movement.
	GetByID(ctx context.Context, movementID id.ID) (*Movement, error)

	// List retrieves movements matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]Movement, error)

	// Totals aggregates quantity sums grouped by type and by operation
	// for the same filter used by List.
	Totals(ctx context.Context, filter Filter) (Totals, error)

	// SoftDeleteByVariant hides the variant's movements while it is
	// deactivated. Rows appended afterwards stay visible.
	SoftDeleteByVariant(ctx context.Context, variantID id.ID, at time.Time) error

	// RestoreByVariant clears the soft-delete timestamp set by
	// SoftDeleteByVariant.
	RestoreByVariant(ctx context.Context, variantID id.ID) error

	// DetachVariant clears the variant reference on all of its movements
	// (used before a hard delete; snapshots survive).
	DetachVariant(ctx context.Context, variantID id.ID) error
}

// Filter narrows movement listings.
type Filter struct {
	VariantID *id.ID
	UserID    *id.ID
	OrderID   *id.ID
	Type      *Type
	Operation *Operation
	FromDate  *time.Time
	ToDate    *time.Time

	// IncludeDeleted also returns movements of deactivated variants.
	IncludeDeleted bool

	Limit  int
	Offset int
}

// Totals holds aggregate quantity sums for a movement listing.
type Totals struct {
	ByType      map[Type]int      `json:"byType"`
	ByOperation map[Operation]int `json:"byOperation"`
	Count       int               `json:"count"`
}
