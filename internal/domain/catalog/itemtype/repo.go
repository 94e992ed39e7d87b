package itemtype

import (
	"context"
	"time"

	"estampa/internal/core/id"
)

// Repository defines persistence for item types.
type Repository interface {
	Create(ctx context.Context, t *ItemType) error

	// GetByID retrieves the type without its stamping prices.
	GetByID(ctx context.Context, typeID id.ID) (*ItemType, error)

	// GetForUpdate is GetByID with a row-level lock. Must be called
	// inside a transaction; type-level lifecycle cascades and individual
	// variant restores serialize on this lock.
	GetForUpdate(ctx context.Context, typeID id.ID) (*ItemType, error)

	// GetWithPrices retrieves the type with stamping prices loaded.
	GetWithPrices(ctx context.Context, typeID id.ID) (*ItemType, error)

	Update(ctx context.Context, t *ItemType) error

	// SaveStampingPrices replaces the add-on price tiers for a type.
	SaveStampingPrices(ctx context.Context, typeID id.ID, prices []StampingPrice) error

	// SetActive flips the active flag and soft-delete timestamp.
	SetActive(ctx context.Context, typeID id.ID, active bool, at time.Time) error

	ExistsByName(ctx context.Context, name string) (bool, error)

	List(ctx context.Context, filter Filter) ([]ItemType, error)
}

// Filter narrows item type listings.
type Filter struct {
	Category   *Category
	OnlyActive bool
	Limit      int
	Offset     int
}
