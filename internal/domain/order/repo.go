package order

import (
	"context"
	"time"

	"estampa/internal/core/id"
)

// Repository defines persistence for orders.
type Repository interface {
	// Create inserts the order and its items.
	Create(ctx context.Context, o *Order) error

	// GetByID retrieves the order with items loaded.
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// GetForUpdate retrieves the order (without items) with a row lock,
	// serializing concurrent status transitions.
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	// UpdateStatus persists a status transition.
	UpdateStatus(ctx context.Context, orderID id.ID, status Status, at time.Time) error

	List(ctx context.Context, filter Filter) ([]Order, error)
}

// Filter narrows order listings.
type Filter struct {
	UserID   *id.ID
	Status   *Status
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
