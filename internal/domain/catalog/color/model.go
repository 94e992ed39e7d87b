// Package color provides the color reference catalog. Variants point at a
// color; movements denormalize its name into their snapshot.
package color

import (
	"context"
	"time"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
)

// Color is one entry of the color catalog.
type Color struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Hex       *string   `db:"hex" json:"hex,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// New creates a color with a generated id.
func New(name string, hex *string) *Color {
	return &Color{
		ID:        id.New(),
		Name:      name,
		Hex:       hex,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks invariants.
func (c *Color) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}

// Repository defines persistence for colors.
type Repository interface {
	Create(ctx context.Context, c *Color) error
	GetByID(ctx context.Context, colorID id.ID) (*Color, error)
	GetByName(ctx context.Context, name string) (*Color, error)
	List(ctx context.Context) ([]Color, error)
}
