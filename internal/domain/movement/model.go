// Package movement provides the append-only inventory audit trail.
// Every stock quantity change, and every catalog edit worth auditing,
// produces exactly one Movement. Movements are never updated after
// creation; the only mutable column is deleted_at, which mirrors the
// owning variant's soft-delete lifecycle.
package movement

import (
	"time"

	"github.com/shopspring/decimal"

	"estampa/internal/core/id"
)

// Type is the direction of a movement.
type Type string

const (
	// TypeIn records a stock increase.
	TypeIn Type = "entrada"
	// TypeOut records a stock decrease.
	TypeOut Type = "salida"
	// TypeAdjust records a metadata-only change (quantity 0).
	TypeAdjust Type = "ajuste"
)

// FieldChange captures an old/new value pair for a non-quantity edit.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changes maps field names to their old/new values. Stored as JSONB.
type Changes map[string]FieldChange

// Snapshot is the denormalized state of the affected variant at the time
// the movement was recorded. It is frozen at creation and never follows
// later edits to the variant, so callers must pass an already-loaded
// variant with its parent type and color resolved.
type Snapshot struct {
	ItemName string
	Color    string
	Size     *string
	Price    decimal.Decimal
}

// Movement is one immutable audit record.
type Movement struct {
	ID id.ID `db:"id" json:"id"`

	// Type gives the direction; Quantity is always the magnitude (>= 0).
	Type     Type `db:"type" json:"type"`
	Quantity int  `db:"quantity" json:"quantity"`

	// Operation is the cause slug from the fixed catalog.
	Operation Operation `db:"operation" json:"operation"`

	// Reason is the human-readable explanation.
	Reason string `db:"reason" json:"reason"`

	// Changes holds old/new pairs for metadata edits (nullable).
	Changes Changes `db:"changes" json:"changes,omitempty"`

	// Snapshot fields, frozen at creation time.
	ItemName string          `db:"item_name" json:"itemName"`
	Color    string          `db:"color" json:"color"`
	Size     *string         `db:"size" json:"size,omitempty"`
	Price    decimal.Decimal `db:"price" json:"price"`

	// VariantID is nullable: purged variants keep their movements with
	// the reference cleared while the snapshot survives.
	VariantID *id.ID `db:"variant_id" json:"variantId,omitempty"`

	// UserID is the acting user, nil for system or guest flows.
	UserID *id.ID `db:"user_id" json:"userId,omitempty"`

	// OrderID links sale movements to the order that caused them.
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}
