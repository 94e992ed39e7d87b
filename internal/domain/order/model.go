// Package order provides order fulfillment: validating incoming orders,
// pricing lines (including stamping add-ons), aggregating stock
// decrements per variant and committing everything in one transaction.
package order

import (
	"context"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// Item is one order line. It references exactly one of a variant or a
// pack, with the unit price frozen at order time.
type Item struct {
	ID      id.ID `db:"id" json:"id"`
	OrderID id.ID `db:"order_id" json:"-"`

	VariantID *id.ID `db:"variant_id" json:"variantId,omitempty"`
	PackID    *id.ID `db:"pack_id" json:"packId,omitempty"`

	Quantity int `db:"quantity" json:"quantity"`

	// UnitPrice is frozen when the order is created; later price edits
	// never touch it.
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`

	// Name is a display snapshot of what was sold.
	Name string `db:"name" json:"name"`

	// AddOns are the stamping slugs priced into UnitPrice.
	AddOns []string `db:"add_ons" json:"addOns,omitempty"`

	StampImageURL     *string `db:"stamp_image_url" json:"stampImageUrl,omitempty"`
	StampInstructions *string `db:"stamp_instructions" json:"stampInstructions,omitempty"`
}

// Subtotal is the line total.
func (i *Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a customer order with its lines.
type Order struct {
	ID id.ID `db:"id" json:"id"`

	Subtotal     decimal.Decimal `db:"subtotal" json:"subtotal"`
	ShippingCost decimal.Decimal `db:"shipping_cost" json:"shippingCost"`
	Total        decimal.Decimal `db:"total" json:"total"`

	// UserID is set for authenticated orders; guest orders carry the
	// contact fields instead.
	UserID     *id.ID `db:"user_id" json:"userId,omitempty"`
	GuestName  string `db:"guest_name" json:"guestName,omitempty"`
	GuestEmail string `db:"guest_email" json:"guestEmail,omitempty"`

	ShippingAddress string `db:"shipping_address" json:"shippingAddress,omitempty"`
	ShippingCity    string `db:"shipping_city" json:"shippingCity,omitempty"`
	ShippingZip     string `db:"shipping_zip" json:"shippingZip,omitempty"`

	Status Status `db:"status" json:"status"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items []Item `db:"-" json:"items,omitempty"`
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks order-level invariants (lines are validated during
// fulfillment, where catalog state is available).
func (o *Order) Validate(ctx context.Context) error {
	if o.UserID == nil {
		if o.GuestEmail == "" {
			return apperror.NewValidation("guest orders require a contact email").
				WithDetail("field", "email")
		}
		if !emailRe.MatchString(o.GuestEmail) {
			return apperror.NewValidation("invalid contact email").
				WithDetail("field", "email")
		}
	}
	return nil
}

// IsTerminal reports whether the status accepts no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Known reports whether the status belongs to the lifecycle.
func (s Status) Known() bool {
	switch s {
	case StatusPendingPayment, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
