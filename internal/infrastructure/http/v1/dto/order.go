package dto

import (
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one requested order line. Exactly one of variantId
// or packId must be set.
type OrderItemRequest struct {
	VariantID *string `json:"variantId"`
	PackID    *string `json:"packId"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`

	AddOns            []string `json:"addOns"`
	StampImageURL     *string  `json:"stampImageUrl"`
	StampInstructions *string  `json:"stampInstructions"`
}

// CreateOrderRequest for order creation. Guest orders carry the contact
// fields; authenticated orders take the user from the token.
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1"`

	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`

	ShippingAddress string          `json:"shippingAddress"`
	ShippingCity    string          `json:"shippingCity"`
	ShippingZip     string          `json:"shippingZip"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
}

// UpdateOrderStatusRequest requests one lifecycle transition.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
