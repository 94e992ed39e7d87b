package handlers

import (
	"github.com/gin-gonic/gin"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/order"
	"estampa/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	*BaseHandler
	service *order.Service
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(base *BaseHandler, service *order.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input := order.CreateInput{
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingZip:     req.ShippingZip,
		ShippingCost:    req.ShippingCost,
	}

	for i, item := range req.Items {
		line := order.LineInput{
			Quantity:          item.Quantity,
			AddOns:            item.AddOns,
			StampImageURL:     item.StampImageURL,
			StampInstructions: item.StampInstructions,
		}
		if item.VariantID != nil {
			parsed, err := id.Parse(*item.VariantID)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid variantId format").WithDetail("index", i))
				return
			}
			line.VariantID = &parsed
		}
		if item.PackID != nil {
			parsed, err := id.Parse(*item.PackID)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid packId format").WithDetail("index", i))
				return
			}
			line.PackID = &parsed
		}
		input.Items = append(input.Items, line)
	}

	o, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	filter := order.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.UserID, ok = h.ParseIDQuery(c, "userId"); !ok {
		return
	}
	if st := c.Query("status"); st != "" {
		status := order.Status(st)
		if !status.Known() {
			h.Error(c, apperror.NewValidation("unknown order status").WithDetail("status", st))
			return
		}
		filter.Status = &status
	}
	if filter.FromDate, ok = h.ParseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.ParseTimeQuery(c, "to"); !ok {
		return
	}

	orders, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: orders})
}

// UpdateStatus handles PATCH /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateOrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.UpdateStatus(c.Request.Context(), orderID, order.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}
