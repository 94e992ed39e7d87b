package handlers

import (
	"github.com/gin-gonic/gin"

	"estampa/internal/domain/movement"
)

// MovementHandler handles HTTP requests for the audit trail.
type MovementHandler struct {
	*BaseHandler
	recorder *movement.Recorder
}

// NewMovementHandler creates a movement handler.
func NewMovementHandler(base *BaseHandler, recorder *movement.Recorder) *MovementHandler {
	return &MovementHandler{BaseHandler: base, recorder: recorder}
}

// List handles GET /movements
//
// Returns matching movements newest first plus quantity totals grouped
// by type and operation for the same filter.
func (h *MovementHandler) List(c *gin.Context) {
	filter := movement.Filter{
		IncludeDeleted: c.Query("includeDeleted") == "true",
		Limit:          h.ParseIntQuery(c, "limit", 100),
		Offset:         h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.VariantID, ok = h.ParseIDQuery(c, "variantId"); !ok {
		return
	}
	if filter.UserID, ok = h.ParseIDQuery(c, "userId"); !ok {
		return
	}
	if filter.OrderID, ok = h.ParseIDQuery(c, "orderId"); !ok {
		return
	}
	if t := c.Query("type"); t != "" {
		movType := movement.Type(t)
		filter.Type = &movType
	}
	if op := c.Query("operation"); op != "" {
		operation := movement.Operation(op)
		filter.Operation = &operation
	}
	if filter.FromDate, ok = h.ParseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.ParseTimeQuery(c, "to"); !ok {
		return
	}

	result, err := h.recorder.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Get handles GET /movements/:id
func (h *MovementHandler) Get(c *gin.Context) {
	movementID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.recorder.GetByID(c.Request.Context(), movementID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, m)
}
