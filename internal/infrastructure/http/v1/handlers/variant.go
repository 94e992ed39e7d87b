package handlers

import (
	"github.com/gin-gonic/gin"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/catalog/variant"
	"estampa/internal/domain/movement"
	"estampa/internal/infrastructure/http/v1/dto"
)

// VariantHandler handles HTTP requests for variants and the stock ledger.
type VariantHandler struct {
	*BaseHandler
	service *variant.Service
}

// NewVariantHandler creates a variant handler.
func NewVariantHandler(base *BaseHandler, service *variant.Service) *VariantHandler {
	return &VariantHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalog/variants
func (h *VariantHandler) Create(c *gin.Context) {
	var req dto.CreateVariantRequest
	if !h.BindJSON(c, &req) {
		return
	}

	typeID, err := id.Parse(req.ItemTypeID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemTypeId format"))
		return
	}
	colorID, err := id.Parse(req.ColorID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid colorId format"))
		return
	}

	v, err := h.service.Create(c.Request.Context(), variant.CreateSpec{
		ItemTypeID:      typeID,
		ColorID:         colorID,
		Size:            req.Size,
		InitialQuantity: req.InitialQuantity,
		MinStock:        req.MinStock,
		Price:           req.Price,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, v.ID)
}

// Get handles GET /catalog/variants/:id
func (h *VariantHandler) Get(c *gin.Context) {
	variantID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.GetDetail(c.Request.Context(), variantID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, d)
}

// List handles GET /catalog/variants
func (h *VariantHandler) List(c *gin.Context) {
	filter := variant.Filter{
		OnlyActive:    c.Query("onlyActive") == "true",
		BelowMinStock: c.Query("belowMinStock") == "true",
		Limit:         h.ParseIntQuery(c, "limit", 50),
		Offset:        h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.ItemTypeID, ok = h.ParseIDQuery(c, "itemTypeId"); !ok {
		return
	}
	if filter.ColorID, ok = h.ParseIDQuery(c, "colorId"); !ok {
		return
	}

	details, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: details})
}

// Update handles PATCH /catalog/variants/:id
func (h *VariantHandler) Update(c *gin.Context) {
	variantID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateVariantRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Update(c.Request.Context(), variant.UpdateSpec{
		VariantID: variantID,
		Price:     req.Price,
		MinStock:  req.MinStock,
		Reason:    req.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, v)
}

// Adjust handles POST /catalog/variants/:id/adjust
func (h *VariantHandler) Adjust(c *gin.Context) {
	variantID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Adjust(c.Request.Context(), variant.AdjustSpec{
		VariantID: variantID,
		Delta:     req.Delta,
		Operation: movement.Operation(req.Operation),
		Reason:    req.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, v)
}

// Deactivate handles POST /catalog/variants/:id/deactivate
func (h *VariantHandler) Deactivate(c *gin.Context) {
	variantID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.Deactivate(c.Request.Context(), variantID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, v)
}

// Restore handles POST /catalog/variants/:id/restore
func (h *VariantHandler) Restore(c *gin.Context) {
	variantID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.Restore(c.Request.Context(), variantID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, v)
}

// Purge handles DELETE /catalog/variants/:id
func (h *VariantHandler) Purge(c *gin.Context) {
	variantID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Purge(c.Request.Context(), variantID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
