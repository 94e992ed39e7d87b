package handlers

import (
	"github.com/gin-gonic/gin"

	"estampa/internal/domain/catalog/itemtype"
	"estampa/internal/domain/catalog/lifecycle"
	"estampa/internal/infrastructure/http/v1/dto"
)

// ItemTypeHandler handles HTTP requests for the product type catalog.
type ItemTypeHandler struct {
	*BaseHandler
	service   *itemtype.Service
	lifecycle *lifecycle.Service
}

// NewItemTypeHandler creates an item type handler.
func NewItemTypeHandler(base *BaseHandler, service *itemtype.Service, lc *lifecycle.Service) *ItemTypeHandler {
	return &ItemTypeHandler{BaseHandler: base, service: service, lifecycle: lc}
}

// Create handles POST /catalog/item-types
func (h *ItemTypeHandler) Create(c *gin.Context) {
	var req dto.CreateItemTypeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	spec := itemtype.CreateSpec{
		Name:     req.Name,
		Category: itemtype.Category(req.Category),
		HasSizes: req.HasSizes,
		ImageURL: req.ImageURL,
	}
	for _, sp := range req.StampingPrices {
		spec.StampingPrices = append(spec.StampingPrices, itemtype.StampingPrice{
			Slug:  sp.Slug,
			Price: sp.Price,
		})
	}

	t, err := h.service.Create(c.Request.Context(), spec)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, t.ID)
}

// Get handles GET /catalog/item-types/:id
func (h *ItemTypeHandler) Get(c *gin.Context) {
	typeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), typeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}

// List handles GET /catalog/item-types
func (h *ItemTypeHandler) List(c *gin.Context) {
	filter := itemtype.Filter{
		OnlyActive: c.Query("onlyActive") == "true",
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}
	if cat := c.Query("category"); cat != "" {
		category := itemtype.Category(cat)
		filter.Category = &category
	}

	types, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: types})
}

// UpdatePrices handles PUT /catalog/item-types/:id/stamping-prices
func (h *ItemTypeHandler) UpdatePrices(c *gin.Context) {
	typeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStampingPricesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	prices := make([]itemtype.StampingPrice, 0, len(req.StampingPrices))
	for _, sp := range req.StampingPrices {
		prices = append(prices, itemtype.StampingPrice{Slug: sp.Slug, Price: sp.Price})
	}

	t, err := h.service.UpdatePrices(c.Request.Context(), typeID, prices)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, t)
}

// Deactivate handles POST /catalog/item-types/:id/deactivate
func (h *ItemTypeHandler) Deactivate(c *gin.Context) {
	typeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.lifecycle.DeactivateType(c.Request.Context(), typeID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "item type deactivated")
}

// Restore handles POST /catalog/item-types/:id/restore
func (h *ItemTypeHandler) Restore(c *gin.Context) {
	typeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.lifecycle.RestoreType(c.Request.Context(), typeID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "item type restored")
}
