package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"estampa/internal/core/apperror"
	"estampa/internal/core/id"
	"estampa/internal/domain/catalog/pack"
	"estampa/internal/infrastructure/http/v1/dto"
)

// PackHandler handles HTTP requests for packs.
type PackHandler struct {
	*BaseHandler
	service *pack.Service
}

// NewPackHandler creates a pack handler.
func NewPackHandler(base *BaseHandler, service *pack.Service) *PackHandler {
	return &PackHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalog/packs
func (h *PackHandler) Create(c *gin.Context) {
	var req dto.CreatePackRequest
	if !h.BindJSON(c, &req) {
		return
	}

	now := time.Now().UTC()
	p := &pack.Pack{
		ID:        id.New(),
		Name:      req.Name,
		Price:     req.Price,
		Discount:  req.Discount,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, item := range req.Items {
		variantID, err := id.Parse(item.VariantID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid variantId format").
				WithDetail("variant_id", item.VariantID))
			return
		}
		p.Items = append(p.Items, pack.Item{
			PackID:    p.ID,
			VariantID: variantID,
			Quantity:  item.Quantity,
		})
	}

	created, err := h.service.Create(c.Request.Context(), p)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, created.ID)
}

// Get handles GET /catalog/packs/:id
func (h *PackHandler) Get(c *gin.Context) {
	packID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), packID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// List handles GET /catalog/packs
func (h *PackHandler) List(c *gin.Context) {
	packs, err := h.service.List(c.Request.Context(), c.Query("onlyActive") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: packs})
}

// Deactivate handles POST /catalog/packs/:id/deactivate
func (h *PackHandler) Deactivate(c *gin.Context) {
	packID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), packID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "pack deactivated")
}
