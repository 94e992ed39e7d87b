package handlers

import (
	"github.com/gin-gonic/gin"

	"estampa/internal/domain/catalog/color"
	"estampa/internal/infrastructure/http/v1/dto"
)

// ColorHandler handles HTTP requests for the color catalog.
type ColorHandler struct {
	*BaseHandler
	repo color.Repository
}

// NewColorHandler creates a color handler.
func NewColorHandler(base *BaseHandler, repo color.Repository) *ColorHandler {
	return &ColorHandler{BaseHandler: base, repo: repo}
}

// Create handles POST /catalog/colors
func (h *ColorHandler) Create(c *gin.Context) {
	var req dto.CreateColorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	col := color.New(req.Name, req.Hex)
	if err := col.Validate(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.repo.Create(c.Request.Context(), col); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, col.ID)
}

// List handles GET /catalog/colors
func (h *ColorHandler) List(c *gin.Context) {
	colors, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: colors})
}
