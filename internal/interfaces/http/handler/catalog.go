package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/servicebook/backend/internal/application/catalog"
)

// CatalogHandler serves the variant registry
type CatalogHandler struct {
	BaseHandler
	registry *catalog.RegistryService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(registry *catalog.RegistryService) *CatalogHandler {
	return &CatalogHandler{registry: registry}
}

// RegisterProduct godoc
// @ID           registerProduct
// @Summary      Register a product
// @Description  Creates a product, its variants and their opening stock in one transaction
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body catalog.RegisterProductRequest true "Product with variants"
// @Success      201 {object} APIResponse[catalog.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/products [post]
func (h *CatalogHandler) RegisterProduct(c *gin.Context) {
	var req catalog.RegisterProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.Code = normalizeCode(req.Code)
	req.Name = normalizeText(req.Name)
	req.Description = normalizeText(req.Description)
	for i := range req.Variants {
		req.Variants[i].Capacity = normalizeText(req.Variants[i].Capacity)
	}

	product, err := h.registry.RegisterProduct(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// UpdateVariant godoc
// @ID           updateVariant
// @Summary      Update a variant
// @Description  Updates capacity, pricing or status in place. Variant IDs never change, so bookings keep their reference.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Param        request body catalog.UpdateVariantRequest true "Patch"
// @Success      200 {object} APIResponse[catalog.VariantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/variants/{id} [patch]
func (h *CatalogHandler) UpdateVariant(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req catalog.UpdateVariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.Capacity = normalizeTextPtr(req.Capacity)

	variant, err := h.registry.UpdateVariant(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, variant)
}

// GetVariant godoc
// @ID           getVariant
// @Summary      Get a variant
// @Description  Returns the variant with its total stock across all warehouses
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[catalog.VariantResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /variants/{id} [get]
func (h *CatalogHandler) GetVariant(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	variant, err := h.registry.GetVariant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, variant)
}

// ListProductVariants godoc
// @ID           listProductVariants
// @Summary      List variants of a product
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[[]catalog.VariantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/variants [get]
func (h *CatalogHandler) ListProductVariants(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	variants, err := h.registry.ListProductVariants(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, variants)
}
