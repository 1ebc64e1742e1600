package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/servicebook/backend/internal/application/partner"
)

// WarehouseHandler manages warehouses
type WarehouseHandler struct {
	BaseHandler
	warehouseService *partner.WarehouseService
}

// NewWarehouseHandler creates a new WarehouseHandler
func NewWarehouseHandler(warehouseService *partner.WarehouseService) *WarehouseHandler {
	return &WarehouseHandler{warehouseService: warehouseService}
}

// Create godoc
// @ID           createWarehouse
// @Summary      Create a warehouse
// @Description  sort_order decides the order stock is taken from. is_default makes this the warehouse restored stock returns to.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body partner.CreateWarehouseRequest true "Warehouse"
// @Success      201 {object} APIResponse[partner.WarehouseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/warehouses [post]
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req partner.CreateWarehouseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.Code = normalizeCode(req.Code)
	req.Name = normalizeText(req.Name)
	req.Address = normalizeText(req.Address)

	warehouse, err := h.warehouseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, warehouse)
}

// List godoc
// @ID           listWarehouses
// @Summary      List warehouses
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[[]partner.WarehouseResponse]
// @Security     BearerAuth
// @Router       /admin/warehouses [get]
func (h *WarehouseHandler) List(c *gin.Context) {
	warehouses, err := h.warehouseService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, warehouses)
}
