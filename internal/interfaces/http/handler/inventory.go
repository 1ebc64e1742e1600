package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/application/catalog"
	"github.com/servicebook/backend/internal/application/inventory"
	"github.com/servicebook/backend/internal/application/partner"
	domain "github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/interfaces/http/dto"
)

// InventoryHandler exposes manual ledger adjustments and stock queries
type InventoryHandler struct {
	BaseHandler
	ledger     *inventory.LedgerService
	registry   *catalog.RegistryService
	warehouses *partner.WarehouseService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(
	ledger *inventory.LedgerService,
	registry *catalog.RegistryService,
	warehouses *partner.WarehouseService,
) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, registry: registry, warehouses: warehouses}
}

// AddStock godoc
// @ID           addStock
// @Summary      Add stock
// @Description  Adds quantity to the record keyed by variant, warehouse and stock type, creating it if absent. Without warehouse_id the default warehouse receives it.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body inventory.AddStockRequest true "Stock to add"
// @Success      200 {object} APIResponse[inventory.StockMutationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/inventory/add [post]
func (h *InventoryHandler) AddStock(c *gin.Context) {
	var req inventory.AddStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	stockType, err := domain.ParseStockType(req.StockType)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	warehouseID := req.WarehouseID
	if warehouseID == uuid.Nil {
		if warehouseID, err = h.warehouses.DefaultWarehouseID(ctx); err != nil {
			h.HandleError(c, err)
			return
		}
	}
	applied, err := h.ledger.AddStock(ctx, req.VariantID, warehouseID, req.Quantity, stockType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.ledger.TotalStock(ctx, req.VariantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inventory.StockMutationResponse{VariantID: req.VariantID, Applied: applied, TotalStock: total})
}

// ReduceStock godoc
// @ID           reduceStock
// @Summary      Reduce stock
// @Description  Takes quantity from the variant's records in warehouse sort order. Nothing changes when total stock is insufficient.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body inventory.ReduceStockRequest true "Stock to take"
// @Success      200 {object} APIResponse[inventory.StockMutationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/inventory/reduce [post]
func (h *InventoryHandler) ReduceStock(c *gin.Context) {
	var req inventory.ReduceStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	applied, err := h.ledger.ReduceStock(c.Request.Context(), req.VariantID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !applied {
		h.Error(c, dto.ErrCodeInsufficientStock, "Insufficient stock for variant")
		return
	}
	total, err := h.ledger.TotalStock(c.Request.Context(), req.VariantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inventory.StockMutationResponse{VariantID: req.VariantID, Applied: true, TotalStock: total})
}

// GetStock godoc
// @ID           getVariantStock
// @Summary      Stock of a variant
// @Description  Total stock and the per-warehouse records it is summed from
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Variant ID" format(uuid)
// @Success      200 {object} APIResponse[inventory.StockBreakdownResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /variants/{id}/stock [get]
func (h *InventoryHandler) GetStock(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	exists, err := h.registry.VariantExists(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !exists {
		h.Error(c, dto.ErrCodeNotFound, "Variant not found")
		return
	}
	breakdown, err := h.ledger.StockBreakdown(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, breakdown)
}
