package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/application/transaction"
	"github.com/servicebook/backend/internal/domain/partner"
	"github.com/servicebook/backend/internal/domain/shared"
)

// CreateWarehouseRequest represents a request to create a warehouse
type CreateWarehouseRequest struct {
	Code      string `json:"code" binding:"required,min=1,max=50"`
	Name      string `json:"name" binding:"required,min=1,max=200"`
	Address   string `json:"address" binding:"max=500"`
	SortOrder *int   `json:"sort_order" binding:"omitempty,min=0"`
	IsDefault bool   `json:"is_default"`
}

// WarehouseResponse represents a warehouse in API responses
type WarehouseResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	IsDefault bool      `json:"is_default"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// ToWarehouseResponse converts a domain Warehouse to WarehouseResponse
func ToWarehouseResponse(w *partner.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		Status:    string(w.Status),
		IsDefault: w.IsDefault,
		SortOrder: w.SortOrder,
		CreatedAt: w.CreatedAt,
	}
}

// WarehouseService is the warehouse directory used by the ledger
type WarehouseService struct {
	scope         transaction.Scope
	warehouseRepo partner.WarehouseRepository
}

// NewWarehouseService creates a new WarehouseService
func NewWarehouseService(scope transaction.Scope, warehouseRepo partner.WarehouseRepository) *WarehouseService {
	return &WarehouseService{
		scope:         scope,
		warehouseRepo: warehouseRepo,
	}
}

// Create creates a new warehouse. Flagging it as default clears the flag on
// every other warehouse in the same scope.
func (s *WarehouseService) Create(ctx context.Context, req CreateWarehouseRequest) (*WarehouseResponse, error) {
	warehouse, err := partner.NewWarehouse(req.Code, req.Name, req.Address)
	if err != nil {
		return nil, err
	}
	if req.SortOrder != nil {
		warehouse.SetSortOrder(*req.SortOrder)
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		exists, err := repos.Warehouses().ExistsByCode(ctx, warehouse.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Warehouse with this code already exists")
		}
		if req.IsDefault {
			if err := repos.Warehouses().ClearDefault(ctx); err != nil {
				return err
			}
			warehouse.SetDefault(true)
		}
		return repos.Warehouses().Save(ctx, warehouse)
	})
	if err != nil {
		return nil, err
	}

	resp := ToWarehouseResponse(warehouse)
	return &resp, nil
}

// DefaultWarehouseID resolves the warehouse that receives returned stock
func (s *WarehouseService) DefaultWarehouseID(ctx context.Context) (uuid.UUID, error) {
	w, err := s.warehouseRepo.FindDefault(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return w.ID, nil
}

// List returns every warehouse in directory order
func (s *WarehouseService) List(ctx context.Context) ([]WarehouseResponse, error) {
	warehouses, err := s.warehouseRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]WarehouseResponse, len(warehouses))
	for i := range warehouses {
		out[i] = ToWarehouseResponse(&warehouses[i])
	}
	return out, nil
}
