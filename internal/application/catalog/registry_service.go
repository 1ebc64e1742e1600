package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	appinv "github.com/servicebook/backend/internal/application/inventory"
	"github.com/servicebook/backend/internal/application/transaction"
	"github.com/servicebook/backend/internal/domain/catalog"
	"github.com/servicebook/backend/internal/domain/inventory"
	"github.com/servicebook/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RegistryService maps variants to their identity and aggregate stock view
type RegistryService struct {
	scope       transaction.Scope
	productRepo catalog.ProductRepository
	variantRepo catalog.VariantRepository
	stockRepo   inventory.StockRecordRepository
	logger      *zap.Logger
}

// NewRegistryService creates a new RegistryService
func NewRegistryService(
	scope transaction.Scope,
	productRepo catalog.ProductRepository,
	variantRepo catalog.VariantRepository,
	stockRepo inventory.StockRecordRepository,
	logger *zap.Logger,
) *RegistryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistryService{
		scope:       scope,
		productRepo: productRepo,
		variantRepo: variantRepo,
		stockRepo:   stockRepo,
		logger:      logger,
	}
}

// GetVariant returns a variant with its aggregate stock
func (s *RegistryService) GetVariant(ctx context.Context, id uuid.UUID) (*VariantResponse, error) {
	variant, err := s.variantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	total, err := s.stockRepo.SumByVariant(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToVariantResponse(variant, total)
	return &resp, nil
}

// VariantExists reports whether the variant is registered
func (s *RegistryService) VariantExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.variantRepo.Exists(ctx, id)
}

// ListProductVariants returns the variants of a product in creation order
// with their stock. An unknown product is NOT_FOUND.
func (s *RegistryService) ListProductVariants(ctx context.Context, productID uuid.UUID) ([]VariantResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	variants, err := s.variantRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]VariantResponse, len(variants))
	for i := range variants {
		total, err := s.stockRepo.SumByVariant(ctx, variants[i].ID)
		if err != nil {
			return nil, err
		}
		out[i] = ToVariantResponse(&variants[i], total)
	}
	return out, nil
}

// RegisterProduct creates a product, its variants and their opening stock in
// one atomic scope.
func (s *RegistryService) RegisterProduct(ctx context.Context, req RegisterProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Code, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if len(req.Variants) == 0 {
		return nil, shared.NewValidationError("At least one variant is required")
	}
	for _, v := range req.Variants {
		if _, err := product.AddVariant(v.Capacity, v.Price, v.InstallationFee); err != nil {
			return nil, err
		}
	}

	type opening struct {
		variantID   uuid.UUID
		warehouseID uuid.UUID
		quantity    int64
		stockType   inventory.StockType
	}
	var openings []opening
	for i, v := range req.Variants {
		for _, st := range v.InitialStock {
			stockType, err := inventory.ParseStockType(st.StockType)
			if err != nil {
				return nil, err
			}
			if st.Quantity <= 0 {
				return nil, shared.NewValidationError("Initial stock quantity must be positive")
			}
			openings = append(openings, opening{product.Variants[i].ID, st.WarehouseID, st.Quantity, stockType})
		}
	}

	stock := make(map[uuid.UUID]int64, len(product.Variants))
	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		exists, err := repos.Products().ExistsByCode(ctx, product.Code)
		if err != nil {
			return fmt.Errorf("check product code: %w", err)
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Product with code "+product.Code+" already exists")
		}
		if err := repos.Products().Create(ctx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		ledger := appinv.NewLedger(repos, 0)
		for _, o := range openings {
			if _, err := ledger.AddStock(ctx, o.variantID, o.warehouseID, o.quantity, o.stockType); err != nil {
				return err
			}
			stock[o.variantID] += o.quantity
		}
		return repos.Events().Record(ctx, product.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	product.ClearDomainEvents()

	s.logger.Info("Product registered",
		zap.String("product_id", product.ID.String()),
		zap.String("code", product.Code),
		zap.Int("variants", len(product.Variants)))

	resp := ToProductResponse(product, stock)
	return &resp, nil
}

// UpdateVariant updates a variant in place by primary key. The variant keeps
// its identity so bookings and stock records stay attached.
func (s *RegistryService) UpdateVariant(ctx context.Context, id uuid.UUID, req UpdateVariantRequest) (*VariantResponse, error) {
	patch := catalog.VariantPatch{
		Capacity:        req.Capacity,
		Price:           req.Price,
		InstallationFee: req.InstallationFee,
	}
	if req.Status != nil {
		status := catalog.VariantStatus(*req.Status)
		patch.Status = &status
	}

	var updated *catalog.Variant
	var total int64
	err := s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		variant, err := repos.Variants().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Capacity != nil {
			siblings, err := repos.Variants().FindByProduct(ctx, variant.ProductID)
			if err != nil {
				return err
			}
			for _, sib := range siblings {
				if sib.ID != variant.ID && equalFoldTrim(sib.Capacity, *patch.Capacity) {
					return shared.NewValidationError("Variant with capacity %q already exists", *patch.Capacity)
				}
			}
		}
		if err := variant.Apply(patch); err != nil {
			return err
		}
		if err := repos.Variants().Save(ctx, variant); err != nil {
			return fmt.Errorf("save variant: %w", err)
		}
		if total, err = repos.StockRecords().SumByVariant(ctx, variant.ID); err != nil {
			return err
		}
		updated = variant
		return repos.Events().Record(ctx, catalog.NewVariantUpdatedEvent(variant))
	})
	if err != nil {
		return nil, err
	}

	resp := ToVariantResponse(updated, total)
	return &resp, nil
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
