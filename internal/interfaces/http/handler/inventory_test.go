package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	appcatalog "github.com/servicebook/backend/internal/application/catalog"
	appinv "github.com/servicebook/backend/internal/application/inventory"
	apppartner "github.com/servicebook/backend/internal/application/partner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryHandler_AddAndReduce(t *testing.T) {
	env := newTestEnv(t)
	whID, variantID := env.seed(t, 0)

	w := env.do(t, &env.admin, http.MethodPost, "/admin/inventory/add", map[string]any{
		"variant_id": variantID, "warehouse_id": whID, "quantity": 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var added appinv.StockMutationResponse
	decode(t, w, &added)
	assert.True(t, added.Applied)
	assert.Equal(t, int64(5), added.TotalStock)

	w = env.do(t, &env.admin, http.MethodPost, "/admin/inventory/reduce", map[string]any{
		"variant_id": variantID, "quantity": 3,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reduced appinv.StockMutationResponse
	decode(t, w, &reduced)
	assert.True(t, reduced.Applied)
	assert.Equal(t, int64(2), reduced.TotalStock)

	w = env.do(t, &env.admin, http.MethodPost, "/admin/inventory/reduce", map[string]any{
		"variant_id": variantID, "quantity": 3,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INSUFFICIENT_STOCK", errorCode(t, w))

	w = env.do(t, &env.customer, http.MethodGet, "/variants/"+variantID+"/stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var breakdown appinv.StockBreakdownResponse
	decode(t, w, &breakdown)
	assert.Equal(t, int64(2), breakdown.TotalQuantity)
	require.Len(t, breakdown.Records, 1)
	assert.Equal(t, "WH-MAIN", breakdown.Records[0].WarehouseCode)
}

func TestInventoryHandler_AddRejectsUnknownStockType(t *testing.T) {
	env := newTestEnv(t)
	whID, variantID := env.seed(t, 0)

	w := env.do(t, &env.admin, http.MethodPost, "/admin/inventory/add", map[string]any{
		"variant_id": variantID, "warehouse_id": whID, "quantity": 1, "stock_type": "Lost",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_VALIDATION", errorCode(t, w))
}

func TestInventoryHandler_AddWithoutWarehouseUsesDefault(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, &env.admin, http.MethodPost, "/admin/inventory/add", map[string]any{
		"variant_id": "0b8f5f6e-3c55-4a7c-9a57-2f3f0d3c9b11", "quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code, "no warehouse configured yet")

	whID, variantID := env.seed(t, 0)
	w = env.do(t, &env.admin, http.MethodPost, "/admin/inventory/add", map[string]any{
		"variant_id": variantID, "quantity": 4,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, &env.customer, http.MethodGet, "/variants/"+variantID+"/stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var breakdown appinv.StockBreakdownResponse
	decode(t, w, &breakdown)
	require.Len(t, breakdown.Records, 1)
	assert.Equal(t, whID, breakdown.Records[0].WarehouseID.String())
	assert.Equal(t, int64(4), breakdown.Records[0].Quantity)
}

func TestInventoryHandler_StockOfUnknownVariant(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 0)

	w := env.do(t, &env.customer, http.MethodGet, "/variants/0b8f5f6e-3c55-4a7c-9a57-2f3f0d3c9b11/stock", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, w))
}

func TestCatalogHandler_RegisterAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	_, variantID := env.seed(t, 4)

	w := env.do(t, &env.customer, http.MethodGet, "/variants/"+variantID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var v appcatalog.VariantResponse
	decode(t, w, &v)
	assert.Equal(t, "1.5P", v.Capacity)
	assert.Equal(t, int64(4), v.TotalStock)

	w = env.do(t, &env.admin, http.MethodPatch, "/admin/variants/"+variantID, map[string]any{
		"capacity": " 2P ", "price": "2400",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated appcatalog.VariantResponse
	decode(t, w, &updated)
	assert.Equal(t, v.ID, updated.ID)
	assert.Equal(t, "2P", updated.Capacity)
	assert.Equal(t, "2400", updated.Price.String())
}

func TestCatalogHandler_DuplicateProductCode(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, 0)

	// Codes are compared after upper-casing
	w := env.do(t, &env.admin, http.MethodPost, "/admin/products", map[string]any{
		"code": "AC-100", "name": "Another", "variants": []any{map[string]any{"capacity": "1P", "price": "1000"}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_ALREADY_EXISTS", errorCode(t, w))
}

func TestCatalogHandler_UnknownVariant(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, &env.customer, http.MethodGet, "/variants/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandler_ListProductVariants(t *testing.T) {
	env := newTestEnv(t)
	whID, _ := env.seed(t, 0)

	w := env.do(t, &env.admin, http.MethodPost, "/admin/products", map[string]any{
		"code": "ac-200", "name": "Window unit", "variants": []any{
			map[string]any{"capacity": "1P", "price": "1200", "initial_stock": []map[string]any{
				{"warehouse_id": whID, "quantity": 3},
				{"warehouse_id": whID, "quantity": 2, "stock_type": "Demo"},
			}},
			map[string]any{"capacity": "2P", "price": "1900"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product appcatalog.ProductResponse
	decode(t, w, &product)

	w = env.do(t, &env.customer, http.MethodGet, "/products/"+product.ID.String()+"/variants", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var variants []appcatalog.VariantResponse
	decode(t, w, &variants)
	require.Len(t, variants, 2)
	stock := map[string]int64{}
	for _, v := range variants {
		assert.Equal(t, product.ID, v.ProductID)
		stock[v.Capacity] = v.TotalStock
	}
	assert.Equal(t, map[string]int64{"1P": 5, "2P": 0}, stock, "totals count every stock type")

	w = env.do(t, &env.customer, http.MethodGet, "/products/00000000-0000-0000-0000-000000000001/variants", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, &env.customer, http.MethodGet, "/products/ac-200/variants", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWarehouseHandler_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, &env.admin, http.MethodPost, "/admin/warehouses", map[string]any{"code": "north", "name": "North"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created apppartner.WarehouseResponse
	decode(t, w, &created)
	assert.Equal(t, "NORTH", created.Code)

	w = env.do(t, &env.admin, http.MethodPost, "/admin/warehouses", map[string]any{"code": "North", "name": "Again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, &env.admin, http.MethodGet, "/admin/warehouses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []apppartner.WarehouseResponse
	decode(t, w, &list)
	assert.Len(t, list, 1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name        string
		pinger      stubPinger
		distributed bool
		wantStatus  int
		wantBody    []string
	}{
		{"healthy", stubPinger{}, true, http.StatusOK, []string{`"healthy"`, `"redis"`}},
		{"database down", stubPinger{err: errors.New("refused")}, false, http.StatusServiceUnavailable, []string{`"unhealthy"`, `"memory"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.pinger, tt.distributed).Check)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			for _, s := range tt.wantBody {
				assert.Contains(t, w.Body.String(), s)
			}
		})
	}
}
