package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	appbooking "github.com/servicebook/backend/internal/application/booking"
	appcatalog "github.com/servicebook/backend/internal/application/catalog"
	appinv "github.com/servicebook/backend/internal/application/inventory"
	apppartner "github.com/servicebook/backend/internal/application/partner"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/infrastructure/event"
	"github.com/servicebook/backend/internal/infrastructure/persistence"
	"github.com/servicebook/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type testEnv struct {
	db        *gorm.DB
	bookings  *BookingHandler
	catalog   *CatalogHandler
	inventory *InventoryHandler
	warehouse *WarehouseHandler

	admin    identity.Principal
	customer identity.Principal
	other    identity.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	scope := persistence.NewGormTransactionScope(db, event.NewOutboxPublisher(event.NewDefaultSerializer()))
	users := persistence.NewGormUserRepository(db)
	variants := persistence.NewGormVariantRepository(db)
	stock := persistence.NewGormStockRecordRepository(db)
	warehouses := persistence.NewGormWarehouseRepository(db)

	registry := appcatalog.NewRegistryService(scope, persistence.NewGormProductRepository(db), variants, stock, nil)
	directory := apppartner.NewWarehouseService(scope, warehouses)
	env := &testEnv{
		db: db,
		bookings: NewBookingHandler(appbooking.NewService(
			scope, persistence.NewGormBookingRepository(db), variants, users, appbooking.DefaultConfig(), nil)),
		catalog:   NewCatalogHandler(registry),
		inventory: NewInventoryHandler(appinv.NewLedgerService(scope, stock, warehouses, 0, nil), registry, directory),
		warehouse: NewWarehouseHandler(directory),
	}
	env.admin = env.user(t, users, "admin", identity.RoleAdmin)
	env.customer = env.user(t, users, "alice", identity.RoleCustomer)
	env.other = env.user(t, users, "bob", identity.RoleCustomer)
	return env
}

func (e *testEnv) user(t *testing.T, repo *persistence.GormUserRepository, username string, role identity.Role) identity.Principal {
	t.Helper()
	u, err := identity.NewUser(username, "passw0rd1", role)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return identity.NewPrincipal(u.ID, role)
}

// engine mounts every handler with p injected as the caller. A nil p
// leaves the request unauthenticated.
func (e *testEnv) engine(p *identity.Principal) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if p != nil {
		caller := *p
		r.Use(func(c *gin.Context) {
			c.Set(middleware.JWTPrincipalKey, caller)
			c.Next()
		})
	}

	r.POST("/bookings", e.bookings.Create)
	r.GET("/bookings/mine", e.bookings.ListMine)
	r.GET("/bookings/stats", e.bookings.Stats)
	r.GET("/bookings/:id", e.bookings.Get)
	r.POST("/bookings/:id/cancel", e.bookings.Cancel)
	r.GET("/technicians", e.bookings.ListTechnicians)
	r.GET("/variants/:id", e.catalog.GetVariant)
	r.GET("/products/:id/variants", e.catalog.ListProductVariants)
	r.GET("/variants/:id/stock", e.inventory.GetStock)

	r.GET("/admin/bookings", e.bookings.ListAll)
	r.PATCH("/admin/bookings/:id", e.bookings.Update)
	r.DELETE("/admin/bookings/:id", e.bookings.Delete)
	r.POST("/admin/products", e.catalog.RegisterProduct)
	r.PATCH("/admin/variants/:id", e.catalog.UpdateVariant)
	r.POST("/admin/inventory/add", e.inventory.AddStock)
	r.POST("/admin/inventory/reduce", e.inventory.ReduceStock)
	r.POST("/admin/warehouses", e.warehouse.Create)
	r.GET("/admin/warehouses", e.warehouse.List)
	return r
}

func (e *testEnv) do(t *testing.T, p *identity.Principal, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine(p).ServeHTTP(w, req)
	return w
}

// envelope is the decoded response body
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
		Details   []struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, w, nil)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}

// seed creates a default warehouse and a product with one variant holding
// stock units, going through the admin endpoints.
func (e *testEnv) seed(t *testing.T, stock int64) (warehouseID, variantID string) {
	t.Helper()

	w := e.do(t, &e.admin, http.MethodPost, "/admin/warehouses", map[string]any{
		"code": "wh-main", "name": "Main", "is_default": true, "sort_order": 0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var wh apppartner.WarehouseResponse
	decode(t, w, &wh)

	variant := map[string]any{"capacity": "1.5P", "price": "2000", "installation_fee": "150"}
	if stock > 0 {
		variant["initial_stock"] = []map[string]any{{"warehouse_id": wh.ID, "quantity": stock}}
	}
	w = e.do(t, &e.admin, http.MethodPost, "/admin/products", map[string]any{
		"code": "ac-100", "name": "Split air conditioner", "variants": []any{variant},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product appcatalog.ProductResponse
	decode(t, w, &product)
	require.Len(t, product.Variants, 1)

	return wh.ID.String(), product.Variants[0].ID.String()
}

func (e *testEnv) book(t *testing.T, p *identity.Principal, variantID string, quantity int64) appbooking.BookingResponse {
	t.Helper()
	w := e.do(t, p, http.MethodPost, "/bookings", map[string]any{
		"variant_id":     variantID,
		"quantity":       quantity,
		"preferred_date": "2030-06-01",
		"preferred_time": "09:30",
		"address":        "1 Harbour Road",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var b appbooking.BookingResponse
	decode(t, w, &b)
	return b
}
