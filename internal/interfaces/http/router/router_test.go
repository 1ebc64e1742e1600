package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	bookings := NewDomainGroup("bookings", "/bookings")
	bookings.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	warehouses := NewDomainGroup("warehouses", "/warehouses")
	warehouses.GET("", func(c *gin.Context) { c.String(http.StatusOK, "list") })

	r.Register(bookings, warehouses).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/bookings/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/warehouses")
	assert.Equal(t, "list", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name", func(t *testing.T) {
		assert.Equal(t, "admin", NewDomainGroup("admin", "/admin").Name())
	})

	t.Run("registers each method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("items", "/items")
		g.GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "get") }).
			POST("", func(c *gin.Context) { c.String(http.StatusCreated, "post") }).
			PATCH("/:id", func(c *gin.Context) { c.String(http.StatusOK, "patch") }).
			DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			want   int
		}{
			{http.MethodGet, "/api/v1/items/1", http.StatusOK},
			{http.MethodPost, "/api/v1/items", http.StatusCreated},
			{http.MethodPatch, "/api/v1/items/1", http.StatusOK},
			{http.MethodDelete, "/api/v1/items/1", http.StatusNoContent},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("subgroups inherit middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("admin", "/admin").Use(func(c *gin.Context) {
			c.Header("X-Admin", "yes")
			c.Next()
		})
		g.Group("inventory", "/inventory").POST("/add", func(c *gin.Context) { c.String(http.StatusOK, "added") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodPost, "/api/v1/admin/inventory/add")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "yes", w.Header().Get("X-Admin"))
	})

	t.Run("middleware stays in its group", func(t *testing.T) {
		engine := gin.New()
		root := NewDomainGroup("root", "")
		root.Group("locked", "/locked").
			Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }).
			GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
		root.Group("open", "/open").GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
		root.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/v1/locked").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/open").Code)
	})
}
