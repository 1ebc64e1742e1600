package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/servicebook/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Quantity int64  `json:"quantity" binding:"required,min=1"`
	Kind     string `json:"kind" binding:"omitempty,oneof=a b"`
}

func TestValidationDetails_UseJSONNames(t *testing.T) {
	SetupValidator()

	var details any
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var req sampleRequest
		err := c.ShouldBindJSON(&req)
		d, isValidation := ValidationDetails(err)
		require.True(t, isValidation)
		details = d
		c.Status(http.StatusBadRequest)
	})

	serve(t, r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"username":"ab","kind":"c"}`)))

	byField := map[string]string{}
	for _, d := range details.([]dto.ValidationDetail) {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Must be at least 3 characters", byField["username"])
	assert.Equal(t, "This field is required", byField["quantity"])
	assert.Equal(t, "Must be one of: a b", byField["kind"])
}

func TestValidationDetails_NotValidation(t *testing.T) {
	_, isValidation := ValidationDetails(errors.New("unexpected EOF"))
	assert.False(t, isValidation)
}
