package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		product, err := NewProduct("ac-split", "Split Air Conditioner", "Wall mounted")
		require.NoError(t, err)

		assert.Equal(t, "AC-SPLIT", product.Code)
		assert.Equal(t, "Split Air Conditioner", product.Name)
		assert.Equal(t, ProductStatusActive, product.Status)
		assert.NotEqual(t, uuid.Nil, product.ID)
		assert.Equal(t, 1, product.Version)
	})

	t.Run("publishes ProductRegistered event", func(t *testing.T) {
		product, err := NewProduct("AC-1", "Window Unit", "")
		require.NoError(t, err)

		events := product.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductRegistered, events[0].EventType())

		event, ok := events[0].(*ProductRegisteredEvent)
		require.True(t, ok)
		assert.Equal(t, product.ID, event.ProductID)
	})

	t.Run("rejects invalid code", func(t *testing.T) {
		_, err := NewProduct("bad code!", "Name", "")
		require.Error(t, err)
		assert.True(t, shared.HasCode(err, shared.CodeValidation))
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewProduct("AC-2", "  ", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})
}

func TestProductAddVariant(t *testing.T) {
	product, err := NewProduct("AC-3", "Inverter", "")
	require.NoError(t, err)

	v, err := product.AddVariant("1.5HP", decimal.NewFromInt(25000), decimal.NewFromInt(1500))
	require.NoError(t, err)
	assert.Equal(t, product.ID, v.ProductID)
	assert.Len(t, product.Variants, 1)

	_, err = product.AddVariant("1.5hp", decimal.NewFromInt(1), decimal.Zero)
	require.Error(t, err, "capacity labels are unique per product")

	_, err = product.AddVariant("2HP", decimal.NewFromInt(-1), decimal.Zero)
	require.Error(t, err)

	require.Len(t, product.Variants, 1)
	assert.Equal(t, v.ID, product.Variants[0].ID)
}

func TestVariantUnitPrice(t *testing.T) {
	v, err := NewVariant(uuid.New(), "1HP", decimal.NewFromInt(1000), decimal.NewFromInt(150))
	require.NoError(t, err)

	assert.True(t, v.UnitPrice(false).Equal(decimal.NewFromInt(1000)))
	assert.True(t, v.UnitPrice(true).Equal(decimal.NewFromInt(1150)))
}

func TestVariantApply(t *testing.T) {
	v, err := NewVariant(uuid.New(), "1HP", decimal.NewFromInt(1000), decimal.Zero)
	require.NoError(t, err)
	originalID := v.ID

	price := decimal.NewFromInt(1200)
	capacity := "1.0HP"
	require.NoError(t, v.Apply(VariantPatch{Price: &price, Capacity: &capacity}))

	assert.Equal(t, originalID, v.ID, "updates keep the identity")
	assert.Equal(t, "1.0HP", v.Capacity)
	assert.True(t, v.Price.Equal(price))

	negative := decimal.NewFromInt(-5)
	err = v.Apply(VariantPatch{InstallationFee: &negative})
	require.Error(t, err)
	assert.True(t, v.InstallationFee.IsZero(), "failed patch leaves the variant untouched")

	bogus := VariantStatus("archived")
	require.Error(t, v.Apply(VariantPatch{Status: &bogus}))
}
