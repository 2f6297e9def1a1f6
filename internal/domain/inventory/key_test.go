package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/domain/inventory"
)

const (
	testProductID = "5b3f7a52-8c0e-4d7e-9f61-1c2b3a4d5e6f"
	testModID     = "9e8d7c6b-5a49-4382-a1b0-c9d8e7f6a5b4"
	testStockID   = "0f1e2d3c-4b5a-4697-8877-665544332211"
)

func TestBuildKey_SinModificacion(t *testing.T) {
	key, err := inventory.BuildKey(testProductID, "", testStockID)
	require.NoError(t, err)
	assert.Equal(t, testProductID, key.ProductID)
	assert.Equal(t, testStockID, key.StockID)
	assert.False(t, key.HasMod())
	assert.Nil(t, key.ModID)
}

func TestBuildKey_ConModificacion(t *testing.T) {
	key, err := inventory.BuildKey(testProductID, testModID, testStockID)
	require.NoError(t, err)
	require.True(t, key.HasMod())
	assert.Equal(t, testModID, key.Mod())
}

func TestBuildKey_IDsInvalidos(t *testing.T) {
	cases := map[string][3]string{
		"producto vacío":   {"", "", testStockID},
		"producto no UUID": {"abc", "", testStockID},
		"mod no UUID":      {testProductID, "talla-m", testStockID},
		"bodega vacía":     {testProductID, "", ""},
		"bodega no UUID":   {testProductID, "", "principal"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := inventory.BuildKey(in[0], in[1], in[2])
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestBuildKey_ClavesDistintasPorGranularidad(t *testing.T) {
	withoutMod, err := inventory.BuildKey(testProductID, "", testStockID)
	require.NoError(t, err)
	withMod, err := inventory.BuildKey(testProductID, testModID, testStockID)
	require.NoError(t, err)
	assert.NotEqual(t, withoutMod.String(), withMod.String())
}

func TestNewMovement_CalculaDelta(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	r := &entity.Remains{ID: "r1", ProductID: testProductID, StockID: testStockID, Count: 98}

	m := inventory.NewMovement(r, entity.MovementKindDecrease, 100, "pedido-1", now)

	assert.Equal(t, "r1", m.RemainsID)
	assert.Equal(t, entity.MovementKindDecrease, m.Kind)
	assert.Equal(t, int64(-2), m.Delta)
	assert.Equal(t, int64(100), m.CountBefore)
	assert.Equal(t, int64(98), m.CountAfter)
	assert.Equal(t, "pedido-1", m.Reference)
	assert.Equal(t, now, m.CreatedAt)
}
