package fulfillment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remains-ledger/internal/application/dto"
	"github.com/jhoicas/remains-ledger/internal/application/fulfillment"
	"github.com/jhoicas/remains-ledger/internal/application/inventory"
	"github.com/jhoicas/remains-ledger/internal/application/usecase"
	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testProduct1 = "c3000000-0000-4000-8000-000000000001"
	testProduct2 = "c3000000-0000-4000-8000-000000000002"
	testMod      = "d4000000-0000-4000-8000-000000000001"
)

type fixture struct {
	ledger  *inventory.LedgerUseCase
	confirm *fulfillment.ConfirmOrderUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	warehouses := usecase.NewWarehouseUseCase(store.Warehouses(), usecase.WarehouseOptions{}, nil)
	_, err := warehouses.Create(context.Background(), dto.CreateWarehouseRequest{Name: "Principal"})
	require.NoError(t, err)

	ledger := inventory.NewLedgerUseCase(store, store.Remains(), store.Movements(), warehouses, nil)
	return &fixture{
		ledger:  ledger,
		confirm: fulfillment.NewConfirmOrderUseCase(store, ledger, nil),
	}
}

func (f *fixture) set(t *testing.T, productID, modID string, count int64) {
	t.Helper()
	_, err := f.ledger.SetCount(context.Background(), inventory.KeyInput{ProductID: productID, ModID: modID}, count, "")
	require.NoError(t, err)
}

func (f *fixture) remains(t *testing.T, productID, modID string) int64 {
	t.Helper()
	n, err := f.ledger.Remains(context.Background(), inventory.KeyInput{ProductID: productID, ModID: modID})
	require.NoError(t, err)
	return n
}

// ──────────────────────────────────────────────────────────────────────────────
// ConfirmOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirmOrder_DescuentaTodasLasLineas(t *testing.T) {
	f := newFixture(t)
	f.set(t, testProduct1, "", 10)
	f.set(t, testProduct2, testMod, 5)

	order := &entity.Order{
		ID: "pedido-1001",
		Items: []entity.OrderItem{
			{ProductID: testProduct1, Count: 3, Price: decimal.RequireFromString("12500.00")},
			{ProductID: testProduct2, ModID: testMod, Count: 2, Price: decimal.RequireFromString("8000"), DiscountPrice: decimal.RequireFromString("7250.50")},
		},
	}

	res, err := f.confirm.ConfirmOrder(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, "pedido-1001", res.OrderID)
	require.Len(t, res.Remains, 2)
	assert.Equal(t, int64(7), res.Remains[0].Count)
	assert.Equal(t, int64(3), res.Remains[1].Count)
	// 3 * 12500 + 2 * 7250.50 (precio con descuento)
	assert.True(t, decimal.RequireFromString("52001").Equal(res.Total), "total: %s", res.Total)

	assert.Equal(t, int64(7), f.remains(t, testProduct1, ""))
	assert.Equal(t, int64(3), f.remains(t, testProduct2, testMod))

	movements, err := f.ledger.Movements(context.Background(), testProduct1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, movements)
	assert.Equal(t, "pedido-1001", movements[0].Reference)
}

func TestConfirmOrder_LineaNoRegistradaHaceRollback(t *testing.T) {
	f := newFixture(t)
	f.set(t, testProduct1, "", 10)

	order := &entity.Order{
		ID: "pedido-1002",
		Items: []entity.OrderItem{
			{ProductID: testProduct1, Count: 4, Price: decimal.NewFromInt(100)},
			{ProductID: testProduct2, ModID: testMod, Count: 1, Price: decimal.NewFromInt(100)},
		},
	}

	_, err := f.confirm.ConfirmOrder(context.Background(), order)
	require.Error(t, err)

	var untracked *fulfillment.UntrackedStockError
	require.True(t, errors.As(err, &untracked))
	assert.Equal(t, 1, untracked.Line)
	assert.Equal(t, testProduct2, untracked.Key.ProductID)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	assert.Equal(t, int64(10), f.remains(t, testProduct1, ""), "la primera línea se revierte")
	movements, err := f.ledger.Movements(context.Background(), testProduct1, 10)
	require.NoError(t, err)
	assert.Len(t, movements, 1, "sólo queda el set inicial en el diario")
}

func TestConfirmOrder_PermiteSobreventa(t *testing.T) {
	f := newFixture(t)
	f.set(t, testProduct1, "", 1)

	res, err := f.confirm.ConfirmOrder(context.Background(), &entity.Order{
		ID:    "pedido-1003",
		Items: []entity.OrderItem{{ProductID: testProduct1, Count: 3, Price: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-2), res.Remains[0].Count)
}

func TestConfirmOrder_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	f.set(t, testProduct1, "", 10)
	ctx := context.Background()

	cases := map[string]*entity.Order{
		"pedido nil":       nil,
		"sin ID":           {Items: []entity.OrderItem{{ProductID: testProduct1, Count: 1}}},
		"sin líneas":       {ID: "pedido-x"},
		"cantidad cero":    {ID: "pedido-x", Items: []entity.OrderItem{{ProductID: testProduct1, Count: 0}}},
		"precio negativo":  {ID: "pedido-x", Items: []entity.OrderItem{{ProductID: testProduct1, Count: 1, Price: decimal.NewFromInt(-1)}}},
		"producto no UUID": {ID: "pedido-x", Items: []entity.OrderItem{{ProductID: "sku-1", Count: 1}}},
	}
	for name, order := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.confirm.ConfirmOrder(ctx, order)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, int64(10), f.remains(t, testProduct1, ""))
}
