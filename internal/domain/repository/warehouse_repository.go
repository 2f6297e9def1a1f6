package repository

import (
	"context"

	"github.com/jhoicas/remains-ledger/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
type WarehouseRepository interface {
	// Create persiste la bodega. Con IsDefault mueve la marca a ella de forma atómica.
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	List(ctx context.Context, includeDeleted bool, limit, offset int) ([]*entity.Warehouse, error)
	// GetDefault devuelve la bodega marcada por defecto o nil si no hay ninguna.
	GetDefault(ctx context.Context) (*entity.Warehouse, error)
	// SetDefault mueve la marca por defecto a la bodega id de forma atómica.
	SetDefault(ctx context.Context, id string) error
}
