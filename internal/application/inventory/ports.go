package inventory

import (
	"context"

	"github.com/jhoicas/remains-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del almacén, pasando repositorios atados a esa tx.
// Garantiza atomicidad del leer-modificar-escribir del libro de existencias.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		remainsRepo repository.RemainsRepository,
		movRepo repository.RemainsMovementRepository,
	) error) error
}

// DefaultStockResolver entrega la bodega por defecto cuando la clave omite la bodega.
type DefaultStockResolver interface {
	DefaultWarehouseID(ctx context.Context) (string, error)
}
