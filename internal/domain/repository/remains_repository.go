package repository

import (
	"context"
	"time"

	"github.com/jhoicas/remains-ledger/internal/domain/entity"
)

// RemainsRepository define el puerto para consultar/actualizar existencias por clave exacta
// (producto, mod, bodega). Los métodos *ForUpdate deben usarse dentro de una transacción.
type RemainsRepository interface {
	// Get devuelve el registro de la clave exacta o nil si no existe.
	Get(ctx context.Context, key entity.RemainsKey) (*entity.Remains, error)
	// GetForUpdate igual que Get pero bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, key entity.RemainsKey) (*entity.Remains, error)
	// GetOrCreateForUpdate crea el registro con count 0 si no existe y lo devuelve bloqueado.
	// created indica si se insertó en esta llamada.
	GetOrCreateForUpdate(ctx context.Context, key entity.RemainsKey) (r *entity.Remains, created bool, err error)
	UpdateCount(ctx context.Context, id string, count int64, updatedAt time.Time) error
	// Delete elimina exactamente el registro de la clave; false si no existía.
	Delete(ctx context.Context, key entity.RemainsKey) (bool, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Remains, error)
}
