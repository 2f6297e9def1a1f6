package repository

import (
	"context"

	"github.com/jhoicas/remains-ledger/internal/domain/entity"
)

// RemainsMovementRepository define el puerto de persistencia del diario de existencias.
type RemainsMovementRepository interface {
	Create(ctx context.Context, movement *entity.RemainsMovement) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.RemainsMovement, error)
}
