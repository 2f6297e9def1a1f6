package fulfillment

import (
	"context"

	"github.com/jhoicas/remains-ledger/internal/application/inventory"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/domain/repository"
)

// LedgerUseCase interfaz para integrar la confirmación de pedidos con el libro de existencias.
// DecreaseInTx usa los repositorios del caller (misma transacción); si retorna error el caller hace rollback.
type LedgerUseCase interface {
	ResolveKey(ctx context.Context, in inventory.KeyInput) (entity.RemainsKey, error)
	DecreaseInTx(
		ctx context.Context,
		remainsRepo repository.RemainsRepository,
		movRepo repository.RemainsMovementRepository,
		key entity.RemainsKey,
		count int64,
		reference string, // ID del pedido
	) (*entity.Remains, error)
}

var _ LedgerUseCase = (*inventory.LedgerUseCase)(nil)
