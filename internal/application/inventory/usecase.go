package inventory

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/remains-ledger/internal/domain/inventory"
	"github.com/jhoicas/remains-ledger/internal/domain/repository"
	"github.com/jhoicas/remains-ledger/pkg/logger"
)

// KeyInput clave pedida por el llamador. Campos vacíos = omitidos:
// StockID vacío se resuelve a la bodega por defecto; ModID vacío = sin modificación.
type KeyInput struct {
	ProductID string
	ModID     string
	StockID   string
}

// LedgerUseCase libro de existencias: lectura exacta (Remains), asignación absoluta (SetCount)
// y descuento relativo (Decrease). Cada granularidad es un contador independiente; nunca se agregan
// filas de bodega en la de modificación ni las de modificación en la de producto.
type LedgerUseCase struct {
	txRunner    TxRunner
	remainsRepo repository.RemainsRepository
	movRepo     repository.RemainsMovementRepository
	stocks      DefaultStockResolver
	log         *logger.Logger
	now         func() time.Time
}

// NewLedgerUseCase construye el caso de uso. remainsRepo y movRepo se usan sólo para lecturas fuera de tx.
func NewLedgerUseCase(
	txRunner TxRunner,
	remainsRepo repository.RemainsRepository,
	movRepo repository.RemainsMovementRepository,
	stocks DefaultStockResolver,
	log *logger.Logger,
) *LedgerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerUseCase{
		txRunner:    txRunner,
		remainsRepo: remainsRepo,
		movRepo:     movRepo,
		stocks:      stocks,
		log:         log.Component("ledger"),
		now:         time.Now,
	}
}

// ResolveKey valida la entrada y resuelve la bodega omitida a la bodega por defecto.
// Un error del registro de bodegas (p. ej. ErrNoDefaultWarehouse) se devuelve sin cambios.
func (uc *LedgerUseCase) ResolveKey(ctx context.Context, in KeyInput) (entity.RemainsKey, error) {
	if in.ProductID == "" {
		return entity.RemainsKey{}, domain.ErrInvalidInput
	}
	stockID := in.StockID
	if stockID == "" {
		id, err := uc.stocks.DefaultWarehouseID(ctx)
		if err != nil {
			return entity.RemainsKey{}, err
		}
		stockID = id
	}
	return domaininv.BuildKey(in.ProductID, in.ModID, stockID)
}

// Remains devuelve la cantidad registrada para la clave exacta, o 0 si no hay registro.
// No hay fallback a una clave más general.
func (uc *LedgerUseCase) Remains(ctx context.Context, in KeyInput) (int64, error) {
	key, err := uc.ResolveKey(ctx, in)
	if err != nil {
		return 0, err
	}
	r, err := uc.remainsRepo.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if r == nil {
		return 0, nil
	}
	return r.Count, nil
}

// SetCount asigna count a la clave exacta; crea el registro si no existe. Idempotente.
// count puede ser negativo (sobreventa / pedido pendiente).
func (uc *LedgerUseCase) SetCount(ctx context.Context, in KeyInput, count int64, reference string) (*entity.Remains, error) {
	key, err := uc.ResolveKey(ctx, in)
	if err != nil {
		return nil, err
	}
	var out *entity.Remains
	err = uc.txRunner.Run(ctx, func(
		remainsRepo repository.RemainsRepository,
		movRepo repository.RemainsMovementRepository,
	) error {
		r, created, err := remainsRepo.GetOrCreateForUpdate(ctx, key)
		if err != nil {
			return err
		}
		before := r.Count
		if !created && before == count {
			out = r
			return nil
		}
		now := uc.now()
		if err := remainsRepo.UpdateCount(ctx, r.ID, count, now); err != nil {
			return err
		}
		r.Count = count
		r.UpdatedAt = now
		out = r
		return movRepo.Create(ctx, domaininv.NewMovement(r, entity.MovementKindSet, before, reference, now))
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("key", key.String()).Int64("count", out.Count).Msg("existencias asignadas")
	return out, nil
}

// Decrease descuenta count del registro de la clave exacta (sin piso en cero).
// Si la clave nunca fue inicializada devuelve domain.ErrRecordNotFound y no crea nada.
// Un resultado fuera de int64 devuelve domain.ErrInvalidInput sin tocar el registro.
func (uc *LedgerUseCase) Decrease(ctx context.Context, in KeyInput, count int64, reference string) (*entity.Remains, error) {
	key, err := uc.ResolveKey(ctx, in)
	if err != nil {
		return nil, err
	}
	var out *entity.Remains
	err = uc.txRunner.Run(ctx, func(
		remainsRepo repository.RemainsRepository,
		movRepo repository.RemainsMovementRepository,
	) error {
		r, err := uc.DecreaseInTx(ctx, remainsRepo, movRepo, key, count, reference)
		out = r
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			uc.log.Warn().Str("key", key.String()).Int64("count", count).Msg("descuento sobre clave no inicializada")
		}
		return nil, err
	}
	return out, nil
}

// DecreaseInTx ejecuta el descuento con los repositorios proporcionados (misma transacción del caller).
// key debe venir de ResolveKey.
func (uc *LedgerUseCase) DecreaseInTx(
	ctx context.Context,
	remainsRepo repository.RemainsRepository,
	movRepo repository.RemainsMovementRepository,
	key entity.RemainsKey,
	count int64,
	reference string,
) (*entity.Remains, error) {
	// Bloquea la fila (SELECT FOR UPDATE) para que descuentos concurrentes se serialicen
	r, err := remainsRepo.GetForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrRecordNotFound
	}
	before := r.Count
	if (count < 0 && before > math.MaxInt64+count) || (count > 0 && before < math.MinInt64+count) {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	r.Count = before - count
	r.UpdatedAt = now
	if err := remainsRepo.UpdateCount(ctx, r.ID, r.Count, now); err != nil {
		return nil, err
	}
	if err := movRepo.Create(ctx, domaininv.NewMovement(r, entity.MovementKindDecrease, before, reference, now)); err != nil {
		return nil, err
	}
	uc.log.Debug().Str("key", key.String()).Int64("before", before).Int64("after", r.Count).Msg("existencias descontadas")
	return r, nil
}

// Delete elimina exactamente el registro de la clave. ErrNotFound si no existía.
func (uc *LedgerUseCase) Delete(ctx context.Context, in KeyInput) error {
	key, err := uc.ResolveKey(ctx, in)
	if err != nil {
		return err
	}
	return uc.txRunner.Run(ctx, func(
		remainsRepo repository.RemainsRepository,
		_ repository.RemainsMovementRepository,
	) error {
		deleted, err := remainsRepo.Delete(ctx, key)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrNotFound
		}
		return nil
	})
}

// ListByProduct lista todos los registros del producto, de cualquier granularidad, sin agregar.
func (uc *LedgerUseCase) ListByProduct(ctx context.Context, productID string) ([]*entity.Remains, error) {
	if err := domaininv.ValidateID(productID); err != nil {
		return nil, err
	}
	return uc.remainsRepo.ListByProduct(ctx, productID)
}

// Movements devuelve el diario del producto, más reciente primero.
func (uc *LedgerUseCase) Movements(ctx context.Context, productID string, limit int) ([]*entity.RemainsMovement, error) {
	if err := domaininv.ValidateID(productID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return uc.movRepo.ListByProduct(ctx, productID, limit)
}
