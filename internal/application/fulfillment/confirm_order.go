package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/remains-ledger/internal/application/inventory"
	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/domain/repository"
	"github.com/jhoicas/remains-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// UntrackedStockError una línea del pedido apunta a una clave de existencias nunca inicializada.
// Para el pedido equivale a stock insuficiente; errors.Is coincide con domain.ErrInsufficientStock
// y con domain.ErrRecordNotFound.
type UntrackedStockError struct {
	Line int
	Key  entity.RemainsKey
}

func (e *UntrackedStockError) Error() string {
	return fmt.Sprintf("línea %d: existencias no registradas para %s: %v", e.Line+1, e.Key, domain.ErrInsufficientStock)
}

// Is permite errors.Is contra ambos sentinelas.
func (e *UntrackedStockError) Is(target error) bool {
	return target == domain.ErrInsufficientStock || target == domain.ErrRecordNotFound
}

// Result resultado de confirmar un pedido.
type Result struct {
	OrderID string
	Remains []*entity.Remains // en el orden de las líneas
	Total   decimal.Decimal
}

// ConfirmOrderUseCase descuenta existencias de todas las líneas de un pedido en una sola transacción.
type ConfirmOrderUseCase struct {
	txRunner inventory.TxRunner
	ledger   LedgerUseCase
	log      *logger.Logger
}

// NewConfirmOrderUseCase construye el caso de uso.
func NewConfirmOrderUseCase(txRunner inventory.TxRunner, ledger LedgerUseCase, log *logger.Logger) *ConfirmOrderUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ConfirmOrderUseCase{txRunner: txRunner, ledger: ledger, log: log.Component("fulfillment")}
}

// ConfirmOrder valida el pedido, resuelve las claves fuera de la tx y descuenta cada línea con
// referencia al pedido. Si alguna línea falla se hace rollback de todas.
func (uc *ConfirmOrderUseCase) ConfirmOrder(ctx context.Context, order *entity.Order) (*Result, error) {
	if order == nil || order.ID == "" || len(order.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	keys := make([]entity.RemainsKey, len(order.Items))
	total := decimal.Zero
	for i, item := range order.Items {
		if item.Count <= 0 || item.Price.IsNegative() || item.DiscountPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		key, err := uc.ledger.ResolveKey(ctx, inventory.KeyInput{
			ProductID: item.ProductID,
			ModID:     item.ModID,
			StockID:   item.StockID,
		})
		if err != nil {
			return nil, err
		}
		keys[i] = key
		total = total.Add(item.Total())
	}

	out := make([]*entity.Remains, len(order.Items))
	err := uc.txRunner.Run(ctx, func(
		remainsRepo repository.RemainsRepository,
		movRepo repository.RemainsMovementRepository,
	) error {
		for i, item := range order.Items {
			r, err := uc.ledger.DecreaseInTx(ctx, remainsRepo, movRepo, keys[i], item.Count, order.ID)
			if err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					return &UntrackedStockError{Line: i, Key: keys[i]}
				}
				return err
			}
			out[i] = r
		}
		return nil
	})
	if err != nil {
		var untracked *UntrackedStockError
		if errors.As(err, &untracked) {
			uc.log.Warn().Str("order_id", order.ID).Str("key", untracked.Key.String()).Msg("pedido rechazado: existencias no registradas")
		}
		return nil, err
	}

	uc.log.Info().Str("order_id", order.ID).Int("items", len(order.Items)).Str("total", total.StringFixed(2)).Msg("pedido confirmado")
	return &Result{OrderID: order.ID, Remains: out, Total: total}, nil
}
