package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
)

// BuildKey valida los IDs (UUID) y arma la clave exacta con la bodega ya resuelta.
// modID vacío = sin modificación; nunca se sustituye por otro valor.
func BuildKey(productID, modID, stockID string) (entity.RemainsKey, error) {
	if !isUUID(productID) || !isUUID(stockID) {
		return entity.RemainsKey{}, domain.ErrInvalidInput
	}
	key := entity.RemainsKey{ProductID: productID, StockID: stockID}
	if modID != "" {
		if !isUUID(modID) {
			return entity.RemainsKey{}, domain.ErrInvalidInput
		}
		key.ModID = &modID
	}
	return key, nil
}

// NewMovement arma la entrada de diario para un cambio before -> r.Count.
func NewMovement(r *entity.Remains, kind string, before int64, reference string, now time.Time) *entity.RemainsMovement {
	return &entity.RemainsMovement{
		RemainsID:   r.ID,
		ProductID:   r.ProductID,
		ModID:       r.ModID,
		StockID:     r.StockID,
		Kind:        kind,
		Delta:       r.Count - before,
		CountBefore: before,
		CountAfter:  r.Count,
		Reference:   reference,
		CreatedAt:   now,
	}
}

// ValidateID devuelve domain.ErrInvalidInput si id no es un UUID.
func ValidateID(id string) error {
	if !isUUID(id) {
		return domain.ErrInvalidInput
	}
	return nil
}

func isUUID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
