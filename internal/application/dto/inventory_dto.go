package dto

import (
	"time"

	"github.com/jhoicas/remains-ledger/internal/domain/entity"
)

// RemainsResponse salida de un registro de existencias.
type RemainsResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	ModID     *string   `json:"mod_id"`
	StockID   string    `json:"stock_id"`
	Count     int64     `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RemainsCountResponse salida de una lectura exacta sobre la clave ya resuelta.
type RemainsCountResponse struct {
	ProductID string `json:"product_id"`
	ModID     string `json:"mod_id,omitempty"`
	StockID   string `json:"stock_id"`
	Count     int64  `json:"count"`
}

// MovementResponse salida de una entrada del diario.
type MovementResponse struct {
	ID          string    `json:"id"`
	RemainsID   string    `json:"remains_id"`
	ProductID   string    `json:"product_id"`
	ModID       *string   `json:"mod_id"`
	StockID     string    `json:"stock_id"`
	Kind        string    `json:"kind"`
	Delta       int64     `json:"delta"`
	CountBefore int64     `json:"count_before"`
	CountAfter  int64     `json:"count_after"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToRemainsResponse mapea la entidad a su salida.
func ToRemainsResponse(r *entity.Remains) *RemainsResponse {
	if r == nil {
		return nil
	}
	return &RemainsResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		ModID:     r.ModID,
		StockID:   r.StockID,
		Count:     r.Count,
		UpdatedAt: r.UpdatedAt,
	}
}

// ToRemainsList mapea una lista de registros.
func ToRemainsList(list []*entity.Remains) []RemainsResponse {
	out := make([]RemainsResponse, 0, len(list))
	for _, r := range list {
		out = append(out, *ToRemainsResponse(r))
	}
	return out
}

// ToMovementList mapea una lista de movimientos.
func ToMovementList(list []*entity.RemainsMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementResponse{
			ID:          m.ID,
			RemainsID:   m.RemainsID,
			ProductID:   m.ProductID,
			ModID:       m.ModID,
			StockID:     m.StockID,
			Kind:        m.Kind,
			Delta:       m.Delta,
			CountBefore: m.CountBefore,
			CountAfter:  m.CountAfter,
			Reference:   m.Reference,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out
}
