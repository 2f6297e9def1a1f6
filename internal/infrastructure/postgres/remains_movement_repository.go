package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/domain/repository"
)

var _ repository.RemainsMovementRepository = (*RemainsMovementRepo)(nil)

// RemainsMovementRepo implementación del diario sobre PostgreSQL (usable con pool o tx).
type RemainsMovementRepo struct {
	q Querier
}

// NewRemainsMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRemainsMovementRepository(q Querier) *RemainsMovementRepo {
	return &RemainsMovementRepo{q: q}
}

// Create persiste un movimiento del diario.
func (r *RemainsMovementRepo) Create(ctx context.Context, m *entity.RemainsMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO remains_movements (id, remains_id, product_id, mod_id, stock_id, kind, delta, count_before, count_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.RemainsID, m.ProductID, m.ModID, m.StockID, m.Kind,
		m.Delta, m.CountBefore, m.CountAfter, m.Reference, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert remains movement: %w", err)
	}
	return nil
}

// ListByProduct lista los movimientos del producto, más reciente primero.
func (r *RemainsMovementRepo) ListByProduct(ctx context.Context, productID string, limit int) ([]*entity.RemainsMovement, error) {
	query := `
		SELECT id, remains_id, product_id, mod_id, stock_id, kind, delta, count_before, count_after, reference, created_at
		FROM remains_movements WHERE product_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.q.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list remains movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.RemainsMovement
	for rows.Next() {
		var m entity.RemainsMovement
		if err := rows.Scan(
			&m.ID, &m.RemainsID, &m.ProductID, &m.ModID, &m.StockID, &m.Kind,
			&m.Delta, &m.CountBefore, &m.CountAfter, &m.Reference, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan remains movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
