package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/domain/repository"
)

var _ repository.RemainsRepository = (*RemainsRepo)(nil)

const remainsColumns = `id, product_id, mod_id, stock_id, count, updated_at`

// Coincide con la expresión del índice único remains_key_uniq para poder usarlo en las búsquedas.
const remainsKeyWhere = `product_id = $1
	AND COALESCE(mod_id, '` + nilUUID + `'::uuid) = COALESCE($2::uuid, '` + nilUUID + `'::uuid)
	AND stock_id = $3`

// RemainsRepo implementación de RemainsRepository sobre PostgreSQL (usable con pool o tx).
type RemainsRepo struct {
	q Querier
}

// NewRemainsRepository construye el adaptador de existencias. Pasar pool o tx (Querier).
func NewRemainsRepository(q Querier) *RemainsRepo {
	return &RemainsRepo{q: q}
}

func scanRemains(row pgx.Row) (*entity.Remains, error) {
	var r entity.Remains
	if err := row.Scan(&r.ID, &r.ProductID, &r.ModID, &r.StockID, &r.Count, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// Get obtiene el registro de la clave exacta; nil si no existe.
func (r *RemainsRepo) Get(ctx context.Context, key entity.RemainsKey) (*entity.Remains, error) {
	query := `SELECT ` + remainsColumns + ` FROM remains WHERE ` + remainsKeyWhere
	rec, err := scanRemains(r.q.QueryRow(ctx, query, key.ProductID, key.ModID, key.StockID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get remains: %w", err)
	}
	return rec, nil
}

// GetForUpdate obtiene el registro y bloquea la fila para update (SELECT FOR UPDATE).
func (r *RemainsRepo) GetForUpdate(ctx context.Context, key entity.RemainsKey) (*entity.Remains, error) {
	query := `SELECT ` + remainsColumns + ` FROM remains WHERE ` + remainsKeyWhere + ` FOR UPDATE`
	rec, err := scanRemains(r.q.QueryRow(ctx, query, key.ProductID, key.ModID, key.StockID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get remains for update: %w", err)
	}
	return rec, nil
}

// GetOrCreateForUpdate inserta la clave con count 0 si no existe (ON CONFLICT DO NOTHING) y
// devuelve la fila bloqueada. Un insert concurrente de la misma clave espera al índice único,
// así que dos llamadas nunca crean dos filas.
func (r *RemainsRepo) GetOrCreateForUpdate(ctx context.Context, key entity.RemainsKey) (*entity.Remains, bool, error) {
	insert := `
		INSERT INTO remains (id, product_id, mod_id, stock_id, count, updated_at)
		VALUES ($1, $2, $3, $4, 0, now())
		ON CONFLICT DO NOTHING
		RETURNING ` + remainsColumns
	rec, err := scanRemains(r.q.QueryRow(ctx, insert, uuid.New().String(), key.ProductID, key.ModID, key.StockID))
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isForeignKeyViolation(err) {
			return nil, false, fmt.Errorf("create remains: bodega %s: %w", key.StockID, domain.ErrNotFound)
		}
		return nil, false, fmt.Errorf("create remains: %w", err)
	}
	rec, err = r.GetForUpdate(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		// El conflicto vino de otra fila borrada entre el INSERT y el SELECT.
		return nil, false, fmt.Errorf("create remains %s: %w", key, domain.ErrConflict)
	}
	return rec, false, nil
}

// UpdateCount fija la cantidad de una fila ya bloqueada.
func (r *RemainsRepo) UpdateCount(ctx context.Context, id string, count int64, updatedAt time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE remains SET count = $2, updated_at = $3 WHERE id = $1`, id, count, updatedAt)
	if err != nil {
		return fmt.Errorf("update remains: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina exactamente el registro de la clave.
func (r *RemainsRepo) Delete(ctx context.Context, key entity.RemainsKey) (bool, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM remains WHERE `+remainsKeyWhere, key.ProductID, key.ModID, key.StockID)
	if err != nil {
		return false, fmt.Errorf("delete remains: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// ListByProduct lista todas las granularidades del producto: sin mod primero, luego por mod y bodega.
func (r *RemainsRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Remains, error) {
	query := `SELECT ` + remainsColumns + ` FROM remains WHERE product_id = $1
		ORDER BY mod_id NULLS FIRST, stock_id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list remains: %w", err)
	}
	defer rows.Close()
	var list []*entity.Remains
	for rows.Next() {
		rec, err := scanRemains(rows)
		if err != nil {
			return nil, fmt.Errorf("scan remains: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
