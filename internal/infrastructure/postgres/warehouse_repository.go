package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

const warehouseColumns = `id, name, address, is_default, is_deleted, date_deleted, created_at, updated_at`

// Clave del advisory lock que serializa los cambios de bodega por defecto.
const defaultWarehouseLockKey = 7_300_001

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	pool *pgxpool.Pool
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(pool *pgxpool.Pool) *WarehouseRepo {
	return &WarehouseRepo{pool: pool}
}

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := row.Scan(&w.ID, &w.Name, &w.Address, &w.IsDefault, &w.IsDeleted, &w.DateDeleted, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create persiste una nueva bodega. Con IsDefault la marca se quita de la anterior en la
// misma transacción, así nunca queda una bodega creada sin la marca pedida.
func (r *WarehouseRepo) Create(ctx context.Context, warehouse *entity.Warehouse) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if warehouse.IsDefault {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, defaultWarehouseLockKey); err != nil {
			return fmt.Errorf("lock default warehouse: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE warehouses SET is_default = false, updated_at = now() WHERE is_default`,
		); err != nil {
			return fmt.Errorf("unset default warehouse: %w", err)
		}
	}
	query := `
		INSERT INTO warehouses (` + warehouseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.Exec(ctx, query,
		warehouse.ID, warehouse.Name, warehouse.Address, warehouse.IsDefault,
		warehouse.IsDeleted, warehouse.DateDeleted, warehouse.CreatedAt, warehouse.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID; nil si no existe.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.pool.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return w, nil
}

// Update actualiza nombre, dirección y borrado lógico. is_default sólo cambia con SetDefault.
func (r *WarehouseRepo) Update(ctx context.Context, warehouse *entity.Warehouse) error {
	query := `
		UPDATE warehouses SET name = $2, address = $3, is_deleted = $4, date_deleted = $5, updated_at = $6
		WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query,
		warehouse.ID, warehouse.Name, warehouse.Address,
		warehouse.IsDeleted, warehouse.DateDeleted, warehouse.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista bodegas con paginación, más recientes primero.
func (r *WarehouseRepo) List(ctx context.Context, includeDeleted bool, limit, offset int) ([]*entity.Warehouse, error) {
	query := `
		SELECT ` + warehouseColumns + ` FROM warehouses
		WHERE $1 OR NOT is_deleted
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, includeDeleted, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// GetDefault devuelve la bodega por defecto; nil si no hay.
func (r *WarehouseRepo) GetDefault(ctx context.Context) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.pool.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE is_default`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get default warehouse: %w", err)
	}
	return w, nil
}

// SetDefault mueve la marca en una sola transacción. El índice único parcial garantiza
// que nunca haya dos; el advisory lock evita que dos cambios concurrentes choquen con él.
func (r *WarehouseRepo) SetDefault(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, defaultWarehouseLockKey); err != nil {
		return fmt.Errorf("lock default warehouse: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE warehouses SET is_default = false, updated_at = now() WHERE is_default AND id <> $1`, id,
	); err != nil {
		return fmt.Errorf("unset default warehouse: %w", err)
	}
	cmd, err := tx.Exec(ctx,
		`UPDATE warehouses SET is_default = true, updated_at = now() WHERE id = $1 AND NOT is_deleted`, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("set default warehouse: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
