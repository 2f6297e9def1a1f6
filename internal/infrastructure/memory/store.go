// Package memory implementa los puertos de persistencia en proceso: un mutex global
// serializa las transacciones y cada tx trabaja sobre una copia que sólo se publica en Commit.
// Pensado para embeber el libro en procesos sin PostgreSQL y para tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/remains-ledger/internal/application/inventory"
	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/domain/repository"
)

var (
	_ inventory.TxRunner                   = (*Store)(nil)
	_ repository.RemainsRepository         = (*RemainsRepo)(nil)
	_ repository.RemainsMovementRepository = (*RemainsMovementRepo)(nil)
	_ repository.WarehouseRepository       = (*WarehouseRepo)(nil)
)

type state struct {
	remains    map[string]entity.Remains // por RemainsKey.String()
	movements  []entity.RemainsMovement
	warehouses map[string]entity.Warehouse
}

func newState() *state {
	return &state{
		remains:    make(map[string]entity.Remains),
		warehouses: make(map[string]entity.Warehouse),
	}
}

func (s *state) clone() *state {
	c := &state{
		remains:    make(map[string]entity.Remains, len(s.remains)),
		movements:  make([]entity.RemainsMovement, len(s.movements)),
		warehouses: make(map[string]entity.Warehouse, len(s.warehouses)),
	}
	for k, v := range s.remains {
		c.remains[k] = v
	}
	copy(c.movements, s.movements)
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	return c
}

// Store almacén en memoria.
type Store struct {
	mu sync.RWMutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn con repositorios atados a una copia del estado; si fn no falla la copia se publica.
// Las transacciones quedan totalmente serializadas.
func (s *Store) Run(ctx context.Context, fn func(
	remainsRepo repository.RemainsRepository,
	movRepo repository.RemainsMovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&RemainsRepo{view: fixed(work)}, &RemainsMovementRepo{view: fixed(work)}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Remains repositorio de existencias fuera de transacción.
func (s *Store) Remains() *RemainsRepo {
	return &RemainsRepo{view: s.locked}
}

// Movements repositorio del diario fuera de transacción.
func (s *Store) Movements() *RemainsMovementRepo {
	return &RemainsMovementRepo{view: s.locked}
}

// Warehouses repositorio de bodegas.
func (s *Store) Warehouses() *WarehouseRepo {
	return &WarehouseRepo{view: s.locked}
}

// view da acceso al estado: con lock del store (fuera de tx) o directo (dentro de tx, ya bloqueado).
type view func(write bool, fn func(st *state) error) error

func fixed(st *state) view {
	return func(_ bool, fn func(st *state) error) error { return fn(st) }
}

func (s *Store) locked(write bool, fn func(st *state) error) error {
	if write {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.st)
}

// RemainsRepo implementación en memoria de RemainsRepository.
type RemainsRepo struct {
	view view
}

func (r *RemainsRepo) Get(_ context.Context, key entity.RemainsKey) (*entity.Remains, error) {
	var out *entity.Remains
	err := r.view(false, func(st *state) error {
		if rec, ok := st.remains[key.String()]; ok {
			out = &rec
		}
		return nil
	})
	return out, err
}

// GetForUpdate: el bloqueo lo da el mutex de la transacción.
func (r *RemainsRepo) GetForUpdate(ctx context.Context, key entity.RemainsKey) (*entity.Remains, error) {
	return r.Get(ctx, key)
}

func (r *RemainsRepo) GetOrCreateForUpdate(_ context.Context, key entity.RemainsKey) (*entity.Remains, bool, error) {
	var (
		out     *entity.Remains
		created bool
	)
	err := r.view(true, func(st *state) error {
		rec, ok := st.remains[key.String()]
		if !ok {
			rec = entity.Remains{
				ID:        uuid.New().String(),
				ProductID: key.ProductID,
				ModID:     copyID(key.ModID),
				StockID:   key.StockID,
				UpdatedAt: time.Now(),
			}
			st.remains[key.String()] = rec
			created = true
		}
		out = &rec
		return nil
	})
	return out, created, err
}

func (r *RemainsRepo) UpdateCount(_ context.Context, id string, count int64, updatedAt time.Time) error {
	return r.view(true, func(st *state) error {
		for k, rec := range st.remains {
			if rec.ID == id {
				rec.Count = count
				rec.UpdatedAt = updatedAt
				st.remains[k] = rec
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *RemainsRepo) Delete(_ context.Context, key entity.RemainsKey) (bool, error) {
	var deleted bool
	err := r.view(true, func(st *state) error {
		if _, ok := st.remains[key.String()]; ok {
			delete(st.remains, key.String())
			deleted = true
		}
		return nil
	})
	return deleted, err
}

func (r *RemainsRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Remains, error) {
	var list []*entity.Remains
	err := r.view(false, func(st *state) error {
		for _, rec := range st.remains {
			if rec.ProductID == productID {
				rec := rec
				list = append(list, &rec)
			}
		}
		return nil
	})
	// Mismo orden que el adaptador PostgreSQL: sin mod primero, luego por mod y bodega
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Key(), list[j].Key()
		if a.HasMod() != b.HasMod() {
			return !a.HasMod()
		}
		if a.Mod() != b.Mod() {
			return a.Mod() < b.Mod()
		}
		return a.StockID < b.StockID
	})
	return list, err
}

// RemainsMovementRepo implementación en memoria del diario.
type RemainsMovementRepo struct {
	view view
}

func (r *RemainsMovementRepo) Create(_ context.Context, m *entity.RemainsMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return r.view(true, func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *RemainsMovementRepo) ListByProduct(_ context.Context, productID string, limit int) ([]*entity.RemainsMovement, error) {
	var list []*entity.RemainsMovement
	err := r.view(false, func(st *state) error {
		for i := len(st.movements) - 1; i >= 0 && (limit <= 0 || len(list) < limit); i-- {
			if st.movements[i].ProductID == productID {
				m := st.movements[i]
				list = append(list, &m)
			}
		}
		return nil
	})
	return list, err
}

// WarehouseRepo implementación en memoria de WarehouseRepository.
// Mantiene a lo sumo una bodega por defecto igual que el índice único parcial de PostgreSQL.
type WarehouseRepo struct {
	view view
}

func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	return r.view(true, func(st *state) error {
		if _, ok := st.warehouses[w.ID]; ok {
			return domain.ErrConflict
		}
		if prev := defaultOf(st); w.IsDefault && prev != nil {
			prev.IsDefault = false
			st.warehouses[prev.ID] = *prev
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.view(false, func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			out = &w
		}
		return nil
	})
	return out, err
}

// Update actualiza nombre, dirección y estado de borrado; la marca por defecto sólo cambia con SetDefault.
func (r *WarehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	return r.view(true, func(st *state) error {
		cur, ok := st.warehouses[w.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Name = w.Name
		cur.Address = w.Address
		cur.StatusDelete = w.StatusDelete
		cur.UpdatedAt = w.UpdatedAt
		st.warehouses[w.ID] = cur
		return nil
	})
}

func (r *WarehouseRepo) List(_ context.Context, includeDeleted bool, limit, offset int) ([]*entity.Warehouse, error) {
	var list []*entity.Warehouse
	err := r.view(false, func(st *state) error {
		for _, w := range st.warehouses {
			if w.IsDeleted && !includeDeleted {
				continue
			}
			w := w
			list = append(list, &w)
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if offset >= len(list) {
		return nil, err
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, err
}

func (r *WarehouseRepo) GetDefault(_ context.Context) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.view(false, func(st *state) error {
		out = defaultOf(st)
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) SetDefault(_ context.Context, id string) error {
	return r.view(true, func(st *state) error {
		target, ok := st.warehouses[id]
		if !ok {
			return domain.ErrNotFound
		}
		if prev := defaultOf(st); prev != nil {
			prev.IsDefault = false
			st.warehouses[prev.ID] = *prev
		}
		target.IsDefault = true
		st.warehouses[id] = target
		return nil
	})
}

func defaultOf(st *state) *entity.Warehouse {
	for _, w := range st.warehouses {
		if w.IsDefault {
			w := w
			return &w
		}
	}
	return nil
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
