package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/remains-ledger/internal/application/dto"
	"github.com/jhoicas/remains-ledger/internal/application/inventory"
	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/remains-ledger/internal/domain/inventory"
	"github.com/jhoicas/remains-ledger/internal/domain/repository"
	"github.com/jhoicas/remains-ledger/pkg/logger"
)

var _ inventory.DefaultStockResolver = (*WarehouseUseCase)(nil)

// WarehouseOptions parámetros del registro de bodegas.
type WarehouseOptions struct {
	DefaultCacheTTL   time.Duration // 0 = consultar siempre el repositorio
	ShowDeletedWindow time.Duration // visibilidad de eliminadas para usuarios autenticados
}

// WarehouseUseCase CRUD de bodegas y registro de la bodega por defecto.
type WarehouseUseCase struct {
	repo repository.WarehouseRepository
	opts WarehouseOptions
	log  *logger.Logger
	now  func() time.Time

	mu           sync.Mutex
	defaultID    string
	defaultUntil time.Time
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository, opts WarehouseOptions, log *logger.Logger) *WarehouseUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &WarehouseUseCase{repo: repo, opts: opts, log: log.Component("warehouses"), now: time.Now}
}

// Create crea una nueva bodega. La primera bodega del sistema, o una pedida con IsDefault,
// queda como bodega por defecto en la misma escritura del repositorio.
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 200 {
		return nil, domain.ErrInvalidInput
	}
	makeDefault := in.IsDefault
	if !makeDefault {
		current, err := uc.repo.GetDefault(ctx)
		if err != nil {
			return nil, err
		}
		makeDefault = current == nil
	}
	now := uc.now()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		Name:      name,
		Address:   in.Address,
		IsDefault: makeDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	create := func() error { return uc.repo.Create(ctx, warehouse) }
	var err error
	if makeDefault {
		err = uc.moveDefault(warehouse.ID, create)
	} else {
		err = create()
	}
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("warehouse_id", warehouse.ID).Bool("default", warehouse.IsDefault).Msg("bodega creada")
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID (incluye eliminadas). nil si no existe.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	if err := domaininv.ValidateID(id); err != nil {
		return nil, err
	}
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza una bodega.
func (uc *WarehouseUseCase) Update(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	if err := domaininv.ValidateID(id); err != nil {
		return nil, err
	}
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 200 {
			return nil, domain.ErrInvalidInput
		}
		warehouse.Name = name
	}
	if in.Address != nil {
		warehouse.Address = *in.Address
	}
	warehouse.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas visibles para viewer: las eliminadas sólo aparecen para usuarios
// autenticados y dentro de la ventana ShowDeletedWindow.
func (uc *WarehouseUseCase) List(ctx context.Context, viewer entity.Viewer, page dto.PageRequest) (*dto.WarehouseListResponse, error) {
	page.DefaultPage()
	includeDeleted := viewer != nil && viewer.IsAuthenticated()
	list, err := uc.repo.List(ctx, includeDeleted, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	asOf := entity.DeletedDeadline(uc.now(), uc.opts.ShowDeletedWindow)
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		if !w.IsVisible(asOf, viewer) {
			continue
		}
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// SetDefault mueve la marca de bodega por defecto. No se permite sobre una bodega eliminada.
func (uc *WarehouseUseCase) SetDefault(ctx context.Context, id string) error {
	if err := domaininv.ValidateID(id); err != nil {
		return err
	}
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return domain.ErrNotFound
	}
	if warehouse.IsDeleted {
		return domain.ErrConflict
	}
	if err := uc.moveDefault(id, func() error { return uc.repo.SetDefault(ctx, id) }); err != nil {
		return err
	}
	uc.log.Info().Str("warehouse_id", id).Msg("bodega por defecto actualizada")
	return nil
}

// moveDefault ejecuta write y actualiza la cache bajo el mismo lock, de modo que la cache
// sigue el orden de las escrituras. Si write falla la cache se invalida.
func (uc *WarehouseUseCase) moveDefault(id string, write func() error) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if err := write(); err != nil {
		uc.defaultID = ""
		return err
	}
	uc.defaultID = id
	uc.defaultUntil = uc.now().Add(uc.opts.DefaultCacheTTL)
	return nil
}

// DefaultWarehouseID devuelve la bodega por defecto (con cache de DefaultCacheTTL).
// domain.ErrNoDefaultWarehouse si el sistema no tiene ninguna: es un error de configuración.
func (uc *WarehouseUseCase) DefaultWarehouseID(ctx context.Context) (string, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	now := uc.now()
	if uc.defaultID != "" && now.Before(uc.defaultUntil) {
		return uc.defaultID, nil
	}
	w, err := uc.repo.GetDefault(ctx)
	if err != nil {
		return "", err
	}
	if w == nil {
		uc.defaultID = ""
		return "", domain.ErrNoDefaultWarehouse
	}
	uc.defaultID = w.ID
	uc.defaultUntil = now.Add(uc.opts.DefaultCacheTTL)
	return w.ID, nil
}

// Delete borrado lógico. La bodega por defecto no puede eliminarse (ErrConflict).
func (uc *WarehouseUseCase) Delete(ctx context.Context, id string) error {
	if err := domaininv.ValidateID(id); err != nil {
		return err
	}
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return domain.ErrNotFound
	}
	if warehouse.IsDefault {
		return domain.ErrConflict
	}
	if warehouse.IsDeleted {
		return nil
	}
	now := uc.now()
	warehouse.MarkDeleted(now)
	warehouse.UpdatedAt = now
	return uc.repo.Update(ctx, warehouse)
}

// Restore deshace el borrado lógico.
func (uc *WarehouseUseCase) Restore(ctx context.Context, id string) error {
	if err := domaininv.ValidateID(id); err != nil {
		return err
	}
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return domain.ErrNotFound
	}
	warehouse.Restore()
	warehouse.UpdatedAt = uc.now()
	return uc.repo.Update(ctx, warehouse)
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:          w.ID,
		Name:        w.Name,
		Address:     w.Address,
		IsDefault:   w.IsDefault,
		IsDeleted:   w.IsDeleted,
		DateDeleted: w.DateDeleted,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}
