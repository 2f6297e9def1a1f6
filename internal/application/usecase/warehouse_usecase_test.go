package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remains-ledger/internal/application/dto"
	"github.com/jhoicas/remains-ledger/internal/application/usecase"
	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/domain/repository"
	"github.com/jhoicas/remains-ledger/internal/infrastructure/memory"
)

func newWarehouseUseCase(opts usecase.WarehouseOptions) (*usecase.WarehouseUseCase, *memory.Store) {
	store := memory.NewStore()
	return usecase.NewWarehouseUseCase(store.Warehouses(), opts, nil), store
}

func create(t *testing.T, uc *usecase.WarehouseUseCase, name string, isDefault bool) *dto.WarehouseResponse {
	t.Helper()
	w, err := uc.Create(context.Background(), dto.CreateWarehouseRequest{Name: name, IsDefault: isDefault})
	require.NoError(t, err)
	return w
}

// slowDefaultRepo retrasa la vuelta de SetDefault para slowID después de escribir.
type slowDefaultRepo struct {
	repository.WarehouseRepository
	slowID string
	delay  time.Duration
}

func (r *slowDefaultRepo) SetDefault(ctx context.Context, id string) error {
	err := r.WarehouseRepository.SetDefault(ctx, id)
	if id == r.slowID {
		time.Sleep(r.delay)
	}
	return err
}

// brokenDefaultRepo falla siempre al mover la marca por defecto.
type brokenDefaultRepo struct {
	repository.WarehouseRepository
}

func (brokenDefaultRepo) SetDefault(context.Context, string) error {
	return errors.New("conexión perdida")
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro de la bodega por defecto
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_PrimeraBodegaQuedaPorDefecto(t *testing.T) {
	uc, _ := newWarehouseUseCase(usecase.WarehouseOptions{})
	ctx := context.Background()

	_, err := uc.DefaultWarehouseID(ctx)
	require.ErrorIs(t, err, domain.ErrNoDefaultWarehouse)

	first := create(t, uc, "Principal", false)
	second := create(t, uc, "Norte", false)
	assert.True(t, first.IsDefault)
	assert.False(t, second.IsDefault)

	id, err := uc.DefaultWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)
}

func TestCreate_ConIsDefaultMueveLaMarca(t *testing.T) {
	uc, _ := newWarehouseUseCase(usecase.WarehouseOptions{})
	ctx := context.Background()

	first := create(t, uc, "Principal", false)
	second := create(t, uc, "Norte", true)
	require.True(t, second.IsDefault)

	id, err := uc.DefaultWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, id)

	got, err := uc.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault, "sólo una bodega por defecto")
}

func TestCreate_NombreInvalido(t *testing.T) {
	uc, _ := newWarehouseUseCase(usecase.WarehouseOptions{})
	_, err := uc.Create(context.Background(), dto.CreateWarehouseRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSetDefault_Errores(t *testing.T) {
	uc, _ := newWarehouseUseCase(usecase.WarehouseOptions{})
	ctx := context.Background()
	create(t, uc, "Principal", false)
	other := create(t, uc, "Norte", false)

	assert.ErrorIs(t, uc.SetDefault(ctx, uuid.NewString()), domain.ErrNotFound)
	assert.ErrorIs(t, uc.SetDefault(ctx, "no-existe"), domain.ErrInvalidInput)

	require.NoError(t, uc.Delete(ctx, other.ID))
	assert.ErrorIs(t, uc.SetDefault(ctx, other.ID), domain.ErrConflict, "una bodega eliminada no puede ser la bodega por defecto")
}

func TestDefaultWarehouseID_UsaCache(t *testing.T) {
	uc, store := newWarehouseUseCase(usecase.WarehouseOptions{DefaultCacheTTL: time.Hour})
	ctx := context.Background()
	first := create(t, uc, "Principal", false)
	second := create(t, uc, "Norte", false)

	// Cambio directo en el repositorio, sin pasar por el caso de uso
	require.NoError(t, store.Warehouses().SetDefault(ctx, second.ID))

	id, err := uc.DefaultWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, id, "dentro del TTL se usa el valor en cache")

	require.NoError(t, uc.SetDefault(ctx, second.ID))
	id, err = uc.DefaultWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, id, "SetDefault actualiza el cache")
}

func TestSetDefault_CacheSigueElOrdenDeLasEscrituras(t *testing.T) {
	store := memory.NewStore()
	repo := &slowDefaultRepo{WarehouseRepository: store.Warehouses(), delay: 50 * time.Millisecond}
	uc := usecase.NewWarehouseUseCase(repo, usecase.WarehouseOptions{DefaultCacheTTL: time.Hour}, nil)
	ctx := context.Background()
	a := create(t, uc, "Principal", false)
	b := create(t, uc, "Norte", false)
	repo.slowID = a.ID

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, uc.SetDefault(ctx, a.ID))
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, uc.SetDefault(ctx, b.ID))
	wg.Wait()

	def, err := store.Warehouses().GetDefault(ctx)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, b.ID, def.ID)

	id, err := uc.DefaultWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, def.ID, id, "la cache coincide con la bodega marcada en el repositorio")
}

func TestCreate_PorDefectoEnUnaSolaEscritura(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewWarehouseUseCase(brokenDefaultRepo{store.Warehouses()}, usecase.WarehouseOptions{DefaultCacheTTL: time.Hour}, nil)
	ctx := context.Background()

	first := create(t, uc, "Principal", false)
	require.True(t, first.IsDefault)
	second := create(t, uc, "Norte", true)
	require.True(t, second.IsDefault)

	def, err := store.Warehouses().GetDefault(ctx)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second.ID, def.ID)

	id, err := uc.DefaultWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, id)

	assert.Error(t, uc.SetDefault(ctx, first.ID))
	id, err = uc.DefaultWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, id, "un SetDefault fallido invalida la cache")
}

func TestDefaultWarehouseID_SinCache(t *testing.T) {
	uc, store := newWarehouseUseCase(usecase.WarehouseOptions{})
	ctx := context.Background()
	create(t, uc, "Principal", false)
	second := create(t, uc, "Norte", false)

	require.NoError(t, store.Warehouses().SetDefault(ctx, second.ID))

	id, err := uc.DefaultWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, id)
}

// ──────────────────────────────────────────────────────────────────────────────
// Borrado lógico
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_BodegaPorDefectoNoSeElimina(t *testing.T) {
	uc, _ := newWarehouseUseCase(usecase.WarehouseOptions{})
	def := create(t, uc, "Principal", false)
	assert.ErrorIs(t, uc.Delete(context.Background(), def.ID), domain.ErrConflict)
	assert.ErrorIs(t, uc.Delete(context.Background(), uuid.NewString()), domain.ErrNotFound)
}

func TestOperacionesPorID_RechazanIDsNoUUID(t *testing.T) {
	uc, _ := newWarehouseUseCase(usecase.WarehouseOptions{})
	ctx := context.Background()
	create(t, uc, "Principal", false)
	name := "Central"

	_, err := uc.GetByID(ctx, "bodega-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Update(ctx, "bodega-1", dto.UpdateWarehouseRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, uc.SetDefault(ctx, ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, uc.Delete(ctx, "bodega-1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, uc.Restore(ctx, "bodega-1"), domain.ErrInvalidInput)

	got, err := uc.GetByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestList_EliminadasSoloParaUsuariosAutenticados(t *testing.T) {
	uc, _ := newWarehouseUseCase(usecase.WarehouseOptions{ShowDeletedWindow: time.Hour})
	ctx := context.Background()
	create(t, uc, "Principal", false)
	other := create(t, uc, "Norte", false)
	require.NoError(t, uc.Delete(ctx, other.ID))

	anon, err := uc.List(ctx, entity.Anonymous, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, anon.Items, 1)
	assert.Equal(t, "Principal", anon.Items[0].Name)

	staff, err := uc.List(ctx, entity.Staff, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, staff.Items, 2)

	var deleted *dto.WarehouseResponse
	for i := range staff.Items {
		if staff.Items[i].ID == other.ID {
			deleted = &staff.Items[i]
		}
	}
	require.NotNil(t, deleted)
	assert.True(t, deleted.IsDeleted)
	assert.NotNil(t, deleted.DateDeleted)
	assert.Equal(t, 20, staff.Page.Limit)
}

func TestRestore_VuelveAListarse(t *testing.T) {
	uc, _ := newWarehouseUseCase(usecase.WarehouseOptions{})
	ctx := context.Background()
	create(t, uc, "Principal", false)
	other := create(t, uc, "Norte", false)
	require.NoError(t, uc.Delete(ctx, other.ID))
	require.NoError(t, uc.Restore(ctx, other.ID))

	list, err := uc.List(ctx, entity.Anonymous, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	require.NoError(t, uc.SetDefault(ctx, other.ID), "una bodega restaurada puede volver a ser la bodega por defecto")
}

func TestUpdate_CambiaNombreSinTocarMarcaPorDefecto(t *testing.T) {
	uc, _ := newWarehouseUseCase(usecase.WarehouseOptions{})
	ctx := context.Background()
	def := create(t, uc, "Principal", false)

	name := "Central"
	got, err := uc.Update(ctx, def.ID, dto.UpdateWarehouseRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Central", got.Name)

	id, err := uc.DefaultWarehouseID(ctx)
	require.NoError(t, err)
	assert.Equal(t, def.ID, id)
}
