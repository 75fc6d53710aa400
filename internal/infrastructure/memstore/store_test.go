package memstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/internal/infrastructure/memstore"
)

func newStore(t *testing.T) *memstore.Store {
	t.Helper()
	s, err := memstore.New()
	require.NoError(t, err)
	return s
}

func seedSKU(t *testing.T, s *memstore.Store, code string) *entity.SKU {
	t.Helper()
	sku := &entity.SKU{Code: code, Name: code, Active: true}
	require.NoError(t, s.SKURepository().Upsert(context.Background(), sku))
	return sku
}

// ──────────────────────────────────────────────────────────────────────────────
// SKUs
// ──────────────────────────────────────────────────────────────────────────────

func TestSKURepo_UpsertConservaID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sku := seedSKU(t, s, "A-1")
	require.NotEmpty(t, sku.ID)

	again := &entity.SKU{Code: "A-1", Name: "Renombrado", Active: true}
	require.NoError(t, s.SKURepository().Upsert(ctx, again))
	assert.Equal(t, sku.ID, again.ID)

	got, err := s.SKURepository().GetByCode(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, "Renombrado", got.Name)

	_, err = s.SKURepository().GetByID(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Agregado: escrituras condicionadas
// ──────────────────────────────────────────────────────────────────────────────

func TestStockItemRepo_EscriturasCondicionadas(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sku := seedSKU(t, s, "B-1")
	repo := s.StockItemRepository()

	_, err := repo.Reserve(ctx, sku.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound, "sin fila no hay reserva")

	it, err := repo.Receive(ctx, sku.ID, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, it.Quantity)
	assert.Equal(t, 2, it.MinStock)

	it, err = repo.Receive(ctx, sku.ID, 5, 9)
	require.NoError(t, err)
	assert.Equal(t, 15, it.Quantity)
	assert.Equal(t, 2, it.MinStock, "min_stock solo se fija al crear")

	_, err = repo.Reserve(ctx, sku.ID, 16)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	it, err = repo.Reserve(ctx, sku.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, it.ReservedQty)

	_, err = repo.Adjust(ctx, sku.ID, -4)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "quantity no puede bajar de reserved_qty")

	_, err = repo.Commit(ctx, sku.ID, 13)
	assert.ErrorIs(t, err, domain.ErrReservationMismatch)
	it, err = repo.Commit(ctx, sku.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 13, it.Quantity)
	assert.Equal(t, 10, it.ReservedQty)

	it, released, err := repo.Release(ctx, sku.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 10, released)
	assert.Equal(t, 0, it.ReservedQty)

	maxStock := 40
	it, err = repo.SetLevels(ctx, sku.ID, 3, &maxStock)
	require.NoError(t, err)
	maxStock = 1
	require.NotNil(t, it.MaxStock)
	assert.Equal(t, 40, *it.MaxStock)
}

func TestStockItemRepo_LecturasNoAliasan(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sku := seedSKU(t, s, "C-1")
	repo := s.StockItemRepository()
	_, err := repo.Receive(ctx, sku.ID, 3, 0)
	require.NoError(t, err)

	it, err := repo.Get(ctx, sku.ID)
	require.NoError(t, err)
	it.Quantity = 999

	again, err := repo.Get(ctx, sku.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Quantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones: rollback completo
// ──────────────────────────────────────────────────────────────────────────────

func TestTxRunner_RevierteTodoAnteError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sku := seedSKU(t, s, "D-1")
	_, err := s.StockItemRepository().Receive(ctx, sku.ID, 5, 0)
	require.NoError(t, err)

	boom := errors.New("fallo simulado")
	err = memstore.NewTxRunner(s).Run(ctx, func(
		stockRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		unitRepo repository.SerialUnitRepository,
	) error {
		if _, err := stockRepo.Reserve(ctx, sku.ID, 2); err != nil {
			return err
		}
		if err := movRepo.Create(ctx, &entity.StockMovement{
			ID: "m-1", SKUID: sku.ID, Type: entity.MovementTypeIN, Quantity: 1,
			Reason: entity.ReasonAdjustment, CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	it, err := s.StockItemRepository().Get(ctx, sku.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, it.ReservedQty)
	_, err = s.StockMovementRepository().GetByID(ctx, "m-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTxRunner_ContextoCancelado(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := memstore.NewTxRunner(s).Run(ctx, func(
		repository.StockItemRepository, repository.StockMovementRepository, repository.SerialUnitRepository,
	) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────────────────────────────────

func TestStockMovementRepo_OrdenYFiltros(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sku := seedSKU(t, s, "E-1")
	repo := s.StockMovementRepository()

	add := func(id string, typ entity.MovementType, qty int, reason entity.MovementReason, refID string) {
		require.NoError(t, repo.Create(ctx, &entity.StockMovement{
			ID: id, SKUID: sku.ID, Type: typ, Quantity: qty, Reason: reason,
			RefType: "ORDER_ITEM", RefID: refID, CreatedAt: time.Now(),
		}))
	}
	add("m-1", entity.MovementTypeIN, 10, entity.ReasonPurchase, "")
	add("m-2", entity.MovementTypeOUT, 3, entity.ReasonSale, "oi-1")
	add("m-3", entity.MovementTypeOUT, 1, entity.ReasonSale, "oi-2")

	assert.ErrorIs(t, repo.Create(ctx, &entity.StockMovement{ID: "m-1", SKUID: sku.ID}), domain.ErrDuplicate)
	assert.ErrorIs(t, repo.Create(ctx, &entity.StockMovement{ID: "m-9", SKUID: "otro"}), domain.ErrNotFound)

	all, err := repo.List(ctx, repository.MovementFilter{SKUID: sku.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, m := range all {
		assert.Equal(t, fmt.Sprintf("m-%d", i+1), m.ID)
	}

	byRef, err := repo.List(ctx, repository.MovementFilter{RefType: "ORDER_ITEM", RefID: "oi-1"})
	require.NoError(t, err)
	require.Len(t, byRef, 1)
	assert.Equal(t, "m-2", byRef[0].ID)

	balance, err := repo.SignedBalance(ctx, sku.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, balance)

	sums, err := repo.Sums(ctx, repository.MovementFilter{SKUID: sku.ID})
	require.NoError(t, err)
	require.Len(t, sums, 2)
	var sale repository.ReasonSum
	for _, rs := range sums {
		if rs.Reason == entity.ReasonSale {
			sale = rs
		}
	}
	assert.EqualValues(t, 4, sale.Quantity)
	assert.EqualValues(t, 2, sale.Count)
}

// ──────────────────────────────────────────────────────────────────────────────
// Unidades serializadas
// ──────────────────────────────────────────────────────────────────────────────

func TestSerialUnitRepo_ClaimYTransition(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sku := seedSKU(t, s, "F-1")
	repo := s.SerialUnitRepository()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entity.SerialUnit{
			ID: fmt.Sprintf("u-%d", i), SKUID: sku.ID, IMEI: fmt.Sprintf("imei-%d", i),
			Status: entity.SerialInStock, Counted: true, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	err := repo.Create(ctx, &entity.SerialUnit{ID: "u-x", SKUID: sku.ID, IMEI: "imei-0", Status: entity.SerialInStock})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = repo.ClaimInStock(ctx, sku.ID, 4, repository.UnitRef{RefType: "ORDER_ITEM", RefID: "oi-1"})
	assert.ErrorIs(t, err, domain.ErrSerialUnitUnavailable)
	n, err := repo.CountByStatus(ctx, sku.ID, entity.SerialInStock)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "un claim fallido no toca ninguna unidad")

	claimed, err := repo.ClaimInStock(ctx, sku.ID, 2, repository.UnitRef{RefType: "ORDER_ITEM", RefID: "oi-1"})
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, "u-0", claimed[0].ID, "primero las más antiguas")
	assert.Equal(t, "u-1", claimed[1].ID)
	assert.False(t, claimed[0].Counted)
	assert.Equal(t, "oi-1", claimed[0].LastRefID)

	_, err = repo.Transition(ctx, "u-0", entity.SerialInStock, entity.SerialRepair, false, repository.UnitRef{RefType: "TICKET", RefID: "t"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "la unidad ya no está en IN_STOCK")

	u, err := repo.Transition(ctx, "u-0", entity.SerialSold, entity.SerialRepair, false, repository.UnitRef{RefType: "TICKET", RefID: "t"})
	require.NoError(t, err)
	assert.Equal(t, entity.SerialRepair, u.Status)

	byIMEI, err := repo.GetByIMEI(ctx, "imei-2")
	require.NoError(t, err)
	assert.Equal(t, "u-2", byIMEI.ID)

	repairs, err := repo.ListByStatus(ctx, entity.SerialRepair, 10, 0)
	require.NoError(t, err)
	require.Len(t, repairs, 1)
	assert.Equal(t, "u-0", repairs[0].ID)
}
