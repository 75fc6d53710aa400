package inventory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/internal/infrastructure/memstore"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Entorno de pruebas sobre go-memdb: transacciones reales con rollback.
// ──────────────────────────────────────────────────────────────────────────────

type testEnv struct {
	store     *memstore.Store
	events    *recordingPublisher
	stock     *inventory.StockUseCase
	ledger    *inventory.LedgerUseCase
	serial    *inventory.SerialUnitUseCase
	coord     *inventory.Coordinator
	reporting *inventory.ReportingUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := memstore.New()
	require.NoError(t, err)
	tx := memstore.NewTxRunner(store)
	pub := &recordingPublisher{}
	log := logger.NewNop()
	skuRepo := store.SKURepository()
	return &testEnv{
		store:     store,
		events:    pub,
		stock:     inventory.NewStockUseCase(tx, skuRepo, store.StockItemRepository(), pub, log),
		ledger:    inventory.NewLedgerUseCase(store.StockMovementRepository(), store.StockItemRepository()),
		serial:    inventory.NewSerialUnitUseCase(tx, skuRepo, store.SerialUnitRepository(), pub, log),
		coord:     inventory.NewCoordinator(tx, skuRepo, pub, log),
		reporting: inventory.NewReportingUseCase(store.StockItemRepository(), store.SerialUnitRepository()),
	}
}

// newSKU registra un SKU activo.
func (e *testEnv) newSKU(t *testing.T, code string, serialized bool, cost string) *entity.SKU {
	t.Helper()
	sku := &entity.SKU{
		Code:       code,
		Name:       "Producto " + code,
		Serialized: serialized,
		Active:     true,
		CostPrice:  decimal.RequireFromString(cost),
	}
	require.NoError(t, e.store.SKURepository().Upsert(context.Background(), sku))
	return sku
}

// stockSKU SKU no serializado con quantity inicial recibida como PURCHASE.
func (e *testEnv) stockSKU(t *testing.T, code string, qty int) *entity.SKU {
	t.Helper()
	sku := e.newSKU(t, code, false, "1000")
	if qty > 0 {
		_, err := e.stock.Receive(context.Background(), sku.ID, qty, 0, inventory.MovementInput{RefType: "PO", RefID: "po-" + code})
		require.NoError(t, err)
	}
	return sku
}

// serialSKU SKU serializado con n unidades IN_STOCK.
func (e *testEnv) serialSKU(t *testing.T, code string, n int) (*entity.SKU, []*entity.SerialUnit) {
	t.Helper()
	sku := e.newSKU(t, code, true, "3800000")
	units := make([]inventory.UnitInput, 0, n)
	for i := 0; i < n; i++ {
		units = append(units, inventory.UnitInput{IMEI: fmt.Sprintf("35693803564%04d-%s", i, code)})
	}
	created, err := e.serial.ReceiveUnits(context.Background(), sku.ID, units, inventory.MovementInput{RefType: "PO", RefID: "po-" + code})
	require.NoError(t, err)
	return sku, created
}

func (e *testEnv) item(t *testing.T, skuID string) *entity.StockItem {
	t.Helper()
	it, err := e.stock.GetStock(context.Background(), skuID)
	require.NoError(t, err)
	return it
}

func (e *testEnv) movements(t *testing.T, skuID string) []*entity.StockMovement {
	t.Helper()
	movs, err := e.store.StockMovementRepository().List(context.Background(), repository.MovementFilter{SKUID: skuID})
	require.NoError(t, err)
	return movs
}

// requireInvariants comprueba 0 <= reserved <= quantity y ledger == quantity.
func (e *testEnv) requireInvariants(t *testing.T, skuID string) {
	t.Helper()
	it := e.item(t, skuID)
	require.GreaterOrEqual(t, it.ReservedQty, 0)
	require.LessOrEqual(t, it.ReservedQty, it.Quantity)
	require.Equal(t, it.Quantity, dominv.SignedSum(e.movements(t, skuID)), "saldo del ledger distinto de quantity")
}

func (e *testEnv) countStatus(t *testing.T, skuID string, st entity.SerialStatus) int {
	t.Helper()
	n, err := e.store.SerialUnitRepository().CountByStatus(context.Background(), skuID, st)
	require.NoError(t, err)
	return n
}

func line(skuID string, qty int, ref string) inventory.OrderLine {
	return inventory.OrderLine{SKUID: skuID, Quantity: qty, RefID: ref, CreatedBy: "test"}
}

func unitRef(ref string) inventory.UnitEventInput {
	return inventory.UnitEventInput{RefType: "TICKET", RefID: ref, CreatedBy: "test"}
}

// recordingPublisher guarda los eventos publicados; failWith simula un broker caído.
type recordingPublisher struct {
	mu       sync.Mutex
	events   []inventory.StockEvent
	failWith error
}

func (p *recordingPublisher) Publish(_ context.Context, ev inventory.StockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) byType(t inventory.StockEventType) []inventory.StockEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []inventory.StockEvent
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
