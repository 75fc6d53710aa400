package repository

import (
	"context"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockFilter selecciona subconjuntos de StockItem para consultas de reporte.
type StockFilter string

const (
	StockFilterAll         StockFilter = ""
	StockFilterLow         StockFilter = "low"      // quantity <= min_stock
	StockFilterOut         StockFilter = "out"      // quantity = 0
	StockFilterIn          StockFilter = "in"       // quantity > 0
	StockFilterReservation StockFilter = "reserved" // reserved_qty > 0
)

// StockTotals agregados globales de stock.
type StockTotals struct {
	Quantity      int64
	Reserved      int64
	LowStockItems int64
}

// StockValuationRow cantidad y costo por SKU para valorización.
type StockValuationRow struct {
	SKUID     string
	Code      string
	Quantity  int
	CostPrice decimal.Decimal
}

// StockItemRepository define el puerto para el agregado de stock.
// Todas las mutaciones son escrituras condicionales atómicas sobre la fila (guarded UPDATE);
// ninguna implementación debe depender de locks en memoria del proceso de aplicación.
type StockItemRepository interface {
	Get(ctx context.Context, skuID string) (*entity.StockItem, error)
	// GetForUpdate obtiene la fila bloqueándola hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, skuID string) (*entity.StockItem, error)

	// Reserve incrementa reserved_qty solo si quantity - reserved_qty >= qty. ErrInsufficientStock si no.
	Reserve(ctx context.Context, skuID string, qty int) (*entity.StockItem, error)
	// Release decrementa reserved_qty en min(qty, reserved_qty) y devuelve lo liberado.
	Release(ctx context.Context, skuID string, qty int) (*entity.StockItem, int, error)
	// Commit decrementa quantity y reserved_qty solo si reserved_qty >= qty. ErrReservationMismatch si no.
	Commit(ctx context.Context, skuID string, qty int) (*entity.StockItem, error)
	// Receive suma qty a quantity, creando la fila si no existe (min_stock inicial = minStock).
	Receive(ctx context.Context, skuID string, qty, minStock int) (*entity.StockItem, error)
	// Adjust aplica delta con signo solo si quantity + delta >= reserved_qty. ErrInsufficientStock si no.
	Adjust(ctx context.Context, skuID string, delta int) (*entity.StockItem, error)
	// SetLevels actualiza umbrales; no es un cambio de cantidad.
	SetLevels(ctx context.Context, skuID string, minStock int, maxStock *int) (*entity.StockItem, error)

	List(ctx context.Context, filter StockFilter, limit, offset int) ([]*entity.StockItem, error)
	Totals(ctx context.Context) (StockTotals, error)
	// Valuation devuelve cantidad y costo unitario por SKU con stock.
	Valuation(ctx context.Context) ([]StockValuationRow, error)
}
