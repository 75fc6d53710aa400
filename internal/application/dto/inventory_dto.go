package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItemDTO respuesta de GET /api/stock/:sku_id.
type StockItemDTO struct {
	SKUID       string    `json:"sku_id"`
	Quantity    int       `json:"quantity"`
	ReservedQty int       `json:"reserved_qty"`
	Available   int       `json:"available"`
	MinStock    int       `json:"min_stock"`
	MaxStock    *int      `json:"max_stock,omitempty"`
	LowStock    bool      `json:"low_stock"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QuantityRequest body para reserve/release.
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// MovementRequest body para receive/commit/adjust sobre el agregado.
// Quantity es con signo solo en adjust; en los demás debe ser positiva.
type MovementRequest struct {
	Quantity int    `json:"quantity"`
	MinStock int    `json:"min_stock,omitempty"`
	Reason   string `json:"reason,omitempty"`
	RefType  string `json:"ref_type,omitempty"`
	RefID    string `json:"ref_id,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// AdjustToRequest body para PUT /api/stock/:sku_id/quantity.
type AdjustToRequest struct {
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

// StockLevelsRequest body para PUT /api/stock/:sku_id/levels.
type StockLevelsRequest struct {
	MinStock int  `json:"min_stock"`
	MaxStock *int `json:"max_stock,omitempty"`
}

// StockMovementDTO fila del ledger.
type StockMovementDTO struct {
	ID           string    `json:"id"`
	SKUID        string    `json:"sku_id"`
	SerialUnitID string    `json:"serial_unit_id,omitempty"`
	Type         string    `json:"type"`
	Quantity     int       `json:"quantity"`
	Reason       string    `json:"reason"`
	RefType      string    `json:"ref_type,omitempty"`
	RefID        string    `json:"ref_id,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReasonTotalDTO total de unidades de un motivo en una dirección.
type ReasonTotalDTO struct {
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	Quantity int64  `json:"quantity"`
	Count    int64  `json:"count"`
}

// LedgerSumsDTO totales del ledger para reportería externa.
type LedgerSumsDTO struct {
	In       int64            `json:"in"`
	Out      int64            `json:"out"`
	Net      int64            `json:"net"`
	ByReason []ReasonTotalDTO `json:"by_reason"`
}

// ReconciliationDTO comparación ledger vs agregado de un SKU.
type ReconciliationDTO struct {
	SKUID         string `json:"sku_id"`
	LedgerBalance int    `json:"ledger_balance"`
	StockQuantity int    `json:"stock_quantity"`
	Drift         int    `json:"drift"`
	InSync        bool   `json:"in_sync"`
}

// OrderLineRequest línea de pedido recibida desde el flujo de órdenes.
type OrderLineRequest struct {
	SKUID    string `json:"sku_id"`
	Quantity int    `json:"quantity"`
	RefType  string `json:"ref_type,omitempty"`
	RefID    string `json:"ref_id"`
}

// OrderLinesRequest body de /api/reservations/{reserve,commit,release}.
type OrderLinesRequest struct {
	Lines []OrderLineRequest `json:"lines"`
}

// CommitResultDTO resultado de confirmar una línea.
type CommitResultDTO struct {
	SKUID         string   `json:"sku_id"`
	Quantity      int      `json:"quantity"`
	MovementIDs   []string `json:"movement_ids"`
	SerialUnitIDs []string `json:"serial_unit_ids,omitempty"`
}

// LineErrorDTO error de una línea dentro de un lote.
type LineErrorDTO struct {
	Index   int    `json:"index"`
	SKUID   string `json:"sku_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Applied int    `json:"applied"` // líneas previas ya aplicadas que el llamador debe compensar
}

// SerialUnitInput unidad a ingresar por IMEI.
type SerialUnitInput struct {
	IMEI         string     `json:"imei"`
	SerialNumber string     `json:"serial_number,omitempty"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// ReceiveUnitsRequest body para POST /api/serial-units/receive.
type ReceiveUnitsRequest struct {
	SKUID   string            `json:"sku_id"`
	Reason  string            `json:"reason,omitempty"`
	RefType string            `json:"ref_type,omitempty"`
	RefID   string            `json:"ref_id,omitempty"`
	Units   []SerialUnitInput `json:"units"`
}

// UnitEventRequest body para transiciones de unidades (reparación, devolución, baja...).
type UnitEventRequest struct {
	RefType string `json:"ref_type"`
	RefID   string `json:"ref_id"`
	Notes   string `json:"notes,omitempty"`
}

// SerialUnitDTO respuesta de unidades serializadas.
type SerialUnitDTO struct {
	ID           string     `json:"id"`
	SKUID        string     `json:"sku_id"`
	IMEI         string     `json:"imei"`
	SerialNumber string     `json:"serial_number,omitempty"`
	Status       string     `json:"status"`
	Counted      bool       `json:"counted"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	LastRefType  string     `json:"last_ref_type,omitempty"`
	LastRefID    string     `json:"last_ref_id,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StockSummaryDTO totales globales de stock.
type StockSummaryDTO struct {
	Quantity      int64 `json:"quantity"`
	Reserved      int64 `json:"reserved"`
	Available     int64 `json:"available"`
	LowStockItems int64 `json:"low_stock_items"`
}

// ValuationLineDTO valor de inventario de un SKU.
type ValuationLineDTO struct {
	SKUID    string          `json:"sku_id"`
	Code     string          `json:"code"`
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Value    decimal.Decimal `json:"value"` // Quantity * UnitCost
}

// ValuationDTO valorización total del inventario.
type ValuationDTO struct {
	Lines []ValuationLineDTO `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

// SerialCountsDTO conteo de unidades por estado para un SKU.
type SerialCountsDTO struct {
	SKUID  string         `json:"sku_id"`
	Counts map[string]int `json:"counts"`
}
