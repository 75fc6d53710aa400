package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que la mutación del agregado y la fila del ledger se confirman juntas o no se confirman.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		unitRepo repository.SerialUnitRepository,
	) error) error
}

// StockEventType tipo de evento publicado tras una transacción confirmada.
type StockEventType string

const (
	EventStockReserved    StockEventType = "stock.reserved"
	EventStockReleased    StockEventType = "stock.released"
	EventStockCommitted   StockEventType = "stock.committed"
	EventStockReceived    StockEventType = "stock.received"
	EventStockAdjusted    StockEventType = "stock.adjusted"
	EventUnitTransitioned StockEventType = "serial_unit.transitioned"
)

// StockEvent notificación de un cambio de stock ya confirmado.
type StockEvent struct {
	Type          StockEventType `json:"type"`
	SKUID         string         `json:"sku_id"`
	Quantity      int            `json:"quantity"`
	RefType       string         `json:"ref_type,omitempty"`
	RefID         string         `json:"ref_id,omitempty"`
	MovementIDs   []string       `json:"movement_ids,omitempty"`
	SerialUnitIDs []string       `json:"serial_unit_ids,omitempty"`
	StockQuantity int            `json:"stock_quantity"`
	ReservedQty   int            `json:"reserved_qty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// EventPublisher publica eventos de stock hacia otros sistemas (Kafka en producción).
// Un fallo al publicar nunca revierte el cambio ya confirmado.
type EventPublisher interface {
	Publish(ctx context.Context, event StockEvent) error
}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, StockEvent) error { return nil }
