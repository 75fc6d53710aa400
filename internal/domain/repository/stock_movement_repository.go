package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// MovementFilter filtros del historial de movimientos. Campos vacíos/nil no filtran.
type MovementFilter struct {
	SKUID   string
	RefType string
	RefID   string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// ReasonSum total de unidades por (tipo, motivo).
type ReasonSum struct {
	Type     entity.MovementType
	Reason   entity.MovementReason
	Quantity int64
	Count    int64
}

// StockMovementRepository puerto del ledger append-only. No expone Update ni Delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// List devuelve movimientos ordenados por created_at ascendente.
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	ListBySerialUnit(ctx context.Context, serialUnitID string) ([]*entity.StockMovement, error)
	// Sums agrega cantidades por tipo y motivo (reportería externa).
	Sums(ctx context.Context, filter MovementFilter) ([]ReasonSum, error)
	// SignedBalance suma con signo todos los movimientos de un SKU.
	SignedBalance(ctx context.Context, skuID string) (int, error)
}
