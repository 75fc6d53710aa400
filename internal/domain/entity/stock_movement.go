package entity

import "time"

// MovementType dirección del movimiento.
type MovementType string

const (
	MovementTypeIN  MovementType = "IN"
	MovementTypeOUT MovementType = "OUT"
)

// MovementReason motivo de negocio del movimiento.
type MovementReason string

const (
	ReasonPurchase   MovementReason = "PURCHASE"
	ReasonSale       MovementReason = "SALE"
	ReasonReturn     MovementReason = "RETURN"
	ReasonRepair     MovementReason = "REPAIR"
	ReasonAdjustment MovementReason = "ADJUSTMENT"
	ReasonTransfer   MovementReason = "TRANSFER"
	ReasonDamaged    MovementReason = "DAMAGED"
)

// StockMovement es una fila inmutable del ledger. Nunca se actualiza ni se elimina;
// las correcciones son movimientos compensatorios.
type StockMovement struct {
	ID           string
	SKUID        string
	SerialUnitID string // vacío si el movimiento no está ligado a una unidad
	Type         MovementType
	Quantity     int // siempre > 0; el signo lo da Type
	Reason       MovementReason
	RefType      string // ORDER_ITEM, REPAIR_TICKET, RETURN, ...
	RefID        string
	Notes        string
	CreatedBy    string // UserID
	CreatedAt    time.Time
}

// SignedQuantity devuelve +Quantity para IN y -Quantity para OUT.
func (m StockMovement) SignedQuantity() int {
	if m.Type == MovementTypeOUT {
		return -m.Quantity
	}
	return m.Quantity
}
