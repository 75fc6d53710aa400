package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// UnitEvent evento de negocio que provoca un cambio de estado de una unidad serializada.
type UnitEvent string

const (
	UnitEventSale           UnitEvent = "SALE"
	UnitEventRepairOpen     UnitEvent = "REPAIR_OPEN"
	UnitEventRepairComplete UnitEvent = "REPAIR_COMPLETE"
	UnitEventReturn         UnitEvent = "RETURN"
	UnitEventInspection     UnitEvent = "INSPECTION"
	UnitEventWriteOff       UnitEvent = "WRITE_OFF"
)

// UnitMovement movimiento de ledger que acompaña una transición (cantidad siempre 1).
type UnitMovement struct {
	Type   entity.MovementType
	Reason entity.MovementReason
}

// Transition resultado de planificar un evento sobre una unidad.
// Movement es nil cuando la transición no cambia la cantidad del agregado.
type Transition struct {
	From     entity.SerialStatus
	To       entity.SerialStatus
	Counted  bool
	Movement *UnitMovement
}

// PlanTransition calcula el estado destino y el movimiento asociado para (unidad, evento).
// No muta la unidad; el llamador aplica la transición con una escritura condicionada a From.
func PlanTransition(u *entity.SerialUnit, ev UnitEvent) (Transition, error) {
	t := Transition{From: u.Status, Counted: u.Counted}
	invalid := fmt.Errorf("%w: %s desde %s", domain.ErrInvalidTransition, ev, u.Status)

	switch ev {
	case UnitEventSale:
		if u.Status != entity.SerialInStock {
			return t, invalid
		}
		t.To = entity.SerialSold
		t.Counted = false
		t.Movement = &UnitMovement{Type: entity.MovementTypeOUT, Reason: entity.ReasonSale}

	case UnitEventRepairOpen:
		// SOLD: unidad del cliente, no afecta stock. IN_STOCK: reparación interna, sale del stock.
		if u.Status != entity.SerialSold && u.Status != entity.SerialInStock {
			return t, invalid
		}
		t.To = entity.SerialRepair
		if u.Counted {
			t.Counted = false
			t.Movement = &UnitMovement{Type: entity.MovementTypeOUT, Reason: entity.ReasonRepair}
		}

	case UnitEventRepairComplete:
		if u.Status != entity.SerialRepair {
			return t, invalid
		}
		t.To = entity.SerialInStock
		if !u.Counted {
			t.Counted = true
			t.Movement = &UnitMovement{Type: entity.MovementTypeIN, Reason: entity.ReasonRepair}
		}

	case UnitEventReturn:
		if u.Status != entity.SerialSold && u.Status != entity.SerialRepair {
			return t, invalid
		}
		t.To = entity.SerialReturned
		if !u.Counted {
			t.Counted = true
			t.Movement = &UnitMovement{Type: entity.MovementTypeIN, Reason: entity.ReasonReturn}
		}

	case UnitEventInspection:
		if u.Status != entity.SerialReturned {
			return t, invalid
		}
		t.To = entity.SerialInStock

	case UnitEventWriteOff:
		if u.Status == entity.SerialLost {
			return t, invalid
		}
		t.To = entity.SerialLost
		if u.Counted {
			t.Movement = &UnitMovement{Type: entity.MovementTypeOUT, Reason: entity.ReasonDamaged}
		}
		t.Counted = false

	default:
		return t, fmt.Errorf("%w: evento desconocido %q", domain.ErrInvalidTransition, ev)
	}
	return t, nil
}
