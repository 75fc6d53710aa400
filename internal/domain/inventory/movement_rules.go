package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// allowedTypes tabla exhaustiva motivo -> direcciones permitidas.
// REPAIR/TRANSFER/ADJUSTMENT admiten ambas direcciones (salida a reparación, traslado saliente, ajuste negativo).
var allowedTypes = map[entity.MovementReason][]entity.MovementType{
	entity.ReasonPurchase:   {entity.MovementTypeIN},
	entity.ReasonSale:       {entity.MovementTypeOUT},
	entity.ReasonReturn:     {entity.MovementTypeIN},
	entity.ReasonRepair:     {entity.MovementTypeIN, entity.MovementTypeOUT},
	entity.ReasonAdjustment: {entity.MovementTypeIN, entity.MovementTypeOUT},
	entity.ReasonTransfer:   {entity.MovementTypeIN, entity.MovementTypeOUT},
	entity.ReasonDamaged:    {entity.MovementTypeOUT},
}

// ValidateMovement verifica cantidad positiva y que el par (tipo, motivo) sea consistente.
// Devuelve un error que envuelve domain.ErrInvalidMovement.
func ValidateMovement(m *entity.StockMovement) error {
	if m == nil {
		return domain.ErrInvalidMovement
	}
	if m.SKUID == "" {
		return fmt.Errorf("%w: sku requerido", domain.ErrInvalidMovement)
	}
	if m.Quantity <= 0 {
		return fmt.Errorf("%w: cantidad debe ser positiva (%d)", domain.ErrInvalidMovement, m.Quantity)
	}
	if m.Type != entity.MovementTypeIN && m.Type != entity.MovementTypeOUT {
		return fmt.Errorf("%w: tipo desconocido %q", domain.ErrInvalidMovement, m.Type)
	}
	types, ok := allowedTypes[m.Reason]
	if !ok {
		return fmt.Errorf("%w: motivo desconocido %q", domain.ErrInvalidMovement, m.Reason)
	}
	for _, t := range types {
		if t == m.Type {
			return nil
		}
	}
	return fmt.Errorf("%w: motivo %s no admite tipo %s", domain.ErrInvalidMovement, m.Reason, m.Type)
}

// ParseReason convierte texto externo en MovementReason conocido.
func ParseReason(s string) (entity.MovementReason, error) {
	r := entity.MovementReason(s)
	if _, ok := allowedTypes[r]; !ok {
		return "", fmt.Errorf("%w: motivo desconocido %q", domain.ErrInvalidMovement, s)
	}
	return r, nil
}
