package inventory

import (
	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
)

// ToStockItemDTO mapea el agregado a su respuesta con disponible y alerta de bajo stock.
func ToStockItemDTO(s *entity.StockItem) dto.StockItemDTO {
	return dto.StockItemDTO{
		SKUID:       s.SKUID,
		Quantity:    s.Quantity,
		ReservedQty: s.ReservedQty,
		Available:   s.Available(),
		MinStock:    s.MinStock,
		MaxStock:    s.MaxStock,
		LowStock:    s.LowStock(),
		UpdatedAt:   s.UpdatedAt,
	}
}

func ToStockItemDTOs(items []*entity.StockItem) []dto.StockItemDTO {
	out := make([]dto.StockItemDTO, 0, len(items))
	for _, s := range items {
		out = append(out, ToStockItemDTO(s))
	}
	return out
}

func ToMovementDTO(m *entity.StockMovement) dto.StockMovementDTO {
	return dto.StockMovementDTO{
		ID:           m.ID,
		SKUID:        m.SKUID,
		SerialUnitID: m.SerialUnitID,
		Type:         string(m.Type),
		Quantity:     m.Quantity,
		Reason:       string(m.Reason),
		RefType:      m.RefType,
		RefID:        m.RefID,
		Notes:        m.Notes,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}

func ToMovementDTOs(movs []*entity.StockMovement) []dto.StockMovementDTO {
	out := make([]dto.StockMovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, ToMovementDTO(m))
	}
	return out
}

func ToSerialUnitDTO(u *entity.SerialUnit) dto.SerialUnitDTO {
	return dto.SerialUnitDTO{
		ID:           u.ID,
		SKUID:        u.SKUID,
		IMEI:         u.IMEI,
		SerialNumber: u.SerialNumber,
		Status:       string(u.Status),
		Counted:      u.Counted,
		PurchaseDate: u.PurchaseDate,
		Notes:        u.Notes,
		LastRefType:  u.LastRefType,
		LastRefID:    u.LastRefID,
		UpdatedAt:    u.UpdatedAt,
	}
}

func ToSerialUnitDTOs(units []*entity.SerialUnit) []dto.SerialUnitDTO {
	out := make([]dto.SerialUnitDTO, 0, len(units))
	for _, u := range units {
		out = append(out, ToSerialUnitDTO(u))
	}
	return out
}

func ToCommitResultDTO(r *CommitResult) dto.CommitResultDTO {
	return dto.CommitResultDTO{
		SKUID:         r.SKUID,
		Quantity:      r.Quantity,
		MovementIDs:   movementIDs(r.Movements),
		SerialUnitIDs: unitIDs(r.Units),
	}
}

func ToReconciliationDTO(r dominv.Reconciliation) dto.ReconciliationDTO {
	return dto.ReconciliationDTO{
		SKUID:         r.SKUID,
		LedgerBalance: r.LedgerBalance,
		StockQuantity: r.StockQuantity,
		Drift:         r.Drift(),
		InSync:        r.InSync(),
	}
}
