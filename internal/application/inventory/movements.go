package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

// MovementInput datos de negocio que acompañan una mutación del agregado.
type MovementInput struct {
	Reason    entity.MovementReason
	RefType   string
	RefID     string
	Notes     string
	CreatedBy string
}

// appendMovement valida el par (tipo, motivo) y agrega la fila al ledger con el repo de la tx.
func appendMovement(ctx context.Context, movRepo repository.StockMovementRepository, m *entity.StockMovement) error {
	if err := dominv.ValidateMovement(m); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return movRepo.Create(ctx, m)
}

func newMovement(skuID string, t entity.MovementType, qty int, in MovementInput, unitID string) *entity.StockMovement {
	return &entity.StockMovement{
		SKUID:        skuID,
		SerialUnitID: unitID,
		Type:         t,
		Quantity:     qty,
		Reason:       in.Reason,
		RefType:      in.RefType,
		RefID:        in.RefID,
		Notes:        in.Notes,
		CreatedBy:    in.CreatedBy,
	}
}

// appendPerUnit escribe una fila por unidad (cantidad 1) o una sola fila por qty si no hay unidades.
func appendPerUnit(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	skuID string, t entity.MovementType, qty int, in MovementInput, unitIDs []string,
) ([]*entity.StockMovement, error) {
	if len(unitIDs) == 0 {
		m := newMovement(skuID, t, qty, in, "")
		if err := appendMovement(ctx, movRepo, m); err != nil {
			return nil, err
		}
		return []*entity.StockMovement{m}, nil
	}
	if len(unitIDs) != qty {
		return nil, domain.ErrInvalidMovement
	}
	out := make([]*entity.StockMovement, 0, len(unitIDs))
	for _, id := range unitIDs {
		m := newMovement(skuID, t, 1, in, id)
		if err := appendMovement(ctx, movRepo, m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// validateDirection rechaza antes de tocar el agregado un motivo incompatible con la dirección.
func validateDirection(skuID string, t entity.MovementType, in MovementInput) error {
	return dominv.ValidateMovement(newMovement(skuID, t, 1, in, ""))
}

// commitInTx descuenta quantity y reserved_qty y escribe las filas OUT en la misma transacción.
func commitInTx(
	ctx context.Context,
	stockRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
	skuID string, qty int, in MovementInput, unitIDs []string,
) (*entity.StockItem, []*entity.StockMovement, error) {
	if in.Reason == "" {
		in.Reason = entity.ReasonSale
	}
	if err := validateDirection(skuID, entity.MovementTypeOUT, in); err != nil {
		return nil, nil, err
	}
	item, err := stockRepo.Commit(ctx, skuID, qty)
	if err != nil {
		return nil, nil, err
	}
	movs, err := appendPerUnit(ctx, movRepo, skuID, entity.MovementTypeOUT, qty, in, unitIDs)
	if err != nil {
		return nil, nil, err
	}
	return item, movs, nil
}

// receiveInTx suma qty al agregado (creándolo si no existe) y escribe las filas IN.
func receiveInTx(
	ctx context.Context,
	stockRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
	skuID string, qty, minStock int, in MovementInput, unitIDs []string,
) (*entity.StockItem, []*entity.StockMovement, error) {
	if in.Reason == "" {
		in.Reason = entity.ReasonPurchase
	}
	if err := validateDirection(skuID, entity.MovementTypeIN, in); err != nil {
		return nil, nil, err
	}
	item, err := stockRepo.Receive(ctx, skuID, qty, minStock)
	if err != nil {
		return nil, nil, err
	}
	movs, err := appendPerUnit(ctx, movRepo, skuID, entity.MovementTypeIN, qty, in, unitIDs)
	if err != nil {
		return nil, nil, err
	}
	return item, movs, nil
}

// adjustInTx aplica una corrección con signo; delta > 0 es IN, delta < 0 es OUT.
func adjustInTx(
	ctx context.Context,
	stockRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
	skuID string, delta int, in MovementInput, unitID string,
) (*entity.StockItem, *entity.StockMovement, error) {
	if delta == 0 {
		return nil, nil, domain.ErrInvalidMovement
	}
	if in.Reason == "" {
		in.Reason = entity.ReasonAdjustment
	}
	t, qty := entity.MovementTypeIN, delta
	if delta < 0 {
		t, qty = entity.MovementTypeOUT, -delta
	}
	if err := validateDirection(skuID, t, in); err != nil {
		return nil, nil, err
	}
	item, err := stockRepo.Adjust(ctx, skuID, delta)
	if err != nil {
		return nil, nil, err
	}
	m := newMovement(skuID, t, qty, in, unitID)
	if err := appendMovement(ctx, movRepo, m); err != nil {
		return nil, nil, err
	}
	return item, m, nil
}

func movementIDs(movs []*entity.StockMovement) []string {
	ids := make([]string, 0, len(movs))
	for _, m := range movs {
		ids = append(ids, m.ID)
	}
	return ids
}
