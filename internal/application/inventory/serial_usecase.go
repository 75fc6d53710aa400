package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
)

// UnitInput datos de una unidad física al ingresar a inventario.
type UnitInput struct {
	IMEI         string
	SerialNumber string
	PurchaseDate *time.Time
	Notes        string
}

// UnitEventInput referencia del evento de negocio (ticket, devolución, acta de baja).
type UnitEventInput struct {
	RefType   string
	RefID     string
	Notes     string
	CreatedBy string
}

// SerialUnitUseCase ciclo de vida de unidades serializadas.
// La venta (IN_STOCK -> SOLD) solo ocurre reclamando unidades desde Coordinator.Commit.
type SerialUnitUseCase struct {
	txRunner  TxRunner
	skuRepo   repository.SKURepository
	unitRepo  repository.SerialUnitRepository
	publisher EventPublisher
	log       *logger.Logger
}

// NewSerialUnitUseCase construye el caso de uso.
func NewSerialUnitUseCase(
	txRunner TxRunner,
	skuRepo repository.SKURepository,
	unitRepo repository.SerialUnitRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *SerialUnitUseCase {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &SerialUnitUseCase{
		txRunner:  txRunner,
		skuRepo:   skuRepo,
		unitRepo:  unitRepo,
		publisher: publisher,
		log:       log,
	}
}

// ReceiveUnits registra unidades IN_STOCK, suma len(units) al agregado y escribe una fila IN por unidad.
// Un IMEI repetido (en el lote o ya existente) revierte el lote completo con ErrDuplicate.
func (uc *SerialUnitUseCase) ReceiveUnits(ctx context.Context, skuID string, units []UnitInput, in MovementInput) (created []*entity.SerialUnit, err error) {
	ctx, span := startSpan(ctx, "serial.receive_units", attribute.String("sku.id", skuID), attribute.Int("units", len(units)))
	defer func() { endSpan(span, err) }()

	if skuID == "" || len(units) == 0 {
		return nil, domain.ErrInvalidInput
	}
	sku, err := uc.skuRepo.GetByID(ctx, skuID)
	if err != nil {
		return nil, err
	}
	if !sku.Serialized {
		return nil, fmt.Errorf("%w: SKU no serializado", domain.ErrInvalidInput)
	}
	switch in.Reason {
	case "":
		in.Reason = entity.ReasonPurchase
	case entity.ReasonPurchase, entity.ReasonTransfer, entity.ReasonAdjustment:
	default:
		return nil, fmt.Errorf("%w: motivo %s no válido para ingreso de unidades", domain.ErrInvalidMovement, in.Reason)
	}

	seen := make(map[string]struct{}, len(units))
	now := time.Now().UTC()
	created = make([]*entity.SerialUnit, 0, len(units))
	for _, u := range units {
		imei := strings.TrimSpace(u.IMEI)
		if imei == "" {
			return nil, fmt.Errorf("%w: IMEI requerido", domain.ErrInvalidInput)
		}
		if _, dup := seen[imei]; dup {
			return nil, fmt.Errorf("%w: IMEI %s repetido en el lote", domain.ErrDuplicate, imei)
		}
		seen[imei] = struct{}{}
		created = append(created, &entity.SerialUnit{
			ID:           uuid.New().String(),
			SKUID:        skuID,
			IMEI:         imei,
			SerialNumber: u.SerialNumber,
			Status:       entity.SerialInStock,
			Counted:      true,
			PurchaseDate: u.PurchaseDate,
			Notes:        u.Notes,
			LastRefType:  in.RefType,
			LastRefID:    in.RefID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	var item *entity.StockItem
	var movs []*entity.StockMovement
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		unitRepo repository.SerialUnitRepository,
	) error {
		ids := make([]string, 0, len(created))
		for _, u := range created {
			if err := unitRepo.Create(ctx, u); err != nil {
				return err
			}
			ids = append(ids, u.ID)
		}
		var txErr error
		item, movs, txErr = receiveInTx(ctx, stockRepo, movRepo, skuID, len(created), 0, in, ids)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("sku_id", skuID).Int("units", len(created)).Msg("unidades serializadas ingresadas")
	publishEvent(ctx, uc.publisher, uc.log, StockEvent{
		Type: EventStockReceived, SKUID: skuID, Quantity: len(created),
		RefType: in.RefType, RefID: in.RefID,
		MovementIDs: movementIDs(movs), SerialUnitIDs: unitIDs(created),
	}, item)
	return created, nil
}

// OpenRepair abre un ticket de reparación (SOLD o IN_STOCK -> REPAIR).
func (uc *SerialUnitUseCase) OpenRepair(ctx context.Context, unitID string, in UnitEventInput) (*entity.SerialUnit, error) {
	return uc.applyEvent(ctx, unitID, dominv.UnitEventRepairOpen, in)
}

// CompleteRepair cierra la reparación (REPAIR -> IN_STOCK).
func (uc *SerialUnitUseCase) CompleteRepair(ctx context.Context, unitID string, in UnitEventInput) (*entity.SerialUnit, error) {
	return uc.applyEvent(ctx, unitID, dominv.UnitEventRepairComplete, in)
}

// Return registra una devolución del cliente (SOLD o REPAIR -> RETURNED).
func (uc *SerialUnitUseCase) Return(ctx context.Context, unitID string, in UnitEventInput) (*entity.SerialUnit, error) {
	return uc.applyEvent(ctx, unitID, dominv.UnitEventReturn, in)
}

// Inspect reintegra a stock una unidad devuelta e inspeccionada (RETURNED -> IN_STOCK).
func (uc *SerialUnitUseCase) Inspect(ctx context.Context, unitID string, in UnitEventInput) (*entity.SerialUnit, error) {
	return uc.applyEvent(ctx, unitID, dominv.UnitEventInspection, in)
}

// WriteOff da de baja la unidad (cualquier estado salvo LOST -> LOST).
func (uc *SerialUnitUseCase) WriteOff(ctx context.Context, unitID string, in UnitEventInput) (*entity.SerialUnit, error) {
	return uc.applyEvent(ctx, unitID, dominv.UnitEventWriteOff, in)
}

// applyEvent planifica la transición y la aplica en una transacción junto con su fila de ledger
// y el cambio de cantidad, si lo hay. La escritura de estado está condicionada al estado leído.
func (uc *SerialUnitUseCase) applyEvent(ctx context.Context, unitID string, ev dominv.UnitEvent, in UnitEventInput) (unit *entity.SerialUnit, err error) {
	ctx, span := startSpan(ctx, "serial.transition", attribute.String("serial_unit.id", unitID), attribute.String("event", string(ev)))
	defer func() { endSpan(span, err) }()

	if unitID == "" {
		return nil, domain.ErrInvalidInput
	}
	if ev == dominv.UnitEventSale {
		return nil, fmt.Errorf("%w: la venta se registra al confirmar el pedido", domain.ErrInvalidTransition)
	}
	if in.RefType == "" || in.RefID == "" {
		return nil, fmt.Errorf("%w: se requiere evento de negocio (ref_type/ref_id)", domain.ErrInvalidTransition)
	}
	ref := repository.UnitRef{RefType: in.RefType, RefID: in.RefID}

	var item *entity.StockItem
	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		unitRepo repository.SerialUnitRepository,
	) error {
		current, txErr := unitRepo.GetByID(ctx, unitID)
		if txErr != nil {
			return txErr
		}
		plan, txErr := dominv.PlanTransition(current, ev)
		if txErr != nil {
			return txErr
		}
		unit, txErr = unitRepo.Transition(ctx, unitID, plan.From, plan.To, plan.Counted, ref)
		if txErr != nil {
			return txErr
		}
		if plan.Movement == nil {
			return nil
		}
		delta := 1
		if plan.Movement.Type == entity.MovementTypeOUT {
			delta = -1
		}
		item, mov, txErr = adjustInTx(ctx, stockRepo, movRepo, unit.SKUID, delta, MovementInput{
			Reason:    plan.Movement.Reason,
			RefType:   in.RefType,
			RefID:     in.RefID,
			Notes:     in.Notes,
			CreatedBy: in.CreatedBy,
		}, unit.ID)
		return txErr
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("serial_unit_id", unitID).Str("event", string(ev)).Msg("transición de unidad rechazada")
		return nil, err
	}

	evt := StockEvent{
		Type: EventUnitTransitioned, SKUID: unit.SKUID,
		RefType: in.RefType, RefID: in.RefID, SerialUnitIDs: []string{unit.ID},
	}
	if mov != nil {
		evt.Quantity = mov.SignedQuantity()
		evt.MovementIDs = []string{mov.ID}
	}
	publishEvent(ctx, uc.publisher, uc.log, evt, item)
	return unit, nil
}

// GetByID obtiene una unidad por id.
func (uc *SerialUnitUseCase) GetByID(ctx context.Context, id string) (*entity.SerialUnit, error) {
	return uc.unitRepo.GetByID(ctx, id)
}

// GetByIMEI obtiene una unidad por IMEI.
func (uc *SerialUnitUseCase) GetByIMEI(ctx context.Context, imei string) (*entity.SerialUnit, error) {
	if strings.TrimSpace(imei) == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.unitRepo.GetByIMEI(ctx, strings.TrimSpace(imei))
}

// ListBySKU unidades de un SKU.
func (uc *SerialUnitUseCase) ListBySKU(ctx context.Context, skuID string) ([]*entity.SerialUnit, error) {
	return uc.unitRepo.ListBySKU(ctx, skuID)
}

// ListByStatus unidades en un estado, paginadas.
func (uc *SerialUnitUseCase) ListByStatus(ctx context.Context, status entity.SerialStatus, limit, offset int) ([]*entity.SerialUnit, error) {
	switch status {
	case entity.SerialInStock, entity.SerialSold, entity.SerialRepair, entity.SerialLost, entity.SerialReturned:
	default:
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	return uc.unitRepo.ListByStatus(ctx, status, limit, offset)
}

// CountInStock unidades reclamables del SKU.
func (uc *SerialUnitUseCase) CountInStock(ctx context.Context, skuID string) (int, error) {
	return uc.unitRepo.CountByStatus(ctx, skuID, entity.SerialInStock)
}

func unitIDs(units []*entity.SerialUnit) []string {
	ids := make([]string, 0, len(units))
	for _, u := range units {
		ids = append(ids, u.ID)
	}
	return ids
}
