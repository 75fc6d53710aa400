package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
)

// StockUseCase opera el agregado de stock por SKU (reserve, release, commit, receive, adjust).
// Cada mutación es una escritura condicional sobre la fila y se confirma junto con su fila de ledger.
type StockUseCase struct {
	txRunner  TxRunner
	skuRepo   repository.SKURepository
	stockRepo repository.StockItemRepository
	publisher EventPublisher
	log       *logger.Logger
}

// NewStockUseCase construye el caso de uso. publisher puede ser nil (no se publican eventos).
func NewStockUseCase(
	txRunner TxRunner,
	skuRepo repository.SKURepository,
	stockRepo repository.StockItemRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *StockUseCase {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &StockUseCase{
		txRunner:  txRunner,
		skuRepo:   skuRepo,
		stockRepo: stockRepo,
		publisher: publisher,
		log:       log,
	}
}

// Reserve incrementa reserved_qty si hay disponible suficiente; ErrInsufficientStock si no.
func (uc *StockUseCase) Reserve(ctx context.Context, skuID string, qty int) (item *entity.StockItem, err error) {
	ctx, span := startSpan(ctx, "stock.reserve", attribute.String("sku.id", skuID), attribute.Int("qty", qty))
	defer func() { endSpan(span, err) }()

	if qty <= 0 {
		return nil, domain.ErrInvalidInput
	}
	sku, err := uc.getSKU(ctx, skuID)
	if err != nil {
		return nil, err
	}
	if !sku.Active {
		return nil, fmt.Errorf("%w: SKU inactivo", domain.ErrInvalidInput)
	}
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		_ repository.StockMovementRepository,
		_ repository.SerialUnitRepository,
	) error {
		var txErr error
		item, txErr = stockRepo.Reserve(ctx, skuID, qty)
		return txErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			uc.log.Warn().Str("sku_id", skuID).Int("qty", qty).Msg("reserva rechazada: stock insuficiente")
		}
		return nil, err
	}
	uc.publish(ctx, StockEvent{Type: EventStockReserved, SKUID: skuID, Quantity: qty}, item)
	return item, nil
}

// Release decrementa reserved_qty en min(qty, reserved_qty). Nunca deja la reserva negativa.
func (uc *StockUseCase) Release(ctx context.Context, skuID string, qty int) (item *entity.StockItem, err error) {
	ctx, span := startSpan(ctx, "stock.release", attribute.String("sku.id", skuID), attribute.Int("qty", qty))
	defer func() { endSpan(span, err) }()

	if qty <= 0 {
		return nil, domain.ErrInvalidInput
	}
	var released int
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		_ repository.StockMovementRepository,
		_ repository.SerialUnitRepository,
	) error {
		var txErr error
		item, released, txErr = stockRepo.Release(ctx, skuID, qty)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	if released > 0 {
		uc.publish(ctx, StockEvent{Type: EventStockReleased, SKUID: skuID, Quantity: released}, item)
	}
	return item, nil
}

// Commit descuenta quantity y reserved_qty en qty y registra una fila OUT (por defecto SALE).
// ErrReservationMismatch si reserved_qty < qty. Para SKUs serializados usar Coordinator.Commit.
func (uc *StockUseCase) Commit(ctx context.Context, skuID string, qty int, in MovementInput) (m *entity.StockMovement, err error) {
	ctx, span := startSpan(ctx, "stock.commit", attribute.String("sku.id", skuID), attribute.Int("qty", qty))
	defer func() { endSpan(span, err) }()

	if qty <= 0 {
		return nil, domain.ErrInvalidMovement
	}
	sku, err := uc.getSKU(ctx, skuID)
	if err != nil {
		return nil, err
	}
	if sku.Serialized {
		return nil, fmt.Errorf("%w: SKU serializado, confirmar por unidades", domain.ErrInvalidInput)
	}
	var item *entity.StockItem
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		_ repository.SerialUnitRepository,
	) error {
		var movs []*entity.StockMovement
		var txErr error
		item, movs, txErr = commitInTx(ctx, stockRepo, movRepo, skuID, qty, in, nil)
		if txErr != nil {
			return txErr
		}
		m = movs[0]
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrReservationMismatch) {
			uc.log.Error().Err(err).Str("sku_id", skuID).Int("qty", qty).
				Str("ref_type", in.RefType).Str("ref_id", in.RefID).Msg("commit excede la reserva vigente")
		}
		return nil, err
	}
	uc.publish(ctx, StockEvent{
		Type: EventStockCommitted, SKUID: skuID, Quantity: qty,
		RefType: in.RefType, RefID: in.RefID, MovementIDs: []string{m.ID},
	}, item)
	return m, nil
}

// Receive suma qty a quantity (crea el StockItem si es la primera entrada) y registra una fila IN.
// minStock solo se usa al crear la fila. Los SKUs serializados ingresan por SerialUnitUseCase.ReceiveUnits.
func (uc *StockUseCase) Receive(ctx context.Context, skuID string, qty, minStock int, in MovementInput) (m *entity.StockMovement, err error) {
	ctx, span := startSpan(ctx, "stock.receive", attribute.String("sku.id", skuID), attribute.Int("qty", qty))
	defer func() { endSpan(span, err) }()

	if qty <= 0 || minStock < 0 {
		return nil, domain.ErrInvalidMovement
	}
	sku, err := uc.getSKU(ctx, skuID)
	if err != nil {
		return nil, err
	}
	if sku.Serialized {
		return nil, fmt.Errorf("%w: SKU serializado, registrar unidades por IMEI", domain.ErrInvalidInput)
	}
	var item *entity.StockItem
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		_ repository.SerialUnitRepository,
	) error {
		var movs []*entity.StockMovement
		var txErr error
		item, movs, txErr = receiveInTx(ctx, stockRepo, movRepo, skuID, qty, minStock, in, nil)
		if txErr != nil {
			return txErr
		}
		m = movs[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("sku_id", skuID).Int("qty", qty).Str("reason", string(m.Reason)).Msg("entrada de stock registrada")
	uc.publish(ctx, StockEvent{
		Type: EventStockReceived, SKUID: skuID, Quantity: qty,
		RefType: in.RefType, RefID: in.RefID, MovementIDs: []string{m.ID},
	}, item)
	return m, nil
}

// Adjust aplica una corrección con signo y registra una fila ADJUSTMENT (o DAMAGED, solo salida).
// La cantidad resultante no puede quedar por debajo de reserved_qty (ErrInsufficientStock).
func (uc *StockUseCase) Adjust(ctx context.Context, skuID string, delta int, in MovementInput) (m *entity.StockMovement, err error) {
	ctx, span := startSpan(ctx, "stock.adjust", attribute.String("sku.id", skuID), attribute.Int("delta", delta))
	defer func() { endSpan(span, err) }()

	if delta == 0 {
		return nil, domain.ErrInvalidMovement
	}
	if err = uc.requireBulkSKU(ctx, skuID); err != nil {
		return nil, err
	}
	switch in.Reason {
	case "":
		in.Reason = entity.ReasonAdjustment
	case entity.ReasonAdjustment, entity.ReasonDamaged:
	default:
		return nil, fmt.Errorf("%w: motivo %s no válido para ajuste", domain.ErrInvalidMovement, in.Reason)
	}
	var item *entity.StockItem
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		_ repository.SerialUnitRepository,
	) error {
		var txErr error
		item, m, txErr = adjustInTx(ctx, stockRepo, movRepo, skuID, delta, in, "")
		return txErr
	})
	if err != nil {
		return nil, err
	}
	uc.publishAdjusted(ctx, m, item)
	return m, nil
}

// AdjustTo lleva quantity a newQuantity calculando el delta dentro de la misma transacción.
// Si no hay diferencia no se escribe nada y m es nil.
func (uc *StockUseCase) AdjustTo(ctx context.Context, skuID string, newQuantity int, in MovementInput) (m *entity.StockMovement, err error) {
	ctx, span := startSpan(ctx, "stock.adjust_to", attribute.String("sku.id", skuID), attribute.Int("quantity", newQuantity))
	defer func() { endSpan(span, err) }()

	if newQuantity < 0 {
		return nil, domain.ErrInvalidMovement
	}
	if err = uc.requireBulkSKU(ctx, skuID); err != nil {
		return nil, err
	}
	in.Reason = entity.ReasonAdjustment
	var item *entity.StockItem
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		_ repository.SerialUnitRepository,
	) error {
		current, txErr := stockRepo.GetForUpdate(ctx, skuID)
		if txErr != nil {
			return txErr
		}
		delta := newQuantity - current.Quantity
		if delta == 0 {
			item = current
			return nil
		}
		if newQuantity < current.ReservedQty {
			return domain.ErrInsufficientStock
		}
		item, m, txErr = adjustInTx(ctx, stockRepo, movRepo, skuID, delta, in, "")
		return txErr
	})
	if err != nil {
		return nil, err
	}
	if m != nil {
		uc.publishAdjusted(ctx, m, item)
	}
	return m, nil
}

// SetStockLevels actualiza los umbrales min/max. No altera cantidades ni escribe en el ledger.
func (uc *StockUseCase) SetStockLevels(ctx context.Context, skuID string, minStock int, maxStock *int) (*entity.StockItem, error) {
	if minStock < 0 || (maxStock != nil && *maxStock < minStock) {
		return nil, domain.ErrInvalidInput
	}
	return uc.stockRepo.SetLevels(ctx, skuID, minStock, maxStock)
}

// GetStock devuelve el agregado de un SKU.
func (uc *StockUseCase) GetStock(ctx context.Context, skuID string) (*entity.StockItem, error) {
	return uc.stockRepo.Get(ctx, skuID)
}

// ListStock lista agregados según filtro (bajo stock, agotados, con stock, con reservas).
func (uc *StockUseCase) ListStock(ctx context.Context, filter repository.StockFilter, limit, offset int) ([]*entity.StockItem, error) {
	switch filter {
	case repository.StockFilterAll, repository.StockFilterLow, repository.StockFilterOut,
		repository.StockFilterIn, repository.StockFilterReservation:
	default:
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	return uc.stockRepo.List(ctx, filter, limit, offset)
}

func (uc *StockUseCase) getSKU(ctx context.Context, skuID string) (*entity.SKU, error) {
	if skuID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.skuRepo.GetByID(ctx, skuID)
}

// requireBulkSKU rechaza SKUs serializados: su quantity solo cambia con las transiciones de unidades.
func (uc *StockUseCase) requireBulkSKU(ctx context.Context, skuID string) error {
	sku, err := uc.getSKU(ctx, skuID)
	if err != nil {
		return err
	}
	if sku.Serialized {
		return fmt.Errorf("%w: SKU serializado, corregir por unidades (ingreso o baja)", domain.ErrInvalidInput)
	}
	return nil
}

func (uc *StockUseCase) publishAdjusted(ctx context.Context, m *entity.StockMovement, item *entity.StockItem) {
	uc.publish(ctx, StockEvent{
		Type: EventStockAdjusted, SKUID: m.SKUID, Quantity: m.SignedQuantity(),
		RefType: m.RefType, RefID: m.RefID, MovementIDs: []string{m.ID},
	}, item)
}

func (uc *StockUseCase) publish(ctx context.Context, ev StockEvent, item *entity.StockItem) {
	publishEvent(ctx, uc.publisher, uc.log, ev, item)
}

// publishEvent completa el snapshot del agregado y publica; los errores solo se registran.
func publishEvent(ctx context.Context, p EventPublisher, log *logger.Logger, ev StockEvent, item *entity.StockItem) {
	if item != nil {
		ev.StockQuantity = item.Quantity
		ev.ReservedQty = item.ReservedQty
	}
	ev.OccurredAt = time.Now().UTC()
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", string(ev.Type)).Str("sku_id", ev.SKUID).Msg("no se pudo publicar evento de stock")
	}
}
