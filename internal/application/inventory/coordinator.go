package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/pkg/logger"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultOrderRefType tipo de referencia usado cuando la línea no trae uno.
const DefaultOrderRefType = "ORDER_ITEM"

// OrderLine llamada del flujo de pedidos para una línea: SKU, cantidad y referencia de la línea.
type OrderLine struct {
	SKUID     string
	Quantity  int
	RefType   string
	RefID     string
	CreatedBy string
}

func (l *OrderLine) normalize() error {
	if l.SKUID == "" || l.RefID == "" {
		return fmt.Errorf("%w: sku_id y ref_id son requeridos", domain.ErrInvalidInput)
	}
	if l.Quantity <= 0 {
		return fmt.Errorf("%w: cantidad debe ser positiva", domain.ErrInvalidInput)
	}
	if l.RefType == "" {
		l.RefType = DefaultOrderRefType
	}
	return nil
}

// CommitResult lo que quedó registrado al confirmar una línea.
type CommitResult struct {
	SKUID     string
	Quantity  int
	Movements []*entity.StockMovement
	Units     []*entity.SerialUnit // vacío para SKUs no serializados
	Stock     *entity.StockItem
}

// LineError error de la línea Index de un lote. Las líneas anteriores quedaron aplicadas.
type LineError struct {
	Index int
	Line  OrderLine
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("línea %d (sku %s): %v", e.Index, e.Line.SKUID, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Coordinator orquesta reserve -> commit/release de una línea de pedido sobre el agregado,
// el ledger y las unidades serializadas. Nunca reintenta: la compensación es del llamador.
type Coordinator struct {
	txRunner  TxRunner
	skuRepo   repository.SKURepository
	publisher EventPublisher
	log       *logger.Logger
}

// NewCoordinator construye el coordinador.
func NewCoordinator(txRunner TxRunner, skuRepo repository.SKURepository, publisher EventPublisher, log *logger.Logger) *Coordinator {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Coordinator{txRunner: txRunner, skuRepo: skuRepo, publisher: publisher, log: log}
}

// Reserve reserva la cantidad de la línea. Para SKUs serializados además exige que existan al menos
// Quantity unidades IN_STOCK en ese momento; las unidades no quedan apartadas individualmente.
func (c *Coordinator) Reserve(ctx context.Context, line OrderLine) (item *entity.StockItem, err error) {
	ctx, span := startSpan(ctx, "coordinator.reserve", lineAttrs(line)...)
	defer func() { endSpan(span, err) }()

	if err = line.normalize(); err != nil {
		return nil, err
	}
	sku, err := c.activeSKU(ctx, line.SKUID)
	if err != nil {
		return nil, err
	}
	err = c.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		_ repository.StockMovementRepository,
		unitRepo repository.SerialUnitRepository,
	) error {
		var txErr error
		item, txErr = stockRepo.Reserve(ctx, line.SKUID, line.Quantity)
		if txErr != nil {
			return txErr
		}
		if !sku.Serialized {
			return nil
		}
		inStock, txErr := unitRepo.CountByStatus(ctx, line.SKUID, entity.SerialInStock)
		if txErr != nil {
			return txErr
		}
		if inStock < line.Quantity {
			return fmt.Errorf("%w: %d unidades disponibles, se piden %d", domain.ErrSerialUnitUnavailable, inStock, line.Quantity)
		}
		return nil
	})
	if err != nil {
		c.logFailure(err, "reserve", line)
		return nil, err
	}
	publishEvent(ctx, c.publisher, c.log, StockEvent{
		Type: EventStockReserved, SKUID: line.SKUID, Quantity: line.Quantity,
		RefType: line.RefType, RefID: line.RefID,
	}, item)
	return item, nil
}

// Commit confirma la línea: descuenta quantity y reserved_qty y escribe las filas OUT/SALE.
// Para SKUs serializados reclama Quantity unidades IN_STOCK -> SOLD con una fila por unidad;
// si no alcanzan, todo se revierte con ErrSerialUnitUnavailable y la reserva queda intacta.
func (c *Coordinator) Commit(ctx context.Context, line OrderLine) (res *CommitResult, err error) {
	ctx, span := startSpan(ctx, "coordinator.commit", lineAttrs(line)...)
	defer func() { endSpan(span, err) }()

	if err = line.normalize(); err != nil {
		return nil, err
	}
	sku, err := c.skuRepo.GetByID(ctx, line.SKUID)
	if err != nil {
		return nil, err
	}
	in := MovementInput{
		Reason:    entity.ReasonSale,
		RefType:   line.RefType,
		RefID:     line.RefID,
		CreatedBy: line.CreatedBy,
	}
	res = &CommitResult{SKUID: line.SKUID, Quantity: line.Quantity}
	err = c.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
		unitRepo repository.SerialUnitRepository,
	) error {
		if !sku.Serialized {
			var txErr error
			res.Stock, res.Movements, txErr = commitInTx(ctx, stockRepo, movRepo, line.SKUID, line.Quantity, in, nil)
			return txErr
		}
		// El UPDATE del agregado va primero: serializa a los confirmadores del mismo SKU
		// antes de reclamar unidades.
		item, txErr := stockRepo.Commit(ctx, line.SKUID, line.Quantity)
		if txErr != nil {
			return txErr
		}
		units, txErr := unitRepo.ClaimInStock(ctx, line.SKUID, line.Quantity, repository.UnitRef{RefType: line.RefType, RefID: line.RefID})
		if txErr != nil {
			return txErr
		}
		movs, txErr := appendPerUnit(ctx, movRepo, line.SKUID, entity.MovementTypeOUT, line.Quantity, in, unitIDs(units))
		if txErr != nil {
			return txErr
		}
		res.Stock, res.Movements, res.Units = item, movs, units
		return nil
	})
	if err != nil {
		c.logFailure(err, "commit", line)
		return nil, err
	}
	c.log.Debug().Str("sku_id", line.SKUID).Int("qty", line.Quantity).Str("ref_id", line.RefID).Msg("línea confirmada")
	publishEvent(ctx, c.publisher, c.log, StockEvent{
		Type: EventStockCommitted, SKUID: line.SKUID, Quantity: line.Quantity,
		RefType: line.RefType, RefID: line.RefID,
		MovementIDs: movementIDs(res.Movements), SerialUnitIDs: unitIDs(res.Units),
	}, res.Stock)
	return res, nil
}

// Release libera la reserva de la línea (cancelación o expiración antes del cumplimiento).
// Liberar más de lo reservado es un error del llamador: ErrReservationMismatch y no se aplica nada.
func (c *Coordinator) Release(ctx context.Context, line OrderLine) (item *entity.StockItem, err error) {
	ctx, span := startSpan(ctx, "coordinator.release", lineAttrs(line)...)
	defer func() { endSpan(span, err) }()

	if err = line.normalize(); err != nil {
		return nil, err
	}
	err = c.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		_ repository.StockMovementRepository,
		_ repository.SerialUnitRepository,
	) error {
		var released int
		var txErr error
		item, released, txErr = stockRepo.Release(ctx, line.SKUID, line.Quantity)
		if txErr != nil {
			return txErr
		}
		if released < line.Quantity {
			return fmt.Errorf("%w: reservado %d, se liberan %d", domain.ErrReservationMismatch, released, line.Quantity)
		}
		return nil
	})
	if err != nil {
		c.logFailure(err, "release", line)
		return nil, err
	}
	publishEvent(ctx, c.publisher, c.log, StockEvent{
		Type: EventStockReleased, SKUID: line.SKUID, Quantity: line.Quantity,
		RefType: line.RefType, RefID: line.RefID,
	}, item)
	return item, nil
}

// ReserveLines reserva cada línea en su propia transacción. Ante el primer fallo devuelve *LineError;
// las líneas anteriores quedan reservadas.
func (c *Coordinator) ReserveLines(ctx context.Context, lines []OrderLine) error {
	for i, l := range lines {
		if _, err := c.Reserve(ctx, l); err != nil {
			return &LineError{Index: i, Line: l, Err: err}
		}
	}
	return nil
}

// CommitLines confirma cada línea en su propia transacción y devuelve los resultados aplicados.
func (c *Coordinator) CommitLines(ctx context.Context, lines []OrderLine) ([]*CommitResult, error) {
	results := make([]*CommitResult, 0, len(lines))
	for i, l := range lines {
		res, err := c.Commit(ctx, l)
		if err != nil {
			return results, &LineError{Index: i, Line: l, Err: err}
		}
		results = append(results, res)
	}
	return results, nil
}

// ReleaseLines libera cada línea en su propia transacción.
func (c *Coordinator) ReleaseLines(ctx context.Context, lines []OrderLine) error {
	for i, l := range lines {
		if _, err := c.Release(ctx, l); err != nil {
			return &LineError{Index: i, Line: l, Err: err}
		}
	}
	return nil
}

func (c *Coordinator) activeSKU(ctx context.Context, skuID string) (*entity.SKU, error) {
	sku, err := c.skuRepo.GetByID(ctx, skuID)
	if err != nil {
		return nil, err
	}
	if !sku.Active {
		return nil, fmt.Errorf("%w: SKU inactivo", domain.ErrInvalidInput)
	}
	return sku, nil
}

func (c *Coordinator) logFailure(err error, op string, line OrderLine) {
	var ev *zerolog.Event
	switch {
	case errors.Is(err, domain.ErrReservationMismatch):
		ev = c.log.Error()
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrSerialUnitUnavailable):
		ev = c.log.Warn()
	default:
		return
	}
	ev.Err(err).Str("op", op).Str("sku_id", line.SKUID).Int("qty", line.Quantity).
		Str("ref_type", line.RefType).Str("ref_id", line.RefID).Msg("operación de reserva rechazada")
}

func lineAttrs(l OrderLine) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("sku.id", l.SKUID),
		attribute.Int("qty", l.Quantity),
		attribute.String("ref.id", l.RefID),
	}
}
