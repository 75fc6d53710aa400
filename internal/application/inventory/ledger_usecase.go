package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

const defaultLedgerPage = 100

// LedgerUseCase superficie de lectura del ledger. Las escrituras solo ocurren dentro de las
// transacciones de StockUseCase, SerialUnitUseCase y Coordinator.
type LedgerUseCase struct {
	movRepo   repository.StockMovementRepository
	stockRepo repository.StockItemRepository
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(movRepo repository.StockMovementRepository, stockRepo repository.StockItemRepository) *LedgerUseCase {
	return &LedgerUseCase{movRepo: movRepo, stockRepo: stockRepo}
}

// ListBySKU historial de un SKU en orden cronológico, opcionalmente acotado por fechas.
func (uc *LedgerUseCase) ListBySKU(ctx context.Context, skuID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if skuID == "" {
		return nil, domain.ErrInvalidInput
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultLedgerPage
	}
	return uc.movRepo.List(ctx, repository.MovementFilter{
		SKUID: skuID, From: from, To: to, Limit: limit, Offset: max(offset, 0),
	})
}

// ListByRef movimientos asociados a una referencia de negocio (línea de pedido, ticket...).
func (uc *LedgerUseCase) ListByRef(ctx context.Context, refType, refID string) ([]*entity.StockMovement, error) {
	if refType == "" || refID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.List(ctx, repository.MovementFilter{RefType: refType, RefID: refID})
}

// ListBySerialUnit historial de una unidad física.
func (uc *LedgerUseCase) ListBySerialUnit(ctx context.Context, unitID string) ([]*entity.StockMovement, error) {
	if unitID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.ListBySerialUnit(ctx, unitID)
}

// Sums totales de entradas, salidas y neto, agrupados por motivo. skuID vacío = todos los SKUs.
func (uc *LedgerUseCase) Sums(ctx context.Context, skuID string, from, to *time.Time) (*dto.LedgerSumsDTO, error) {
	rows, err := uc.movRepo.Sums(ctx, repository.MovementFilter{SKUID: skuID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	out := &dto.LedgerSumsDTO{ByReason: make([]dto.ReasonTotalDTO, 0, len(rows))}
	for _, r := range rows {
		switch r.Type {
		case entity.MovementTypeIN:
			out.In += r.Quantity
		case entity.MovementTypeOUT:
			out.Out += r.Quantity
		}
		out.ByReason = append(out.ByReason, dto.ReasonTotalDTO{
			Type:     string(r.Type),
			Reason:   string(r.Reason),
			Quantity: r.Quantity,
			Count:    r.Count,
		})
	}
	out.Net = out.In - out.Out
	return out, nil
}

// Reconcile compara el saldo con signo del ledger con quantity del agregado. Solo lectura.
// Un SKU sin StockItem ni movimientos se reporta en sincronía con cero.
func (uc *LedgerUseCase) Reconcile(ctx context.Context, skuID string) (dominv.Reconciliation, error) {
	rec := dominv.Reconciliation{SKUID: skuID}
	if skuID == "" {
		return rec, domain.ErrInvalidInput
	}
	balance, err := uc.movRepo.SignedBalance(ctx, skuID)
	if err != nil {
		return rec, err
	}
	rec.LedgerBalance = balance
	item, err := uc.stockRepo.Get(ctx, skuID)
	switch {
	case err == nil:
		rec.StockQuantity = item.Quantity
	case errors.Is(err, domain.ErrNotFound):
	default:
		return rec, err
	}
	return rec, nil
}
