package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var serialStatuses = []entity.SerialStatus{
	entity.SerialInStock,
	entity.SerialSold,
	entity.SerialRepair,
	entity.SerialReturned,
	entity.SerialLost,
}

// ReportingUseCase consultas de solo lectura para reportería: totales, valorización,
// bajo stock y conteo de unidades por estado.
type ReportingUseCase struct {
	stockRepo repository.StockItemRepository
	unitRepo  repository.SerialUnitRepository
}

// NewReportingUseCase construye el caso de uso de reportes.
func NewReportingUseCase(stockRepo repository.StockItemRepository, unitRepo repository.SerialUnitRepository) *ReportingUseCase {
	return &ReportingUseCase{stockRepo: stockRepo, unitRepo: unitRepo}
}

// Summary totales globales de cantidad, reservado y disponible.
func (uc *ReportingUseCase) Summary(ctx context.Context) (*dto.StockSummaryDTO, error) {
	t, err := uc.stockRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.StockSummaryDTO{
		Quantity:      t.Quantity,
		Reserved:      t.Reserved,
		Available:     t.Quantity - t.Reserved,
		LowStockItems: t.LowStockItems,
	}, nil
}

// Valuation valoriza el inventario a costo: Σ quantity × cost_price, ordenado por mayor valor.
func (uc *ReportingUseCase) Valuation(ctx context.Context) (*dto.ValuationDTO, error) {
	rows, err := uc.stockRepo.Valuation(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ValuationDTO{Lines: make([]dto.ValuationLineDTO, 0, len(rows)), Total: decimal.Zero}
	for _, r := range rows {
		value := dominv.StockValue(r.Quantity, r.CostPrice)
		out.Total = out.Total.Add(value)
		out.Lines = append(out.Lines, dto.ValuationLineDTO{
			SKUID:    r.SKUID,
			Code:     r.Code,
			Quantity: r.Quantity,
			UnitCost: r.CostPrice,
			Value:    value,
		})
	}
	sort.SliceStable(out.Lines, func(i, j int) bool {
		a, b := out.Lines[i], out.Lines[j]
		if !a.Value.Equal(b.Value) {
			return a.Value.GreaterThan(b.Value)
		}
		return a.Code < b.Code
	})
	return out, nil
}

// LowStock SKUs con quantity <= min_stock, primero los de mayor déficit.
func (uc *ReportingUseCase) LowStock(ctx context.Context, limit, offset int) ([]dto.StockItemDTO, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := uc.stockRepo.List(ctx, repository.StockFilterLow, limit, offset)
	if err != nil {
		return nil, err
	}
	out := ToStockItemDTOs(items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinStock-out[i].Quantity > out[j].MinStock-out[j].Quantity
	})
	return out, nil
}

// SerialCounts unidades de un SKU por estado (todos los estados, incluso en cero).
func (uc *ReportingUseCase) SerialCounts(ctx context.Context, skuID string) (*dto.SerialCountsDTO, error) {
	out := &dto.SerialCountsDTO{SKUID: skuID, Counts: make(map[string]int, len(serialStatuses))}
	for _, st := range serialStatuses {
		n, err := uc.unitRepo.CountByStatus(ctx, skuID, st)
		if err != nil {
			return nil, err
		}
		out.Counts[string(st)] = n
	}
	return out, nil
}
