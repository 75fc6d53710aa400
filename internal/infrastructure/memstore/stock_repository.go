package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo agregado de stock en memoria. Cada mutación lee, valida la condición y reemplaza
// la fila dentro de una única transacción de escritura.
type StockItemRepo struct {
	sc scope
}

func cloneItem(s *entity.StockItem) *entity.StockItem {
	c := *s
	if s.MaxStock != nil {
		m := *s.MaxStock
		c.MaxStock = &m
	}
	return &c
}

func getItem(txn *memdb.Txn, skuID string) (*entity.StockItem, error) {
	obj, err := txn.First(tableStock, "id", skuID)
	if err != nil {
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	if obj == nil {
		return nil, domain.ErrNotFound
	}
	return cloneItem(obj.(*entity.StockItem)), nil
}

// mutate aplica fn a una copia de la fila y la guarda si fn no devuelve error.
func (r *StockItemRepo) mutate(skuID string, fn func(s *entity.StockItem) error) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.sc.write(func(txn *memdb.Txn) error {
		s, err := getItem(txn, skuID)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		s.UpdatedAt = time.Now().UTC()
		if err := txn.Insert(tableStock, s); err != nil {
			return fmt.Errorf("update stock item: %w", err)
		}
		out = cloneItem(s)
		return nil
	})
	return out, err
}

// Get obtiene el agregado de un SKU.
func (r *StockItemRepo) Get(_ context.Context, skuID string) (*entity.StockItem, error) {
	return getItem(r.sc.read(), skuID)
}

// GetForUpdate dentro de una transacción de escritura equivale a Get: los escritores ya están serializados.
func (r *StockItemRepo) GetForUpdate(_ context.Context, skuID string) (*entity.StockItem, error) {
	return getItem(r.sc.read(), skuID)
}

// Reserve incrementa reserved_qty solo si hay disponible suficiente.
func (r *StockItemRepo) Reserve(_ context.Context, skuID string, qty int) (*entity.StockItem, error) {
	return r.mutate(skuID, func(s *entity.StockItem) error {
		if s.Quantity-s.ReservedQty < qty {
			return domain.ErrInsufficientStock
		}
		s.ReservedQty += qty
		return nil
	})
}

// Release decrementa reserved_qty en min(qty, reserved_qty).
func (r *StockItemRepo) Release(_ context.Context, skuID string, qty int) (*entity.StockItem, int, error) {
	released := 0
	s, err := r.mutate(skuID, func(s *entity.StockItem) error {
		released = min(qty, s.ReservedQty)
		s.ReservedQty -= released
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return s, released, nil
}

// Commit descuenta quantity y reserved_qty solo si reserved_qty >= qty.
func (r *StockItemRepo) Commit(_ context.Context, skuID string, qty int) (*entity.StockItem, error) {
	return r.mutate(skuID, func(s *entity.StockItem) error {
		if s.ReservedQty < qty {
			return domain.ErrReservationMismatch
		}
		s.Quantity -= qty
		s.ReservedQty -= qty
		return nil
	})
}

// Receive suma qty creando la fila en la primera entrada del SKU.
func (r *StockItemRepo) Receive(_ context.Context, skuID string, qty, minStock int) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.sc.write(func(txn *memdb.Txn) error {
		s, err := getItem(txn, skuID)
		switch {
		case err == nil:
			s.Quantity += qty
		case errors.Is(err, domain.ErrNotFound):
			obj, err := txn.First(tableSKUs, "id", skuID)
			if err != nil {
				return fmt.Errorf("receive stock: %w", err)
			}
			if obj == nil {
				return domain.ErrNotFound
			}
			// La clave sale del catálogo, no del string del llamador.
			s = &entity.StockItem{SKUID: obj.(*entity.SKU).ID, Quantity: qty, MinStock: minStock}
		default:
			return err
		}
		s.UpdatedAt = time.Now().UTC()
		if err := txn.Insert(tableStock, s); err != nil {
			return fmt.Errorf("receive stock: %w", err)
		}
		out = cloneItem(s)
		return nil
	})
	return out, err
}

// Adjust aplica delta solo si quantity + delta >= reserved_qty.
func (r *StockItemRepo) Adjust(_ context.Context, skuID string, delta int) (*entity.StockItem, error) {
	return r.mutate(skuID, func(s *entity.StockItem) error {
		if s.Quantity+delta < s.ReservedQty {
			return domain.ErrInsufficientStock
		}
		s.Quantity += delta
		return nil
	})
}

// SetLevels actualiza umbrales.
func (r *StockItemRepo) SetLevels(_ context.Context, skuID string, minStock int, maxStock *int) (*entity.StockItem, error) {
	return r.mutate(skuID, func(s *entity.StockItem) error {
		s.MinStock = minStock
		s.MaxStock = nil
		if maxStock != nil {
			m := *maxStock
			s.MaxStock = &m
		}
		return nil
	})
}

func matchesFilter(s *entity.StockItem, f repository.StockFilter) bool {
	switch f {
	case repository.StockFilterLow:
		return s.LowStock()
	case repository.StockFilterOut:
		return s.Quantity == 0
	case repository.StockFilterIn:
		return s.Quantity > 0
	case repository.StockFilterReservation:
		return s.ReservedQty > 0
	default:
		return true
	}
}

func (r *StockItemRepo) all() ([]*entity.StockItem, error) {
	it, err := r.sc.read().Get(tableStock, "id")
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	return collect[*entity.StockItem](it), nil
}

// List agregados según filtro, ordenados por sku_id (el índice ya los entrega ordenados).
func (r *StockItemRepo) List(_ context.Context, filter repository.StockFilter, limit, offset int) ([]*entity.StockItem, error) {
	items, err := r.all()
	if err != nil {
		return nil, err
	}
	var out []*entity.StockItem
	skipped := 0
	for _, s := range items {
		if !matchesFilter(s, filter) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, cloneItem(s))
	}
	return out, nil
}

// Totals suma cantidades y reservas y cuenta SKUs en bajo stock.
func (r *StockItemRepo) Totals(_ context.Context) (repository.StockTotals, error) {
	var t repository.StockTotals
	items, err := r.all()
	if err != nil {
		return t, err
	}
	for _, s := range items {
		t.Quantity += int64(s.Quantity)
		t.Reserved += int64(s.ReservedQty)
		if s.LowStock() {
			t.LowStockItems++
		}
	}
	return t, nil
}

// Valuation cantidad y costo de cada SKU con stock, por código.
func (r *StockItemRepo) Valuation(_ context.Context) ([]repository.StockValuationRow, error) {
	txn := r.sc.read()
	items, err := r.all()
	if err != nil {
		return nil, err
	}
	var out []repository.StockValuationRow
	for _, s := range items {
		if s.Quantity <= 0 {
			continue
		}
		obj, err := txn.First(tableSKUs, "id", s.SKUID)
		if err != nil {
			return nil, fmt.Errorf("stock valuation: %w", err)
		}
		if obj == nil {
			continue
		}
		sku := obj.(*entity.SKU)
		out = append(out, repository.StockValuationRow{
			SKUID: s.SKUID, Code: sku.Code, Quantity: s.Quantity, CostPrice: sku.CostPrice,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
