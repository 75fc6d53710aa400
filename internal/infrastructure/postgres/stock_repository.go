package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo agregado de stock sobre PostgreSQL (usable con pool o tx).
// Las mutaciones son UPDATE con la condición en el WHERE: la fila se bloquea solo durante la sentencia
// y dos llamadas concurrentes nunca pasan ambas la condición.
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

const stockColumns = `sku_id, quantity, reserved_qty, min_stock, max_stock, updated_at`

func scanStockItem(row pgx.Row, extra ...any) (*entity.StockItem, error) {
	var s entity.StockItem
	dest := append([]any{&s.SKUID, &s.Quantity, &s.ReservedQty, &s.MinStock, &s.MaxStock, &s.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &s, nil
}

// Get obtiene el agregado de un SKU. domain.ErrNotFound si nunca recibió stock.
func (r *StockItemRepo) Get(ctx context.Context, skuID string) (*entity.StockItem, error) {
	s, err := scanStockItem(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM stock_items WHERE sku_id = $1`, skuID))
	if err != nil {
		return nil, notFoundOr(err, "get stock item")
	}
	return s, nil
}

// GetForUpdate obtiene el agregado y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *StockItemRepo) GetForUpdate(ctx context.Context, skuID string) (*entity.StockItem, error) {
	s, err := scanStockItem(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM stock_items WHERE sku_id = $1 FOR UPDATE`, skuID))
	if err != nil {
		return nil, notFoundOr(err, "get stock item for update")
	}
	return s, nil
}

// guardedUpdate ejecuta un UPDATE ... RETURNING condicionado. Si no afecta filas distingue entre
// SKU inexistente (ErrNotFound) y condición no cumplida (failErr).
func (r *StockItemRepo) guardedUpdate(ctx context.Context, op, query string, failErr error, args ...any) (*entity.StockItem, error) {
	s, err := scanStockItem(r.q.QueryRow(ctx, query, args...))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isCheckViolation(err) {
			return nil, failErr
		}
		return nil, notFoundOr(err, op)
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_items WHERE sku_id = $1)`, args[0]).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, failErr
}

// Reserve incrementa reserved_qty solo si quantity - reserved_qty >= qty.
func (r *StockItemRepo) Reserve(ctx context.Context, skuID string, qty int) (*entity.StockItem, error) {
	query := `
		UPDATE stock_items
		SET reserved_qty = reserved_qty + $2, updated_at = now()
		WHERE sku_id = $1 AND quantity - reserved_qty >= $2
		RETURNING ` + stockColumns
	return r.guardedUpdate(ctx, "reserve stock", query, domain.ErrInsufficientStock, skuID, qty)
}

// Release decrementa reserved_qty en min(qty, reserved_qty) y devuelve cuánto se liberó.
func (r *StockItemRepo) Release(ctx context.Context, skuID string, qty int) (*entity.StockItem, int, error) {
	query := `
		WITH prev AS (
			SELECT reserved_qty FROM stock_items WHERE sku_id = $1 FOR UPDATE
		)
		UPDATE stock_items s
		SET reserved_qty = s.reserved_qty - LEAST($2, prev.reserved_qty), updated_at = now()
		FROM prev
		WHERE s.sku_id = $1
		RETURNING s.sku_id, s.quantity, s.reserved_qty, s.min_stock, s.max_stock, s.updated_at,
			prev.reserved_qty - s.reserved_qty`
	var released int
	s, err := scanStockItem(r.q.QueryRow(ctx, query, skuID, qty), &released)
	if err != nil {
		return nil, 0, notFoundOr(err, "release stock")
	}
	return s, released, nil
}

// Commit descuenta quantity y reserved_qty solo si reserved_qty >= qty.
func (r *StockItemRepo) Commit(ctx context.Context, skuID string, qty int) (*entity.StockItem, error) {
	query := `
		UPDATE stock_items
		SET quantity = quantity - $2, reserved_qty = reserved_qty - $2, updated_at = now()
		WHERE sku_id = $1 AND reserved_qty >= $2
		RETURNING ` + stockColumns
	return r.guardedUpdate(ctx, "commit stock", query, domain.ErrReservationMismatch, skuID, qty)
}

// Receive suma qty a quantity creando la fila en la primera entrada del SKU.
func (r *StockItemRepo) Receive(ctx context.Context, skuID string, qty, minStock int) (*entity.StockItem, error) {
	query := `
		INSERT INTO stock_items (sku_id, quantity, reserved_qty, min_stock, updated_at)
		VALUES ($1, $2, 0, $3, now())
		ON CONFLICT (sku_id) DO UPDATE
		SET quantity = stock_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING ` + stockColumns
	s, err := scanStockItem(r.q.QueryRow(ctx, query, skuID, qty, minStock))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, notFoundOr(err, "receive stock")
	}
	return s, nil
}

// Adjust aplica delta solo si quantity + delta >= reserved_qty.
func (r *StockItemRepo) Adjust(ctx context.Context, skuID string, delta int) (*entity.StockItem, error) {
	query := `
		UPDATE stock_items
		SET quantity = quantity + $2, updated_at = now()
		WHERE sku_id = $1 AND quantity + $2 >= reserved_qty
		RETURNING ` + stockColumns
	return r.guardedUpdate(ctx, "adjust stock", query, domain.ErrInsufficientStock, skuID, delta)
}

// SetLevels actualiza min_stock y max_stock.
func (r *StockItemRepo) SetLevels(ctx context.Context, skuID string, minStock int, maxStock *int) (*entity.StockItem, error) {
	query := `
		UPDATE stock_items SET min_stock = $2, max_stock = $3, updated_at = now()
		WHERE sku_id = $1
		RETURNING ` + stockColumns
	s, err := scanStockItem(r.q.QueryRow(ctx, query, skuID, minStock, maxStock))
	if err != nil {
		if isCheckViolation(err) {
			return nil, domain.ErrInvalidInput
		}
		return nil, notFoundOr(err, "set stock levels")
	}
	return s, nil
}

func stockFilterClause(f repository.StockFilter) string {
	switch f {
	case repository.StockFilterLow:
		return " WHERE quantity <= min_stock"
	case repository.StockFilterOut:
		return " WHERE quantity = 0"
	case repository.StockFilterIn:
		return " WHERE quantity > 0"
	case repository.StockFilterReservation:
		return " WHERE reserved_qty > 0"
	default:
		return ""
	}
}

// List agregados según filtro, ordenados por sku_id.
func (r *StockItemRepo) List(ctx context.Context, filter repository.StockFilter, limit, offset int) ([]*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_items` + stockFilterClause(filter) +
		` ORDER BY sku_id LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockItem
	for rows.Next() {
		s, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Totals suma cantidades y reservas y cuenta SKUs en bajo stock.
func (r *StockItemRepo) Totals(ctx context.Context) (repository.StockTotals, error) {
	var t repository.StockTotals
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(reserved_qty), 0),
			COUNT(*) FILTER (WHERE quantity <= min_stock)
		FROM stock_items`).Scan(&t.Quantity, &t.Reserved, &t.LowStockItems)
	if err != nil {
		return t, fmt.Errorf("stock totals: %w", err)
	}
	return t, nil
}

// Valuation cantidad y costo unitario de cada SKU con stock.
func (r *StockItemRepo) Valuation(ctx context.Context) ([]repository.StockValuationRow, error) {
	rows, err := r.q.Query(ctx, `
		SELECT s.sku_id, k.code, s.quantity, k.cost_price
		FROM stock_items s
		JOIN skus k ON k.id = s.sku_id
		WHERE s.quantity > 0
		ORDER BY k.code`)
	if err != nil {
		return nil, fmt.Errorf("stock valuation: %w", err)
	}
	defer rows.Close()
	var list []repository.StockValuationRow
	for rows.Next() {
		var v repository.StockValuationRow
		if err := rows.Scan(&v.SKUID, &v.Code, &v.Quantity, &v.CostPrice); err != nil {
			return nil, fmt.Errorf("scan valuation: %w", err)
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
