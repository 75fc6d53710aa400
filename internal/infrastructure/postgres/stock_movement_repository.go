package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo ledger de movimientos sobre PostgreSQL. Solo INSERT y SELECT;
// un trigger rechaza UPDATE y DELETE sobre stock_movements.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, sku_id, serial_unit_id, movement_type, quantity, reason, ref_type, ref_id, notes, created_by, created_at`

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var unitID, refType, refID, notes, createdBy *string
	if err := row.Scan(&m.ID, &m.SKUID, &unitID, &m.Type, &m.Quantity, &m.Reason,
		&refType, &refID, &notes, &createdBy, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.SerialUnitID = derefString(unitID)
	m.RefType = derefString(refType)
	m.RefID = derefString(refID)
	m.Notes = derefString(notes)
	m.CreatedBy = derefString(createdBy)
	return &m, nil
}

// Create inserta una fila del ledger.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.SKUID, nullIfEmpty(m.SerialUnitID), m.Type, m.Quantity, m.Reason,
		nullIfEmpty(m.RefType), nullIfEmpty(m.RefID), nullIfEmpty(m.Notes), nullIfEmpty(m.CreatedBy), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por id.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get stock movement")
	}
	return m, nil
}

// whereMovements arma el WHERE de los filtros presentes y devuelve los argumentos posicionales.
func whereMovements(f repository.MovementFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.SKUID != "" {
		add("sku_id = $%d", f.SKUID)
	}
	if f.RefType != "" {
		add("ref_type = $%d", f.RefType)
	}
	if f.RefID != "" {
		add("ref_id = $%d", f.RefID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, queryErr(err, "list stock movements")
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(err, "list stock movements")
	}
	return list, nil
}

// List movimientos filtrados en orden cronológico (created_at, id).
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	where, args := whereMovements(f)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where + ` ORDER BY created_at, id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return r.list(ctx, query, args...)
}

// ListBySerialUnit historial de una unidad.
func (r *StockMovementRepo) ListBySerialUnit(ctx context.Context, serialUnitID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE serial_unit_id = $1 ORDER BY created_at, id`, serialUnitID)
}

// Sums total de unidades y filas por (tipo, motivo).
func (r *StockMovementRepo) Sums(ctx context.Context, f repository.MovementFilter) ([]repository.ReasonSum, error) {
	where, args := whereMovements(f)
	rows, err := r.q.Query(ctx, `
		SELECT movement_type, reason, COALESCE(SUM(quantity), 0), COUNT(*)
		FROM stock_movements`+where+`
		GROUP BY movement_type, reason
		ORDER BY movement_type, reason`, args...)
	if err != nil {
		return nil, queryErr(err, "sum stock movements")
	}
	defer rows.Close()
	var list []repository.ReasonSum
	for rows.Next() {
		var s repository.ReasonSum
		if err := rows.Scan(&s.Type, &s.Reason, &s.Quantity, &s.Count); err != nil {
			return nil, fmt.Errorf("scan movement sum: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(err, "sum stock movements")
	}
	return list, nil
}

// SignedBalance suma con signo (IN +, OUT -) todos los movimientos del SKU.
func (r *StockMovementRepo) SignedBalance(ctx context.Context, skuID string) (int, error) {
	var balance int
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN movement_type = 'IN' THEN quantity ELSE -quantity END), 0)
		FROM stock_movements WHERE sku_id = $1`, skuID).Scan(&balance)
	if err != nil {
		return 0, queryErr(err, "signed balance")
	}
	return balance, nil
}
