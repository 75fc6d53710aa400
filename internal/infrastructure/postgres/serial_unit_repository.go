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

var _ repository.SerialUnitRepository = (*SerialUnitRepo)(nil)

// SerialUnitRepo unidades serializadas sobre PostgreSQL.
type SerialUnitRepo struct {
	q Querier
}

// NewSerialUnitRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSerialUnitRepository(q Querier) *SerialUnitRepo {
	return &SerialUnitRepo{q: q}
}

const unitColumns = `id, sku_id, imei, serial_number, status, counted, purchase_date, notes, last_ref_type, last_ref_id, created_at, updated_at`

func scanUnit(row pgx.Row) (*entity.SerialUnit, error) {
	var u entity.SerialUnit
	var serial, notes, refType, refID *string
	if err := row.Scan(&u.ID, &u.SKUID, &u.IMEI, &serial, &u.Status, &u.Counted, &u.PurchaseDate,
		&notes, &refType, &refID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.SerialNumber = derefString(serial)
	u.Notes = derefString(notes)
	u.LastRefType = derefString(refType)
	u.LastRefID = derefString(refID)
	return &u, nil
}

func (r *SerialUnitRepo) list(ctx context.Context, query string, args ...any) ([]*entity.SerialUnit, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, queryErr(err, "list serial units")
	}
	defer rows.Close()
	var list []*entity.SerialUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan serial unit: %w", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(err, "list serial units")
	}
	return list, nil
}

// Create inserta la unidad. domain.ErrDuplicate si el IMEI ya existe.
func (r *SerialUnitRepo) Create(ctx context.Context, u *entity.SerialUnit) error {
	query := `INSERT INTO serial_units (` + unitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		u.ID, u.SKUID, u.IMEI, nullIfEmpty(u.SerialNumber), u.Status, u.Counted, u.PurchaseDate,
		nullIfEmpty(u.Notes), nullIfEmpty(u.LastRefType), nullIfEmpty(u.LastRefID), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: IMEI %s", domain.ErrDuplicate, u.IMEI)
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return notFoundOr(err, "create serial unit")
	}
	return nil
}

// GetByID obtiene una unidad por id.
func (r *SerialUnitRepo) GetByID(ctx context.Context, id string) (*entity.SerialUnit, error) {
	u, err := scanUnit(r.q.QueryRow(ctx, `SELECT `+unitColumns+` FROM serial_units WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get serial unit")
	}
	return u, nil
}

// GetByIMEI obtiene una unidad por IMEI.
func (r *SerialUnitRepo) GetByIMEI(ctx context.Context, imei string) (*entity.SerialUnit, error) {
	u, err := scanUnit(r.q.QueryRow(ctx, `SELECT `+unitColumns+` FROM serial_units WHERE imei = $1`, imei))
	if err != nil {
		return nil, notFoundOr(err, "get serial unit by imei")
	}
	return u, nil
}

// ListBySKU unidades de un SKU por antigüedad.
func (r *SerialUnitRepo) ListBySKU(ctx context.Context, skuID string) ([]*entity.SerialUnit, error) {
	return r.list(ctx, `SELECT `+unitColumns+` FROM serial_units WHERE sku_id = $1 ORDER BY created_at, id`, skuID)
}

// ListByStatus unidades en un estado, paginadas.
func (r *SerialUnitRepo) ListByStatus(ctx context.Context, status entity.SerialStatus, limit, offset int) ([]*entity.SerialUnit, error) {
	return r.list(ctx, `SELECT `+unitColumns+` FROM serial_units WHERE status = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		status, limit, offset)
}

// CountByStatus cuenta unidades de un SKU en un estado.
func (r *SerialUnitRepo) CountByStatus(ctx context.Context, skuID string, status entity.SerialStatus) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM serial_units WHERE sku_id = $1 AND status = $2`, skuID, status).Scan(&n)
	if err != nil {
		return 0, queryErr(err, "count serial units")
	}
	return n, nil
}

// ClaimInStock pasa a SOLD hasta n unidades IN_STOCK (las más antiguas) en una sola sentencia.
// SKIP LOCKED evita que dos confirmadores esperen por la misma fila; el status = 'IN_STOCK' del UPDATE
// externo garantiza que ninguna unidad se venda dos veces. Si se reclaman menos de n el error obliga
// al llamador a revertir la transacción, y con ella las unidades ya marcadas.
func (r *SerialUnitRepo) ClaimInStock(ctx context.Context, skuID string, n int, ref repository.UnitRef) ([]*entity.SerialUnit, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidInput
	}
	query := `
		UPDATE serial_units
		SET status = 'SOLD', counted = FALSE, last_ref_type = $3, last_ref_id = $4, updated_at = now()
		WHERE id IN (
			SELECT id FROM serial_units
			WHERE sku_id = $1 AND status = 'IN_STOCK'
			ORDER BY created_at, id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		) AND status = 'IN_STOCK'
		RETURNING ` + unitColumns
	units, err := r.list(ctx, query, skuID, n, nullIfEmpty(ref.RefType), nullIfEmpty(ref.RefID))
	if err != nil {
		return nil, err
	}
	if len(units) < n {
		return nil, fmt.Errorf("%w: reclamadas %d de %d", domain.ErrSerialUnitUnavailable, len(units), n)
	}
	return units, nil
}

// Transition aplica from -> to solo si la unidad sigue en from.
func (r *SerialUnitRepo) Transition(ctx context.Context, id string, from, to entity.SerialStatus, counted bool, ref repository.UnitRef) (*entity.SerialUnit, error) {
	query := `
		UPDATE serial_units
		SET status = $3, counted = $4, last_ref_type = $5, last_ref_id = $6, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + unitColumns
	u, err := scanUnit(r.q.QueryRow(ctx, query, id, from, to, counted, nullIfEmpty(ref.RefType), nullIfEmpty(ref.RefID)))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, notFoundOr(err, "transition serial unit")
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: la unidad ya no está en %s", domain.ErrInvalidTransition, from)
}
