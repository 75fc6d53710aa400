package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.SKURepository = (*SKURepo)(nil)

// SKURepo catálogo de SKUs sobre PostgreSQL.
type SKURepo struct {
	q Querier
}

// NewSKURepository construye el adaptador. Pasar pool o tx (Querier).
func NewSKURepository(q Querier) *SKURepo {
	return &SKURepo{q: q}
}

const skuColumns = `id, code, name, serialized, active, cost_price, created_at, updated_at`

func (r *SKURepo) get(ctx context.Context, where string, arg any) (*entity.SKU, error) {
	var s entity.SKU
	err := r.q.QueryRow(ctx, `SELECT `+skuColumns+` FROM skus WHERE `+where, arg).Scan(
		&s.ID, &s.Code, &s.Name, &s.Serialized, &s.Active, &s.CostPrice, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "get sku")
	}
	return &s, nil
}

// GetByID obtiene un SKU por id. domain.ErrNotFound si no existe.
func (r *SKURepo) GetByID(ctx context.Context, id string) (*entity.SKU, error) {
	return r.get(ctx, "id = $1", id)
}

// GetByCode obtiene un SKU por código.
func (r *SKURepo) GetByCode(ctx context.Context, code string) (*entity.SKU, error) {
	return r.get(ctx, "code = $1", code)
}

// Upsert inserta o actualiza el SKU por código. Si ya existía, sku.ID queda con el id persistido.
func (r *SKURepo) Upsert(ctx context.Context, sku *entity.SKU) error {
	if sku.ID == "" {
		sku.ID = uuid.New().String()
	}
	query := `
		INSERT INTO skus (id, code, name, serialized, active, cost_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			serialized = EXCLUDED.serialized,
			active = EXCLUDED.active,
			cost_price = EXCLUDED.cost_price,
			updated_at = now()
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, sku.ID, sku.Code, sku.Name, sku.Serialized, sku.Active, sku.CostPrice).
		Scan(&sku.ID, &sku.CreatedAt, &sku.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("upsert sku: %w", err)
	}
	return nil
}
