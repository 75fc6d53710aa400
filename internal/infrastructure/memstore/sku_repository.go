package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.SKURepository = (*SKURepo)(nil)

// SKURepo catálogo de SKUs en memoria.
type SKURepo struct {
	sc scope
}

func (r *SKURepo) first(index, arg string) (*entity.SKU, error) {
	obj, err := r.sc.read().First(tableSKUs, index, arg)
	if err != nil {
		return nil, fmt.Errorf("get sku: %w", err)
	}
	if obj == nil {
		return nil, domain.ErrNotFound
	}
	s := *obj.(*entity.SKU)
	return &s, nil
}

// GetByID obtiene un SKU por id.
func (r *SKURepo) GetByID(_ context.Context, id string) (*entity.SKU, error) {
	return r.first("id", id)
}

// GetByCode obtiene un SKU por código.
func (r *SKURepo) GetByCode(_ context.Context, code string) (*entity.SKU, error) {
	return r.first("code", code)
}

// Upsert inserta o actualiza por código; sku.ID queda con el id persistido.
func (r *SKURepo) Upsert(_ context.Context, sku *entity.SKU) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		now := time.Now().UTC()
		row := *sku
		existing, err := txn.First(tableSKUs, "code", sku.Code)
		if err != nil {
			return fmt.Errorf("upsert sku: %w", err)
		}
		if existing != nil {
			prev := existing.(*entity.SKU)
			row.ID, row.CreatedAt = prev.ID, prev.CreatedAt
		} else {
			if row.ID == "" {
				row.ID = uuid.New().String()
			}
			if other, _ := txn.First(tableSKUs, "id", row.ID); other != nil {
				return domain.ErrDuplicate
			}
			row.CreatedAt = now
		}
		row.UpdatedAt = now
		if err := txn.Insert(tableSKUs, &row); err != nil {
			return fmt.Errorf("upsert sku: %w", err)
		}
		sku.ID, sku.CreatedAt, sku.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
		return nil
	})
}
