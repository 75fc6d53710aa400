package repository

import (
	"context"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// SKURepository define el puerto de persistencia para el catálogo de SKUs (DIP).
// El núcleo de inventario solo lo lee; Upsert lo usan la carga inicial y el catálogo externo.
type SKURepository interface {
	GetByID(ctx context.Context, id string) (*entity.SKU, error)
	GetByCode(ctx context.Context, code string) (*entity.SKU, error)
	Upsert(ctx context.Context, sku *entity.SKU) error
}
