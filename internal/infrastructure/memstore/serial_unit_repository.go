package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.SerialUnitRepository = (*SerialUnitRepo)(nil)

// SerialUnitRepo unidades serializadas en memoria.
type SerialUnitRepo struct {
	sc scope
}

func cloneUnit(u *entity.SerialUnit) *entity.SerialUnit {
	c := *u
	if u.PurchaseDate != nil {
		d := *u.PurchaseDate
		c.PurchaseDate = &d
	}
	return &c
}

func getUnit(txn *memdb.Txn, index, arg string) (*entity.SerialUnit, error) {
	obj, err := txn.First(tableUnits, index, arg)
	if err != nil {
		return nil, fmt.Errorf("get serial unit: %w", err)
	}
	if obj == nil {
		return nil, domain.ErrNotFound
	}
	return cloneUnit(obj.(*entity.SerialUnit)), nil
}

func sortUnits(units []*entity.SerialUnit) {
	sort.Slice(units, func(i, j int) bool {
		if !units[i].CreatedAt.Equal(units[j].CreatedAt) {
			return units[i].CreatedAt.Before(units[j].CreatedAt)
		}
		return units[i].ID < units[j].ID
	})
}

func cloneUnits(units []*entity.SerialUnit) []*entity.SerialUnit {
	out := make([]*entity.SerialUnit, 0, len(units))
	for _, u := range units {
		out = append(out, cloneUnit(u))
	}
	return out
}

// Create inserta la unidad. ErrDuplicate si el IMEI ya existe, ErrNotFound si el SKU no existe.
func (r *SerialUnitRepo) Create(_ context.Context, u *entity.SerialUnit) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		if sku, _ := txn.First(tableSKUs, "id", u.SKUID); sku == nil {
			return domain.ErrNotFound
		}
		if prev, _ := txn.First(tableUnits, "imei", u.IMEI); prev != nil {
			return fmt.Errorf("%w: IMEI %s", domain.ErrDuplicate, u.IMEI)
		}
		if prev, _ := txn.First(tableUnits, "id", u.ID); prev != nil {
			return domain.ErrDuplicate
		}
		if err := txn.Insert(tableUnits, cloneUnit(u)); err != nil {
			return fmt.Errorf("create serial unit: %w", err)
		}
		return nil
	})
}

// GetByID obtiene una unidad por id.
func (r *SerialUnitRepo) GetByID(_ context.Context, id string) (*entity.SerialUnit, error) {
	return getUnit(r.sc.read(), "id", id)
}

// GetByIMEI obtiene una unidad por IMEI.
func (r *SerialUnitRepo) GetByIMEI(_ context.Context, imei string) (*entity.SerialUnit, error) {
	return getUnit(r.sc.read(), "imei", imei)
}

func (r *SerialUnitRepo) get(index string, args ...any) ([]*entity.SerialUnit, error) {
	it, err := r.sc.read().Get(tableUnits, index, args...)
	if err != nil {
		return nil, fmt.Errorf("list serial units: %w", err)
	}
	units := collect[*entity.SerialUnit](it)
	sortUnits(units)
	return units, nil
}

// ListBySKU unidades de un SKU por antigüedad.
func (r *SerialUnitRepo) ListBySKU(_ context.Context, skuID string) ([]*entity.SerialUnit, error) {
	units, err := r.get("sku", skuID)
	if err != nil {
		return nil, err
	}
	return cloneUnits(units), nil
}

// ListByStatus unidades en un estado, paginadas.
func (r *SerialUnitRepo) ListByStatus(_ context.Context, status entity.SerialStatus, limit, offset int) ([]*entity.SerialUnit, error) {
	units, err := r.get("status", string(status))
	if err != nil {
		return nil, err
	}
	if offset >= len(units) {
		return []*entity.SerialUnit{}, nil
	}
	units = units[offset:]
	if limit > 0 && len(units) > limit {
		units = units[:limit]
	}
	return cloneUnits(units), nil
}

// CountByStatus cuenta unidades de un SKU en un estado.
func (r *SerialUnitRepo) CountByStatus(_ context.Context, skuID string, status entity.SerialStatus) (int, error) {
	units, err := r.get("sku_status", skuID, string(status))
	if err != nil {
		return 0, err
	}
	return len(units), nil
}

// ClaimInStock pasa a SOLD las n unidades IN_STOCK más antiguas. Si no hay n no modifica nada.
func (r *SerialUnitRepo) ClaimInStock(_ context.Context, skuID string, n int, ref repository.UnitRef) ([]*entity.SerialUnit, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidInput
	}
	var claimed []*entity.SerialUnit
	err := r.sc.write(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableUnits, "sku_status", skuID, string(entity.SerialInStock))
		if err != nil {
			return fmt.Errorf("claim serial units: %w", err)
		}
		candidates := collect[*entity.SerialUnit](it)
		if len(candidates) < n {
			return fmt.Errorf("%w: disponibles %d de %d", domain.ErrSerialUnitUnavailable, len(candidates), n)
		}
		sortUnits(candidates)
		now := time.Now().UTC()
		for _, c := range candidates[:n] {
			u := cloneUnit(c)
			u.Status = entity.SerialSold
			u.Counted = false
			u.LastRefType, u.LastRefID = ref.RefType, ref.RefID
			u.UpdatedAt = now
			if err := txn.Insert(tableUnits, u); err != nil {
				return fmt.Errorf("claim serial units: %w", err)
			}
			claimed = append(claimed, cloneUnit(u))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Transition aplica from -> to solo si la unidad sigue en from.
func (r *SerialUnitRepo) Transition(_ context.Context, id string, from, to entity.SerialStatus, counted bool, ref repository.UnitRef) (*entity.SerialUnit, error) {
	var out *entity.SerialUnit
	err := r.sc.write(func(txn *memdb.Txn) error {
		u, err := getUnit(txn, "id", id)
		if err != nil {
			return err
		}
		if u.Status != from {
			return fmt.Errorf("%w: la unidad ya no está en %s", domain.ErrInvalidTransition, from)
		}
		u.Status = to
		u.Counted = counted
		u.LastRefType, u.LastRefID = ref.RefType, ref.RefID
		u.UpdatedAt = time.Now().UTC()
		if err := txn.Insert(tableUnits, u); err != nil {
			return fmt.Errorf("transition serial unit: %w", err)
		}
		out = cloneUnit(u)
		return nil
	})
	return out, err
}
