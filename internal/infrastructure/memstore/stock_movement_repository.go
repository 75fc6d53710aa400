package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"
	"github.com/jhoicas/inventario-core/internal/domain"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// movementRow fila del ledger con los campos indexados expuestos y su orden de inserción.
type movementRow struct {
	ID           string
	SKUID        string
	SerialUnitID string
	RefType      string
	RefID        string
	Seq          uint64
	Movement     entity.StockMovement
}

// StockMovementRepo ledger append-only en memoria: no hay operación que reemplace ni borre filas.
type StockMovementRepo struct {
	sc scope
}

// Create inserta la fila. domain.ErrNotFound si el SKU no existe, ErrDuplicate si el id ya existe.
func (r *StockMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		sku, err := txn.First(tableSKUs, "id", m.SKUID)
		if err != nil {
			return fmt.Errorf("create stock movement: %w", err)
		}
		if sku == nil {
			return domain.ErrNotFound
		}
		if prev, _ := txn.First(tableMovements, "id", m.ID); prev != nil {
			return domain.ErrDuplicate
		}
		row := &movementRow{
			ID:           m.ID,
			SKUID:        m.SKUID,
			SerialUnitID: m.SerialUnitID,
			RefType:      m.RefType,
			RefID:        m.RefID,
			Seq:          r.sc.store.seq.Add(1),
			Movement:     *m,
		}
		if err := txn.Insert(tableMovements, row); err != nil {
			return fmt.Errorf("create stock movement: %w", err)
		}
		return nil
	})
}

// GetByID obtiene un movimiento por id.
func (r *StockMovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	obj, err := r.sc.read().First(tableMovements, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	if obj == nil {
		return nil, domain.ErrNotFound
	}
	m := obj.(*movementRow).Movement
	return &m, nil
}

// rows elige el índice más selectivo para el filtro y aplica el resto en memoria, en orden de inserción.
func (r *StockMovementRepo) rows(f repository.MovementFilter) ([]*movementRow, error) {
	var (
		it  memdb.ResultIterator
		err error
	)
	txn := r.sc.read()
	switch {
	case f.SKUID != "":
		it, err = txn.Get(tableMovements, "sku", f.SKUID)
	case f.RefType != "" && f.RefID != "":
		it, err = txn.Get(tableMovements, "ref", f.RefType, f.RefID)
	default:
		it, err = txn.Get(tableMovements, "id")
	}
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	var out []*movementRow
	for _, row := range collect[*movementRow](it) {
		m := &row.Movement
		if (f.SKUID != "" && m.SKUID != f.SKUID) ||
			(f.RefType != "" && m.RefType != f.RefType) ||
			(f.RefID != "" && m.RefID != f.RefID) ||
			(f.From != nil && m.CreatedAt.Before(*f.From)) ||
			(f.To != nil && m.CreatedAt.After(*f.To)) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func toMovements(rows []*movementRow) []*entity.StockMovement {
	out := make([]*entity.StockMovement, 0, len(rows))
	for _, row := range rows {
		m := row.Movement
		out = append(out, &m)
	}
	return out
}

// List movimientos filtrados en orden cronológico.
func (r *StockMovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	rows, err := r.rows(f)
	if err != nil {
		return nil, err
	}
	if f.Offset > 0 {
		if f.Offset >= len(rows) {
			return []*entity.StockMovement{}, nil
		}
		rows = rows[f.Offset:]
	}
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return toMovements(rows), nil
}

// ListBySerialUnit historial de una unidad.
func (r *StockMovementRepo) ListBySerialUnit(_ context.Context, serialUnitID string) ([]*entity.StockMovement, error) {
	it, err := r.sc.read().Get(tableMovements, "unit", serialUnitID)
	if err != nil {
		return nil, fmt.Errorf("list unit movements: %w", err)
	}
	rows := collect[*movementRow](it)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })
	return toMovements(rows), nil
}

// Sums total de unidades y filas por (tipo, motivo), ordenado por tipo y motivo.
func (r *StockMovementRepo) Sums(_ context.Context, f repository.MovementFilter) ([]repository.ReasonSum, error) {
	rows, err := r.rows(f)
	if err != nil {
		return nil, err
	}
	type key struct {
		t  entity.MovementType
		rs entity.MovementReason
	}
	acc := make(map[key]*repository.ReasonSum)
	for _, row := range rows {
		k := key{row.Movement.Type, row.Movement.Reason}
		s, ok := acc[k]
		if !ok {
			s = &repository.ReasonSum{Type: k.t, Reason: k.rs}
			acc[k] = s
		}
		s.Quantity += int64(row.Movement.Quantity)
		s.Count++
	}
	out := make([]repository.ReasonSum, 0, len(acc))
	for _, s := range acc {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Reason < out[j].Reason
	})
	return out, nil
}

// SignedBalance suma con signo los movimientos del SKU.
func (r *StockMovementRepo) SignedBalance(_ context.Context, skuID string) (int, error) {
	rows, err := r.rows(repository.MovementFilter{SKUID: skuID})
	if err != nil {
		return 0, err
	}
	return dominv.SignedSum(toMovements(rows)), nil
}
