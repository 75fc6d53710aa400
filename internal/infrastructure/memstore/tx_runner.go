package memstore

import (
	"context"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta fn en una transacción de escritura de go-memdb: Commit si fn no falla, Abort si falla.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner sobre store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run abre la transacción, pasa los repos atados a ella y confirma.
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
	unitRepo repository.SerialUnitRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := r.store.db.Txn(true)
	defer txn.Abort()

	sc := scope{store: r.store, txn: txn}
	if err := fn(&StockItemRepo{sc}, &StockMovementRepo{sc}, &SerialUnitRepo{sc}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
