package inventory

import "github.com/jhoicas/inventario-core/internal/domain/entity"

// SignedSum suma con signo las cantidades de los movimientos (IN +, OUT -).
func SignedSum(movements []*entity.StockMovement) int {
	total := 0
	for _, m := range movements {
		total += m.SignedQuantity()
	}
	return total
}

// Reconciliation compara el saldo del ledger con la cantidad materializada del agregado.
type Reconciliation struct {
	SKUID         string
	LedgerBalance int
	StockQuantity int
}

// Drift diferencia StockQuantity - LedgerBalance (0 cuando están en sincronía).
func (r Reconciliation) Drift() int {
	return r.StockQuantity - r.LedgerBalance
}

// InSync indica si ledger y agregado coinciden.
func (r Reconciliation) InSync() bool {
	return r.Drift() == 0
}
