package inventory

import "github.com/shopspring/decimal"

// StockValue valoriza una cantidad al costo unitario: Cantidad * CostoUnitario.
// Cantidades negativas se tratan como cero (no debería ocurrir con el invariante quantity >= 0).
func StockValue(quantity int, unitCost decimal.Decimal) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(quantity)).Mul(unitCost)
}
