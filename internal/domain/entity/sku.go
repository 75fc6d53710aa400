package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SKU representa una variante vendible (modelo/color/almacenamiento).
// Serialized indica que cada unidad física se rastrea por IMEI/número de serie.
type SKU struct {
	ID         string
	Code       string // código único (barcode interno)
	Name       string
	Serialized bool
	Active     bool
	CostPrice  decimal.Decimal // costo unitario para valorización de inventario
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
