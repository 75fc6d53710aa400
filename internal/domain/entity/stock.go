package entity

import "time"

// StockItem es el agregado de stock de un SKU (1:1).
// Invariante: 0 <= ReservedQty <= Quantity. Solo se muta mediante operaciones condicionales atómicas.
type StockItem struct {
	SKUID       string
	Quantity    int
	ReservedQty int
	MinStock    int
	MaxStock    *int // opcional
	UpdatedAt   time.Time
}

// Available devuelve Quantity - ReservedQty.
func (s StockItem) Available() int {
	return s.Quantity - s.ReservedQty
}

// LowStock indica si la cantidad está en o por debajo del mínimo configurado.
func (s StockItem) LowStock() bool {
	return s.Quantity <= s.MinStock
}
