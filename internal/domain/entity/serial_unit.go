package entity

import "time"

// SerialStatus estado del ciclo de vida de una unidad física.
type SerialStatus string

const (
	SerialInStock  SerialStatus = "IN_STOCK"
	SerialSold     SerialStatus = "SOLD"
	SerialRepair   SerialStatus = "REPAIR"
	SerialLost     SerialStatus = "LOST"
	SerialReturned SerialStatus = "RETURNED"
)

// SerialUnit representa una unidad física rastreada por IMEI (único).
// Counted indica si la unidad forma parte de StockItem.Quantity de su SKU.
type SerialUnit struct {
	ID           string
	SKUID        string
	IMEI         string
	SerialNumber string
	Status       SerialStatus
	Counted      bool
	PurchaseDate *time.Time
	Notes        string
	LastRefType  string // último evento de negocio que cambió el estado
	LastRefID    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
