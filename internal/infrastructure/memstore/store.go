// Package memstore implementa los puertos de persistencia del inventario sobre go-memdb.
// Las transacciones de escritura de go-memdb son serializadas y se revierten con Abort, por lo que
// las operaciones condicionadas conservan la misma semántica que el adaptador de PostgreSQL.
package memstore

import (
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"
)

const (
	tableSKUs      = "skus"
	tableStock     = "stock_items"
	tableMovements = "stock_movements"
	tableUnits     = "serial_units"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableSKUs: {
				Name: tableSKUs,
				Indexes: map[string]*memdb.IndexSchema{
					"id":   {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"code": {Name: "code", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Code"}},
				},
			},
			tableStock: {
				Name: tableStock,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "SKUID"}},
				},
			},
			tableMovements: {
				Name: tableMovements,
				Indexes: map[string]*memdb.IndexSchema{
					"id":  {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"sku": {Name: "sku", Indexer: &memdb.StringFieldIndex{Field: "SKUID"}},
					"unit": {
						Name:         "unit",
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "SerialUnitID"},
					},
					"ref": {
						Name:         "ref",
						AllowMissing: true,
						Indexer: &memdb.CompoundIndex{
							AllowMissing: true,
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "RefType"},
								&memdb.StringFieldIndex{Field: "RefID"},
							},
						},
					},
				},
			},
			tableUnits: {
				Name: tableUnits,
				Indexes: map[string]*memdb.IndexSchema{
					"id":     {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"imei":   {Name: "imei", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "IMEI"}},
					"sku":    {Name: "sku", Indexer: &memdb.StringFieldIndex{Field: "SKUID"}},
					"status": {Name: "status", Indexer: &memdb.StringFieldIndex{Field: "Status"}},
					"sku_status": {
						Name: "sku_status",
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.StringFieldIndex{Field: "SKUID"},
								&memdb.StringFieldIndex{Field: "Status"},
							},
						},
					},
				},
			},
		},
	}
}

// Store base de datos en memoria compartida por los repositorios.
type Store struct {
	db  *memdb.MemDB
	seq atomic.Uint64 // orden de inserción del ledger
}

// New crea una base vacía.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("memstore: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// scope es la transacción en curso (si el repo está atado a una) o la base completa.
type scope struct {
	store *Store
	txn   *memdb.Txn
}

func (s scope) read() *memdb.Txn {
	if s.txn != nil {
		return s.txn
	}
	return s.store.db.Txn(false)
}

// write ejecuta fn en la transacción atada o en una propia que se confirma solo si fn no falla.
func (s scope) write(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.store.db.Txn(true)
	defer txn.Abort()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// SKURepository repositorio de SKUs sin transacción.
func (s *Store) SKURepository() *SKURepo { return &SKURepo{scope{store: s}} }

// StockItemRepository repositorio del agregado sin transacción (lecturas y umbrales).
func (s *Store) StockItemRepository() *StockItemRepo { return &StockItemRepo{scope{store: s}} }

// StockMovementRepository lectura del ledger sin transacción.
func (s *Store) StockMovementRepository() *StockMovementRepo {
	return &StockMovementRepo{scope{store: s}}
}

// SerialUnitRepository unidades serializadas sin transacción.
func (s *Store) SerialUnitRepository() *SerialUnitRepo { return &SerialUnitRepo{scope{store: s}} }

// collect recorre un iterador de go-memdb.
func collect[T any](it memdb.ResultIterator) []T {
	var out []T
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, obj.(T))
	}
	return out
}
