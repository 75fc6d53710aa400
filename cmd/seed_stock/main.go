// seed_stock carga el saldo inicial de inventario desde un CSV (exporte del ERP anterior).
//
// Uso: go run ./cmd/seed_stock [-latin1] [-created-by usuario] saldo.csv
//
// Cada SKU se registra en el catálogo; los no serializados reciben su cantidad con una fila
// PURCHASE en el ledger y los serializados una unidad IN_STOCK por IMEI.
// Usa la misma configuración que la API (DATABASE_URL, STORE_DRIVER...).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/internal/infrastructure/memstore"
	"github.com/jhoicas/inventario-core/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-core/pkg/config"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

const openingRefType = "OPENING_BALANCE"

func main() {
	latin1 := flag.Bool("latin1", false, "el archivo viene en ISO-8859-1")
	createdBy := flag.String("created-by", "seed_stock", "usuario registrado en el ledger")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Uso: seed_stock [-latin1] [-created-by usuario] saldo.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: "seed_stock"})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := readRows(newCSVReader(f, *latin1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}
	batches := groupRows(rows)

	ctx := context.Background()
	st, err := open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conectar almacenamiento: %v\n", err)
		os.Exit(1)
	}
	defer st.close()

	s := &seeder{
		skuRepo:   st.skuRepo,
		stockUC:   inventory.NewStockUseCase(st.txRunner, st.skuRepo, st.stockRepo, nil, log),
		serialUC:  inventory.NewSerialUnitUseCase(st.txRunner, st.skuRepo, st.unitRepo, nil, log),
		createdBy: *createdBy,
		refID:     flag.Arg(0),
	}
	sum := s.run(ctx, batches)
	fmt.Printf("SKUs: %d  unidades no serializadas: %d  unidades serializadas: %d  errores: %d\n",
		sum.skus, sum.quantity, sum.units, len(sum.errors))
	for _, e := range sum.errors {
		fmt.Fprintln(os.Stderr, "  "+e.Error())
	}
	if len(sum.errors) > 0 {
		os.Exit(1)
	}
}

type summary struct {
	skus     int
	quantity int
	units    int
	errors   []error
}

// seeder aplica los lotes SKU por SKU; un SKU con error no detiene los demás.
type seeder struct {
	skuRepo   repository.SKURepository
	stockUC   *inventory.StockUseCase
	serialUC  *inventory.SerialUnitUseCase
	createdBy string
	refID     string
}

func (s *seeder) run(ctx context.Context, batches []*skuBatch) summary {
	var sum summary
	for _, b := range batches {
		sku := &entity.SKU{
			Code:       b.Code,
			Name:       b.Name,
			Serialized: b.Serialized,
			Active:     true,
			CostPrice:  b.CostPrice,
		}
		if err := s.skuRepo.Upsert(ctx, sku); err != nil {
			sum.errors = append(sum.errors, fmt.Errorf("sku %s: %w", b.Code, err))
			continue
		}
		sum.skus++
		in := inventory.MovementInput{
			Reason:    entity.ReasonPurchase,
			RefType:   openingRefType,
			RefID:     s.refID,
			Notes:     "saldo inicial",
			CreatedBy: s.createdBy,
		}
		if b.Serialized {
			units := make([]inventory.UnitInput, 0, len(b.Units))
			for _, u := range b.Units {
				units = append(units, inventory.UnitInput{IMEI: u.IMEI, SerialNumber: u.SerialNumber})
			}
			created, err := s.serialUC.ReceiveUnits(ctx, sku.ID, units, in)
			if err != nil {
				sum.errors = append(sum.errors, fmt.Errorf("sku %s: %w", b.Code, err))
				continue
			}
			sum.units += len(created)
			if b.MinStock > 0 {
				if _, err := s.stockUC.SetStockLevels(ctx, sku.ID, b.MinStock, nil); err != nil {
					sum.errors = append(sum.errors, fmt.Errorf("sku %s: min_stock: %w", b.Code, err))
				}
			}
			continue
		}
		if b.Quantity == 0 {
			continue
		}
		if _, err := s.stockUC.Receive(ctx, sku.ID, b.Quantity, b.MinStock, in); err != nil {
			sum.errors = append(sum.errors, fmt.Errorf("sku %s: %w", b.Code, err))
			continue
		}
		sum.quantity += b.Quantity
	}
	return sum
}

type stores struct {
	txRunner  inventory.TxRunner
	skuRepo   repository.SKURepository
	stockRepo repository.StockItemRepository
	unitRepo  repository.SerialUnitRepository
	close     func()
}

func open(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		store, err := memstore.New()
		if err != nil {
			return nil, err
		}
		return &stores{
			txRunner:  memstore.NewTxRunner(store),
			skuRepo:   store.SKURepository(),
			stockRepo: store.StockItemRepository(),
			unitRepo:  store.SerialUnitRepository(),
			close:     func() {},
		}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		txRunner:  postgres.NewTxRunner(pool),
		skuRepo:   postgres.NewSKURepository(pool),
		stockRepo: postgres.NewStockItemRepository(pool),
		unitRepo:  postgres.NewSerialUnitRepository(pool),
		close:     pool.Close,
	}, nil
}
