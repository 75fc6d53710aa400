package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/internal/infrastructure/memstore"
	"github.com/jhoicas/inventario-core/internal/infrastructure/messaging"
	"github.com/jhoicas/inventario-core/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-core/internal/interfaces/http"
	"github.com/jhoicas/inventario-core/pkg/config"
	"github.com/jhoicas/inventario-core/pkg/logger"
	"github.com/jhoicas/inventario-core/pkg/observability"
)

const version = "0.1.0"

// backend repositorios de lectura y TxRunner del driver elegido.
type backend struct {
	txRunner  inventory.TxRunner
	skuRepo   repository.SKURepository
	stockRepo repository.StockItemRepository
	movRepo   repository.StockMovementRepository
	unitRepo  repository.SerialUnitRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Otel, cfg.App.Name, version)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer be.close()

	var publisher inventory.EventPublisher = inventory.NopPublisher{}
	if cfg.Kafka.Enabled() {
		kp := messaging.NewKafkaPublisher(messaging.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.StockTopic))
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar publicador kafka")
			}
		}()
		publisher = kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.StockTopic).Msg("publicación de eventos habilitada")
	}

	stockUC := inventory.NewStockUseCase(be.txRunner, be.skuRepo, be.stockRepo, publisher, log.Component("stock"))
	ledgerUC := inventory.NewLedgerUseCase(be.movRepo, be.stockRepo)
	serialUC := inventory.NewSerialUnitUseCase(be.txRunner, be.skuRepo, be.unitRepo, publisher, log.Component("serial"))
	coordinator := inventory.NewCoordinator(be.txRunner, be.skuRepo, publisher, log.Component("coordinator"))
	reportingUC := inventory.NewReportingUseCase(be.stockRepo, be.unitRepo)

	app := fiber.New(httpRouter.AppConfig(cfg.App.Name))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:     stockUC,
		LedgerUC:    ledgerUC,
		SerialUC:    serialUC,
		Coordinator: coordinator,
		ReportingUC: reportingUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cerrar exportador de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

// openBackend abre PostgreSQL (aplicando el esquema) o el almacén en memoria según STORE_DRIVER.
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		store, err := memstore.New()
		if err != nil {
			return nil, err
		}
		log.Warn().Msg("STORE_DRIVER=memory: el inventario no se persiste")
		return &backend{
			txRunner:  memstore.NewTxRunner(store),
			skuRepo:   store.SKURepository(),
			stockRepo: store.StockItemRepository(),
			movRepo:   store.StockMovementRepository(),
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
	return &backend{
		txRunner:  postgres.NewTxRunner(pool),
		skuRepo:   postgres.NewSKURepository(pool),
		stockRepo: postgres.NewStockItemRepository(pool),
		movRepo:   postgres.NewStockMovementRepository(pool),
		unitRepo:  postgres.NewSerialUnitRepository(pool),
		close:     pool.Close,
	}, nil
}
