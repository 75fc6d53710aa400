package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC     *inventory.StockUseCase
	LedgerUC    *inventory.LedgerUseCase
	SerialUC    *inventory.SerialUnitUseCase
	Coordinator *inventory.Coordinator
	ReportingUC *inventory.ReportingUseCase
	JWTSecret   string
}

// AppConfig configuración de Fiber para la API.
// Immutable: los ids de ruta (c.Params) terminan guardados en el store en memoria; sin copia apuntarían
// al buffer de fasthttp que se reutiliza en la siguiente petición.
func AppConfig(appName string) fiber.Config {
	return fiber.Config{
		AppName:      appName,
		Immutable:    true,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	}
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Escrituras de bodega: ingreso, ajustes, bajas
	warehouseOnly := RequireRole(jwt.RoleAdmin, jwt.RoleWarehouse)
	// Reservas: flujo de pedidos
	ordersOnly := RequireRole(jwt.RoleAdmin, jwt.RoleOrderSvc, jwt.RoleSeller)

	// Stock (agregado)
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC)
	movementHandler := NewMovementHandler(deps.LedgerUC)
	stock.Get("/", stockHandler.ListStock)
	stock.Get("/:sku_id", stockHandler.GetStock)
	stock.Get("/:sku_id/reconcile", movementHandler.Reconcile)
	stock.Post("/:sku_id/reserve", ordersOnly, stockHandler.Reserve)
	stock.Post("/:sku_id/release", ordersOnly, stockHandler.Release)
	stock.Post("/:sku_id/commit", ordersOnly, stockHandler.Commit)
	stock.Post("/:sku_id/receive", warehouseOnly, stockHandler.Receive)
	stock.Post("/:sku_id/adjust", warehouseOnly, stockHandler.Adjust)
	stock.Put("/:sku_id/quantity", warehouseOnly, stockHandler.AdjustTo)
	stock.Put("/:sku_id/levels", warehouseOnly, stockHandler.SetLevels)

	// Reservas por líneas de pedido
	reservations := protected.Group("/reservations", ordersOnly)
	reservationHandler := NewReservationHandler(deps.Coordinator)
	reservations.Post("/reserve", reservationHandler.Reserve)
	reservations.Post("/commit", reservationHandler.Commit)
	reservations.Post("/release", reservationHandler.Release)

	// Ledger (solo lectura)
	movements := protected.Group("/movements")
	movements.Get("/", movementHandler.ListBySKU)
	movements.Get("/sums", movementHandler.Sums)
	movements.Get("/ref/:ref_type/:ref_id", movementHandler.ListByRef)
	movements.Get("/unit/:unit_id", movementHandler.ListBySerialUnit)

	// Unidades serializadas
	units := protected.Group("/serial-units")
	unitHandler := NewSerialUnitHandler(deps.SerialUC)
	units.Get("/", unitHandler.List)
	units.Get("/imei/:imei", unitHandler.GetByIMEI)
	units.Get("/:id", unitHandler.GetByID)
	units.Post("/receive", warehouseOnly, unitHandler.ReceiveUnits)
	units.Post("/:id/repair-open", unitHandler.OpenRepair())
	units.Post("/:id/repair-complete", unitHandler.CompleteRepair())
	units.Post("/:id/return", unitHandler.Return())
	units.Post("/:id/inspect", warehouseOnly, unitHandler.Inspect())
	units.Post("/:id/write-off", warehouseOnly, unitHandler.WriteOff())

	// Reportes
	reports := protected.Group("/reports")
	reportHandler := NewReportHandler(deps.ReportingUC)
	reports.Get("/summary", reportHandler.Summary)
	reports.Get("/valuation", reportHandler.Valuation)
	reports.Get("/low-stock", reportHandler.LowStock)
	reports.Get("/serial-counts/:sku_id", reportHandler.SerialCounts)
}
