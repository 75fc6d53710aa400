package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
	"github.com/jhoicas/inventario-core/internal/infrastructure/memstore"
	apphttp "github.com/jhoicas/inventario-core/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventario-core/pkg/jwt"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// API completa sobre go-memdb
// ──────────────────────────────────────────────────────────────────────────────

type apiEnv struct {
	app   *fiber.App
	store *memstore.Store
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	store, err := memstore.New()
	require.NoError(t, err)
	tx := memstore.NewTxRunner(store)
	log := logger.NewNop()
	skuRepo := store.SKURepository()

	app := fiber.New(apphttp.AppConfig("inventario-core-test"))
	apphttp.Router(app, apphttp.RouterDeps{
		StockUC:     inventory.NewStockUseCase(tx, skuRepo, store.StockItemRepository(), nil, log),
		LedgerUC:    inventory.NewLedgerUseCase(store.StockMovementRepository(), store.StockItemRepository()),
		SerialUC:    inventory.NewSerialUnitUseCase(tx, skuRepo, store.SerialUnitRepository(), nil, log),
		Coordinator: inventory.NewCoordinator(tx, skuRepo, nil, log),
		ReportingUC: inventory.NewReportingUseCase(store.StockItemRepository(), store.SerialUnitRepository()),
		JWTSecret:   testJWTSecret,
	})
	return &apiEnv{app: app, store: store}
}

func (e *apiEnv) sku(t *testing.T, code string, serialized bool) string {
	t.Helper()
	s := &entity.SKU{Code: code, Name: code, Serialized: serialized, Active: true}
	require.NoError(t, e.store.SKURepository().Upsert(context.Background(), s))
	return s.ID
}

// do ejecuta la petición con el rol indicado ("" = sin token) y devuelve status y cuerpo.
func (e *apiEnv) do(t *testing.T, method, path, role string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestAPI_FlujoDeStock(t *testing.T) {
	env := newAPIEnv(t)
	id := env.sku(t, "CABLE", false)

	status, body := env.do(t, http.MethodPost, "/api/stock/"+id+"/receive", pkgjwt.RoleWarehouse,
		dto.MovementRequest{Quantity: 10, RefType: "PO", RefID: "po-1"})
	require.Equal(t, http.StatusCreated, status, string(body))
	mov := decode[dto.StockMovementDTO](t, body)
	assert.Equal(t, "IN", mov.Type)
	assert.Equal(t, "PURCHASE", mov.Reason)
	assert.Equal(t, testUserID, mov.CreatedBy)

	status, _ = env.do(t, http.MethodPost, "/api/stock/"+id+"/reserve", pkgjwt.RoleSeller, dto.QuantityRequest{Quantity: 4})
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/stock/"+id, pkgjwt.RoleSeller, nil)
	require.Equal(t, http.StatusOK, status)
	item := decode[dto.StockItemDTO](t, body)
	assert.Equal(t, 10, item.Quantity)
	assert.Equal(t, 4, item.ReservedQty)
	assert.Equal(t, 6, item.Available)

	status, body = env.do(t, http.MethodPost, "/api/stock/"+id+"/commit", pkgjwt.RoleOrderSvc,
		dto.MovementRequest{Quantity: 4, RefType: "ORDER_ITEM", RefID: "oi-1"})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, "SALE", decode[dto.StockMovementDTO](t, body).Reason)

	status, body = env.do(t, http.MethodGet, "/api/stock/"+id+"/reconcile", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, status)
	rec := decode[dto.ReconciliationDTO](t, body)
	assert.True(t, rec.InSync)
	assert.Equal(t, 6, rec.StockQuantity)
}

// Los ids de ruta se guardan en el store en memoria; peticiones posteriores con otras rutas
// no deben alterar la fila ni sus movimientos.
func TestAPI_IdsDeRutaSobrevivenEntrePeticiones(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	id := env.sku(t, "PARLANTE", false)
	otro := env.sku(t, "AUDIFONO", false)

	status, _ := env.do(t, http.MethodPost, "/api/stock/"+id+"/receive", pkgjwt.RoleAdmin, dto.MovementRequest{Quantity: 5})
	require.Equal(t, http.StatusCreated, status)
	for i := 0; i < 3; i++ {
		status, _ = env.do(t, http.MethodPost, "/api/reservations/reserve", pkgjwt.RoleOrderSvc, dto.OrderLinesRequest{
			Lines: []dto.OrderLineRequest{{SKUID: otro, Quantity: 1, RefID: "oi-x"}},
		})
		require.Equal(t, http.StatusNotFound, status)
		status, _ = env.do(t, http.MethodPost, "/api/stock/"+id+"/reserve", pkgjwt.RoleSeller, dto.QuantityRequest{Quantity: 1})
		require.Equal(t, http.StatusOK, status)
	}
	status, _ = env.do(t, http.MethodPost, "/api/stock/"+id+"/release", pkgjwt.RoleSeller, dto.QuantityRequest{Quantity: 1})
	require.Equal(t, http.StatusOK, status)

	items, err := env.store.StockItemRepository().List(ctx, repository.StockFilterAll, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1, "no debe aparecer una fila con clave alterada")
	assert.Equal(t, id, items[0].SKUID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 2, items[0].ReservedQty)

	movs, err := env.store.StockMovementRepository().List(ctx, repository.MovementFilter{SKUID: id, Limit: 10})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, id, movs[0].SKUID)
}

func TestAPI_MapeoDeErrores(t *testing.T) {
	env := newAPIEnv(t)
	id := env.sku(t, "FUNDA", false)
	status, _ := env.do(t, http.MethodPost, "/api/stock/"+id+"/receive", pkgjwt.RoleAdmin, dto.MovementRequest{Quantity: 6})
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		body   any
		status int
		code   string
	}{
		{"stock insuficiente", http.MethodPost, "/api/stock/" + id + "/reserve", pkgjwt.RoleSeller, dto.QuantityRequest{Quantity: 8}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"commit sin reserva", http.MethodPost, "/api/stock/" + id + "/commit", pkgjwt.RoleSeller, dto.MovementRequest{Quantity: 1}, http.StatusUnprocessableEntity, "RESERVATION_MISMATCH"},
		{"sku inexistente", http.MethodGet, "/api/stock/no-existe", pkgjwt.RoleSeller, nil, http.StatusNotFound, "NOT_FOUND"},
		{"cantidad cero", http.MethodPost, "/api/stock/" + id + "/adjust", pkgjwt.RoleWarehouse, dto.MovementRequest{Quantity: 0}, http.StatusBadRequest, "INVALID_MOVEMENT"},
		{"motivo desconocido", http.MethodPost, "/api/stock/" + id + "/receive", pkgjwt.RoleWarehouse, dto.MovementRequest{Quantity: 1, Reason: "REGALO"}, http.StatusBadRequest, "INVALID_MOVEMENT"},
		{"rol sin permiso", http.MethodPost, "/api/stock/" + id + "/receive", pkgjwt.RoleSeller, dto.MovementRequest{Quantity: 1}, http.StatusForbidden, "FORBIDDEN"},
		{"sin token", http.MethodGet, "/api/stock/" + id, "", nil, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"movimientos sin sku", http.MethodGet, "/api/movements", pkgjwt.RoleAdmin, nil, http.StatusBadRequest, "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.method, tt.path, tt.role, tt.body)
			assert.Equal(t, tt.status, status, string(body))
			assert.Equal(t, tt.code, decode[dto.ErrorResponse](t, body).Code)
		})
	}
}

func TestAPI_CuerpoInvalido(t *testing.T) {
	env := newAPIEnv(t)
	id := env.sku(t, "X", false)

	req := httptest.NewRequest(http.MethodPost, "/api/stock/"+id+"/reserve", bytes.NewBufferString("{no es json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleSeller))
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_LoteDeLineasDevuelveLineaFallida(t *testing.T) {
	env := newAPIEnv(t)
	a := env.sku(t, "LA", false)
	b := env.sku(t, "LB", false)
	for _, id := range []string{a, b} {
		status, _ := env.do(t, http.MethodPost, "/api/stock/"+id+"/receive", pkgjwt.RoleAdmin, dto.MovementRequest{Quantity: 2})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := env.do(t, http.MethodPost, "/api/reservations/reserve", pkgjwt.RoleOrderSvc, dto.OrderLinesRequest{
		Lines: []dto.OrderLineRequest{
			{SKUID: a, Quantity: 1, RefID: "oi-a"},
			{SKUID: b, Quantity: 5, RefID: "oi-b"},
		},
	})
	require.Equal(t, http.StatusConflict, status, string(body))
	le := decode[dto.LineErrorDTO](t, body)
	assert.Equal(t, 1, le.Index)
	assert.Equal(t, b, le.SKUID)
	assert.Equal(t, "INSUFFICIENT_STOCK", le.Code)
	assert.Equal(t, 1, le.Applied)

	status, body = env.do(t, http.MethodPost, "/api/reservations/commit", pkgjwt.RoleOrderSvc, dto.OrderLinesRequest{
		Lines: []dto.OrderLineRequest{{SKUID: a, Quantity: 1, RefID: "oi-a"}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	results := decode[[]dto.CommitResultDTO](t, body)
	require.Len(t, results, 1)
	assert.Len(t, results[0].MovementIDs, 1)

	status, _ = env.do(t, http.MethodPost, "/api/reservations/release", pkgjwt.RoleWarehouse, dto.OrderLinesRequest{
		Lines: []dto.OrderLineRequest{{SKUID: a, Quantity: 1, RefID: "oi-a"}},
	})
	assert.Equal(t, http.StatusForbidden, status, "bodega no opera reservas")
}

func TestAPI_UnidadesSerializadas(t *testing.T) {
	env := newAPIEnv(t)
	id := env.sku(t, "CEL", true)

	status, body := env.do(t, http.MethodPost, "/api/serial-units/receive", pkgjwt.RoleWarehouse, dto.ReceiveUnitsRequest{
		SKUID: id, RefType: "PO", RefID: "po-1",
		Units: []dto.SerialUnitInput{{IMEI: "356938035643809"}, {IMEI: "356938035643810"}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	units := decode[[]dto.SerialUnitDTO](t, body)
	require.Len(t, units, 2)

	status, body = env.do(t, http.MethodPost, "/api/serial-units/"+units[0].ID+"/repair-open", pkgjwt.RoleSeller, dto.UnitEventRequest{})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, body).Code)

	status, body = env.do(t, http.MethodPost, "/api/serial-units/"+units[0].ID+"/repair-open", pkgjwt.RoleSeller,
		dto.UnitEventRequest{RefType: "TICKET", RefID: "tk-1"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "REPAIR", decode[dto.SerialUnitDTO](t, body).Status)

	status, body = env.do(t, http.MethodGet, "/api/serial-units/imei/356938035643810", pkgjwt.RoleSeller, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "IN_STOCK", decode[dto.SerialUnitDTO](t, body).Status)

	status, body = env.do(t, http.MethodGet, "/api/reports/serial-counts/"+id, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, status)
	counts := decode[dto.SerialCountsDTO](t, body)
	assert.Equal(t, 1, counts.Counts["IN_STOCK"])
	assert.Equal(t, 1, counts.Counts["REPAIR"])

	status, _ = env.do(t, http.MethodPost, "/api/serial-units/receive", pkgjwt.RoleWarehouse, dto.ReceiveUnitsRequest{
		SKUID: id, Units: []dto.SerialUnitInput{{IMEI: "356938035643809"}},
	})
	assert.Equal(t, http.StatusConflict, status, "IMEI repetido")
}
