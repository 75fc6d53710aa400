package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
)

// MovementHandler consultas del ledger de movimientos (solo lectura).
type MovementHandler struct {
	uc *inventory.LedgerUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *inventory.LedgerUseCase) *MovementHandler {
	return &MovementHandler{uc: uc}
}

// ListBySKU godoc
// @Summary      Movimientos de un SKU
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        sku_id  query  string  true   "SKU"
// @Param        from    query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to      query  string  false  "Hasta (inclusivo)"
// @Success      200  {array}   dto.StockMovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *MovementHandler) ListBySKU(c *fiber.Ctx) error {
	skuID := c.Query("sku_id")
	if skuID == "" {
		return badQuery(c, "sku_id")
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return badQuery(c, "from")
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return badQuery(c, "to")
	}
	p := page(c)
	movs, err := h.uc.ListBySKU(c.Context(), skuID, from, to, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToMovementDTOs(movs))
}

// ListByRef movimientos de una referencia de negocio (línea de pedido, ticket).
// @Router /api/movements/ref/{ref_type}/{ref_id} [get]
func (h *MovementHandler) ListByRef(c *fiber.Ctx) error {
	movs, err := h.uc.ListByRef(c.Context(), c.Params("ref_type"), c.Params("ref_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToMovementDTOs(movs))
}

// ListBySerialUnit historial de una unidad serializada.
// @Router /api/movements/unit/{unit_id} [get]
func (h *MovementHandler) ListBySerialUnit(c *fiber.Ctx) error {
	movs, err := h.uc.ListBySerialUnit(c.Context(), c.Params("unit_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToMovementDTOs(movs))
}

// Sums godoc
// @Summary      Totales del ledger por motivo
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        sku_id  query  string  false  "SKU (vacío = todos)"
// @Param        from    query  string  false  "Desde"
// @Param        to      query  string  false  "Hasta"
// @Success      200  {object}  dto.LedgerSumsDTO
// @Router       /api/movements/sums [get]
func (h *MovementHandler) Sums(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return badQuery(c, "from")
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return badQuery(c, "to")
	}
	sums, err := h.uc.Sums(c.Context(), c.Query("sku_id"), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sums)
}

// Reconcile godoc
// @Summary      Conciliar ledger vs agregado
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        sku_id  path  string  true  "SKU"
// @Success      200  {object}  dto.ReconciliationDTO
// @Router       /api/stock/{sku_id}/reconcile [get]
func (h *MovementHandler) Reconcile(c *fiber.Ctx) error {
	r, err := h.uc.Reconcile(c.Context(), c.Params("sku_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToReconciliationDTO(r))
}
