package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
)

// ReportHandler reportes de solo lectura sobre el agregado y las unidades.
type ReportHandler struct {
	uc *inventory.ReportingUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *inventory.ReportingUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Summary godoc
// @Summary      Totales globales de stock
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryDTO
// @Router       /api/reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	s, err := h.uc.Summary(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s)
}

// Valuation godoc
// @Summary      Valorización del inventario a costo
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ValuationDTO
// @Router       /api/reports/valuation [get]
func (h *ReportHandler) Valuation(c *fiber.Ctx) error {
	v, err := h.uc.Valuation(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(v)
}

// LowStock godoc
// @Summary      SKUs en o bajo el stock mínimo
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {array}  dto.StockItemDTO
// @Router       /api/reports/low-stock [get]
func (h *ReportHandler) LowStock(c *fiber.Ctx) error {
	p := page(c)
	items, err := h.uc.LowStock(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// SerialCounts unidades por estado de un SKU.
// @Router /api/reports/serial-counts/{sku_id} [get]
func (h *ReportHandler) SerialCounts(c *fiber.Ctx) error {
	out, err := h.uc.SerialCounts(c.Context(), c.Params("sku_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
