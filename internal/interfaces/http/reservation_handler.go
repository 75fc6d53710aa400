package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
)

// ReservationHandler expone el coordinador de reservas al flujo de pedidos (protegido).
// Cada línea se aplica en su propia transacción; ante un fallo responde con dto.LineErrorDTO.
type ReservationHandler struct {
	coord *inventory.Coordinator
}

// NewReservationHandler construye el handler.
func NewReservationHandler(coord *inventory.Coordinator) *ReservationHandler {
	return &ReservationHandler{coord: coord}
}

// Reserve godoc
// @Summary      Reservar líneas de pedido
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OrderLinesRequest  true  "lines: sku_id, quantity, ref_id"
// @Success      204
// @Failure      409  {object}  dto.LineErrorDTO
// @Router       /api/reservations/reserve [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	lines, ok := h.parseLines(c)
	if !ok {
		return badBody(c)
	}
	if err := h.coord.ReserveLines(c.Context(), lines); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Commit godoc
// @Summary      Confirmar líneas de pedido (venta)
// @Description  Descuenta stock y reserva, escribe el ledger y, para SKUs serializados, asigna unidades.
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OrderLinesRequest  true  "lines"
// @Success      201  {array}   dto.CommitResultDTO
// @Failure      409  {object}  dto.LineErrorDTO
// @Failure      422  {object}  dto.LineErrorDTO
// @Router       /api/reservations/commit [post]
func (h *ReservationHandler) Commit(c *fiber.Ctx) error {
	lines, ok := h.parseLines(c)
	if !ok {
		return badBody(c)
	}
	results, err := h.coord.CommitLines(c.Context(), lines)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.CommitResultDTO, 0, len(results))
	for _, r := range results {
		out = append(out, inventory.ToCommitResultDTO(r))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Release godoc
// @Summary      Liberar reservas de líneas de pedido
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OrderLinesRequest  true  "lines"
// @Success      204
// @Failure      422  {object}  dto.LineErrorDTO
// @Router       /api/reservations/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	lines, ok := h.parseLines(c)
	if !ok {
		return badBody(c)
	}
	if err := h.coord.ReleaseLines(c.Context(), lines); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ReservationHandler) parseLines(c *fiber.Ctx) ([]inventory.OrderLine, bool) {
	var in dto.OrderLinesRequest
	if err := c.BodyParser(&in); err != nil || len(in.Lines) == 0 {
		return nil, false
	}
	userID := GetUserID(c)
	lines := make([]inventory.OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.OrderLine{
			SKUID:     l.SKUID,
			Quantity:  l.Quantity,
			RefType:   l.RefType,
			RefID:     l.RefID,
			CreatedBy: userID,
		})
	}
	return lines, true
}
