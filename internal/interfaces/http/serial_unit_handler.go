package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
)

// SerialUnitHandler unidades serializadas por IMEI (protegido).
type SerialUnitHandler struct {
	uc *inventory.SerialUnitUseCase
}

// NewSerialUnitHandler construye el handler.
func NewSerialUnitHandler(uc *inventory.SerialUnitUseCase) *SerialUnitHandler {
	return &SerialUnitHandler{uc: uc}
}

// ReceiveUnits godoc
// @Summary      Ingresar unidades serializadas
// @Description  Crea una unidad IN_STOCK por IMEI y una fila IN por unidad. Un IMEI repetido revierte el lote.
// @Tags         serial-units
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveUnitsRequest  true  "sku_id, units[]"
// @Success      201  {array}   dto.SerialUnitDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/serial-units/receive [post]
func (h *SerialUnitHandler) ReceiveUnits(c *fiber.Ctx) error {
	var in dto.ReceiveUnitsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mi := inventory.MovementInput{RefType: in.RefType, RefID: in.RefID, CreatedBy: GetUserID(c)}
	if in.Reason != "" {
		r, err := dominv.ParseReason(in.Reason)
		if err != nil {
			return respondError(c, err)
		}
		mi.Reason = r
	}
	units := make([]inventory.UnitInput, 0, len(in.Units))
	for _, u := range in.Units {
		units = append(units, inventory.UnitInput{
			IMEI:         u.IMEI,
			SerialNumber: u.SerialNumber,
			PurchaseDate: u.PurchaseDate,
			Notes:        u.Notes,
		})
	}
	created, err := h.uc.ReceiveUnits(c.Context(), in.SKUID, units, mi)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToSerialUnitDTOs(created))
}

// GetByID godoc
// @Summary      Obtener unidad
// @Tags         serial-units
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la unidad"
// @Success      200  {object}  dto.SerialUnitDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/serial-units/{id} [get]
func (h *SerialUnitHandler) GetByID(c *fiber.Ctx) error {
	u, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToSerialUnitDTO(u))
}

// GetByIMEI busca una unidad por IMEI.
// @Router /api/serial-units/imei/{imei} [get]
func (h *SerialUnitHandler) GetByIMEI(c *fiber.Ctx) error {
	u, err := h.uc.GetByIMEI(c.Context(), c.Params("imei"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToSerialUnitDTO(u))
}

// List godoc
// @Summary      Listar unidades por SKU o por estado
// @Tags         serial-units
// @Security     Bearer
// @Produce      json
// @Param        sku_id  query  string  false  "SKU"
// @Param        status  query  string  false  "IN_STOCK | SOLD | REPAIR | LOST | RETURNED"
// @Success      200  {array}   dto.SerialUnitDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/serial-units [get]
func (h *SerialUnitHandler) List(c *fiber.Ctx) error {
	if skuID := c.Query("sku_id"); skuID != "" {
		units, err := h.uc.ListBySKU(c.Context(), skuID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(inventory.ToSerialUnitDTOs(units))
	}
	status := c.Query("status")
	if status == "" {
		return badQuery(c, "sku_id o status")
	}
	p := page(c)
	units, err := h.uc.ListByStatus(c.Context(), entity.SerialStatus(strings.ToUpper(status)), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToSerialUnitDTOs(units))
}

type unitEventFn func(ctx context.Context, unitID string, in inventory.UnitEventInput) (*entity.SerialUnit, error)

// event adapta una transición del ciclo de vida a un handler POST /api/serial-units/:id/<evento>.
func (h *SerialUnitHandler) event(apply unitEventFn) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in dto.UnitEventRequest
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
		u, err := apply(c.Context(), c.Params("id"), inventory.UnitEventInput{
			RefType:   in.RefType,
			RefID:     in.RefID,
			Notes:     in.Notes,
			CreatedBy: GetUserID(c),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(inventory.ToSerialUnitDTO(u))
	}
}

// OpenRepair POST /api/serial-units/:id/repair-open (ticket de reparación).
func (h *SerialUnitHandler) OpenRepair() fiber.Handler { return h.event(h.uc.OpenRepair) }

// CompleteRepair POST /api/serial-units/:id/repair-complete.
func (h *SerialUnitHandler) CompleteRepair() fiber.Handler { return h.event(h.uc.CompleteRepair) }

// Return POST /api/serial-units/:id/return (devolución del cliente).
func (h *SerialUnitHandler) Return() fiber.Handler { return h.event(h.uc.Return) }

// Inspect POST /api/serial-units/:id/inspect (reingreso tras inspección).
func (h *SerialUnitHandler) Inspect() fiber.Handler { return h.event(h.uc.Inspect) }

// WriteOff POST /api/serial-units/:id/write-off (baja por pérdida o daño).
func (h *SerialUnitHandler) WriteOff() fiber.Handler { return h.event(h.uc.WriteOff) }
