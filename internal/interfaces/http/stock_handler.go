package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/entity"
	dominv "github.com/jhoicas/inventario-core/internal/domain/inventory"
	"github.com/jhoicas/inventario-core/internal/domain/repository"
)

// StockHandler maneja el agregado de stock por SKU (protegido).
type StockHandler struct {
	uc *inventory.StockUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// GetStock godoc
// @Summary      Stock de un SKU
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        sku_id  path  string  true  "SKU"
// @Success      200  {object}  dto.StockItemDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{sku_id} [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	item, err := h.uc.GetStock(c.Context(), c.Params("sku_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToStockItemDTO(item))
}

// ListStock godoc
// @Summary      Listar stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        filter  query  string  false  "low | out | in | reserved"
// @Param        limit   query  int     false  "Límite"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {array}   dto.StockItemDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock [get]
func (h *StockHandler) ListStock(c *fiber.Ctx) error {
	p := page(c)
	items, err := h.uc.ListStock(c.Context(), repository.StockFilter(c.Query("filter")), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToStockItemDTOs(items))
}

// Reserve godoc
// @Summary      Reservar cantidad (sin movimiento de ledger)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sku_id  path  string               true  "SKU"
// @Param        body    body  dto.QuantityRequest  true  "quantity > 0"
// @Success      200  {object}  dto.StockItemDTO
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/{sku_id}/reserve [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	var in dto.QuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.uc.Reserve(c.Context(), c.Params("sku_id"), in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToStockItemDTO(item))
}

// Release godoc
// @Summary      Liberar reserva (se recorta a lo reservado)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sku_id  path  string               true  "SKU"
// @Param        body    body  dto.QuantityRequest  true  "quantity > 0"
// @Success      200  {object}  dto.StockItemDTO
// @Router       /api/stock/{sku_id}/release [post]
func (h *StockHandler) Release(c *fiber.Ctx) error {
	var in dto.QuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.uc.Release(c.Context(), c.Params("sku_id"), in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToStockItemDTO(item))
}

// Commit godoc
// @Summary      Confirmar salida reservada (SKU no serializado)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sku_id  path  string               true  "SKU"
// @Param        body    body  dto.MovementRequest  true  "quantity, ref_type, ref_id"
// @Success      201  {object}  dto.StockMovementDTO
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/stock/{sku_id}/commit [post]
func (h *StockHandler) Commit(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mi, err := movementInput(c, in, entity.ReasonSale)
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.uc.Commit(c.Context(), c.Params("sku_id"), in.Quantity, mi)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementDTO(m))
}

// Receive godoc
// @Summary      Ingreso de mercancía (SKU no serializado)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sku_id  path  string               true  "SKU"
// @Param        body    body  dto.MovementRequest  true  "quantity, min_stock (solo al crear), reason"
// @Success      201  {object}  dto.StockMovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{sku_id}/receive [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mi, err := movementInput(c, in, entity.ReasonPurchase)
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.uc.Receive(c.Context(), c.Params("sku_id"), in.Quantity, in.MinStock, mi)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementDTO(m))
}

// Adjust godoc
// @Summary      Ajuste con signo (conteo físico, daño)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sku_id  path  string               true  "SKU"
// @Param        body    body  dto.MovementRequest  true  "quantity con signo, distinto de cero"
// @Success      201  {object}  dto.StockMovementDTO
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/{sku_id}/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mi, err := movementInput(c, in, entity.ReasonAdjustment)
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.uc.Adjust(c.Context(), c.Params("sku_id"), in.Quantity, mi)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementDTO(m))
}

// AdjustTo godoc
// @Summary      Fijar la cantidad física (genera el ajuste por la diferencia)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sku_id  path  string               true  "SKU"
// @Param        body    body  dto.AdjustToRequest  true  "quantity >= reserved_qty"
// @Success      201  {object}  dto.StockMovementDTO
// @Success      204
// @Router       /api/stock/{sku_id}/quantity [put]
func (h *StockHandler) AdjustTo(c *fiber.Ctx) error {
	var in dto.AdjustToRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.uc.AdjustTo(c.Context(), c.Params("sku_id"), in.Quantity, inventory.MovementInput{
		Reason:    entity.ReasonAdjustment,
		RefType:   "PHYSICAL_COUNT",
		Notes:     in.Notes,
		CreatedBy: GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	if m == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementDTO(m))
}

// SetLevels godoc
// @Summary      Actualizar stock mínimo y máximo
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        sku_id  path  string                  true  "SKU"
// @Param        body    body  dto.StockLevelsRequest  true  "min_stock, max_stock"
// @Success      200  {object}  dto.StockItemDTO
// @Router       /api/stock/{sku_id}/levels [put]
func (h *StockHandler) SetLevels(c *fiber.Ctx) error {
	var in dto.StockLevelsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.uc.SetStockLevels(c.Context(), c.Params("sku_id"), in.MinStock, in.MaxStock)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inventory.ToStockItemDTO(item))
}

// movementInput arma la entrada del ledger con el usuario del token; def aplica si reason viene vacío.
func movementInput(c *fiber.Ctx, in dto.MovementRequest, def entity.MovementReason) (inventory.MovementInput, error) {
	reason := def
	if in.Reason != "" {
		r, err := dominv.ParseReason(in.Reason)
		if err != nil {
			return inventory.MovementInput{}, err
		}
		reason = r
	}
	return inventory.MovementInput{
		Reason:    reason,
		RefType:   in.RefType,
		RefID:     in.RefID,
		Notes:     in.Notes,
		CreatedBy: GetUserID(c),
	}, nil
}
