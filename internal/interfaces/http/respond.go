package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-core/internal/application/dto"
	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorTable traduce los errores del dominio a HTTP. El orden importa solo para errores envueltos dos veces.
var errorTable = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidMovement, fiber.StatusBadRequest, "INVALID_MOVEMENT"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrSerialUnitUnavailable, fiber.StatusConflict, "SERIAL_UNIT_UNAVAILABLE"},
	{domain.ErrReservationMismatch, fiber.StatusUnprocessableEntity, "RESERVATION_MISMATCH"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
}

func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// respondError responde con dto.ErrorResponse según el error de dominio.
// Los errores de lote (*inventory.LineError) incluyen la línea que falló.
func respondError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	var lineErr *inventory.LineError
	if errors.As(err, &lineErr) {
		return c.Status(status).JSON(dto.LineErrorDTO{
			Index:   lineErr.Index,
			SKUID:   lineErr.Line.SKUID,
			Code:    code,
			Message: msg,
			Applied: lineErr.Index,
		})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func badQuery(c *fiber.Ctx, param string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetro inválido: " + param})
}

// queryTime lee un parámetro RFC3339 o YYYY-MM-DD. nil si está vacío.
func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// page lee limit/offset con los valores por defecto de dto.PageRequest.
func page(c *fiber.Ctx) dto.PageRequest {
	var p dto.PageRequest
	if err := c.QueryParser(&p); err != nil {
		p = dto.PageRequest{}
	}
	p.Normalize()
	return p
}
