package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrDuplicate             = errors.New("recurso duplicado")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrForbidden             = errors.New("acceso denegado")
	ErrConflict              = errors.New("conflicto con el estado actual")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrReservationMismatch   = errors.New("la cantidad excede la reserva vigente")
	ErrSerialUnitUnavailable = errors.New("no hay suficientes unidades serializadas disponibles")
	ErrInvalidMovement       = errors.New("movimiento de inventario inválido")
	ErrInvalidTransition     = errors.New("transición de estado de unidad inválida")
)
