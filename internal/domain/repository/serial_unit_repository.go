package repository

import (
	"context"

	"github.com/jhoicas/inventario-core/internal/domain/entity"
)

// UnitRef referencia del evento de negocio que provoca un cambio de estado.
type UnitRef struct {
	RefType string
	RefID   string
}

// SerialUnitRepository puerto de persistencia de unidades serializadas.
type SerialUnitRepository interface {
	// Create inserta la unidad; ErrDuplicate si el IMEI ya existe.
	Create(ctx context.Context, unit *entity.SerialUnit) error
	GetByID(ctx context.Context, id string) (*entity.SerialUnit, error)
	GetByIMEI(ctx context.Context, imei string) (*entity.SerialUnit, error)
	ListBySKU(ctx context.Context, skuID string) ([]*entity.SerialUnit, error)
	ListByStatus(ctx context.Context, status entity.SerialStatus, limit, offset int) ([]*entity.SerialUnit, error)
	CountByStatus(ctx context.Context, skuID string, status entity.SerialStatus) (int, error)

	// ClaimInStock reclama exactamente n unidades IN_STOCK del SKU pasándolas a SOLD en una sola
	// escritura por conjunto. Si hay menos de n reclamables devuelve ErrSerialUnitUnavailable y el
	// llamador debe abortar la transacción.
	ClaimInStock(ctx context.Context, skuID string, n int, ref UnitRef) ([]*entity.SerialUnit, error)

	// Transition aplica from -> to solo si la unidad sigue en from (escritura condicionada).
	// ErrInvalidTransition si el estado cambió concurrentemente, ErrNotFound si no existe.
	Transition(ctx context.Context, id string, from, to entity.SerialStatus, counted bool, ref UnitRef) (*entity.SerialUnit, error)
}
