package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/inventario-core/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isCheckViolation detecta el CHECK (23514) que protege 0 <= reserved_qty <= quantity.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// isInvalidText detecta un valor que no convierte al tipo de la columna (22P02), p. ej. un id que no es UUID.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// notFoundOr traduce pgx.ErrNoRows a domain.ErrNotFound y envuelve el resto con op.
// Un id mal formado no identifica ninguna fila: también es ErrNotFound.
func notFoundOr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// queryErr envuelve errores de listados y sumas; un filtro mal formado es ErrInvalidInput.
func queryErr(err error, op string) error {
	if isInvalidText(err) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullIfEmpty guarda NULL para referencias opcionales vacías.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// isForeignKeyViolation detecta una referencia a un SKU inexistente (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
