package helper

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	PGUniqueViolation     = "23505"
	PGForeignKeyViolation = "23503"
	PGCheckViolation      = "23514"
)

// PGCode extracts the SQLSTATE from a pgx or lib/pq error, "" otherwise.
func PGCode(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return err != nil && PGCode(err) == PGUniqueViolation
}

// MapPGError turns a driver error into an HTTP status and a message safe
// to return to the client.
func MapPGError(err error) (int, string) {
	switch PGCode(err) {
	case PGUniqueViolation:
		return http.StatusConflict, "duplicate data (unique violation)"
	case PGForeignKeyViolation:
		return http.StatusBadRequest, "referenced row not found (foreign key violation)"
	case PGCheckViolation:
		return http.StatusBadRequest, "value rejected by a database check"
	}
	return http.StatusInternalServerError, "internal server error"
}
