package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories translate into domain errors.
const (
	codeForeignKeyViolation       = "23503"
	codeUniqueViolation           = "23505"
	codeInvalidTextRepresentation = "22P02"
)

// IsForeignKeyViolation reports whether err is a Postgres FK violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

// IsUniqueViolation reports whether err is a Postgres unique violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// IsInvalidTextRepresentation reports whether err is a Postgres cast failure,
// such as a malformed uuid literal.
func IsInvalidTextRepresentation(err error) bool {
	return hasCode(err, codeInvalidTextRepresentation)
}
