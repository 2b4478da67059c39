package postgres

import (
	"errors"

	"github.com/chris/agent-wallet-ledger/pkg/storage"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL integrity constraint violation codes.
const (
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// mapPgError turns integrity violations into storage.ConstraintError and
// returns every other error unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	var kind storage.ConstraintKind
	switch pgErr.Code {
	case codeUniqueViolation:
		kind = storage.ConstraintDuplicate
	case codeForeignKeyViolation:
		kind = storage.ConstraintForeignKey
	case codeNotNullViolation:
		kind = storage.ConstraintNotNull
	case codeCheckViolation:
		kind = storage.ConstraintCheck
	default:
		return err
	}

	constraint := pgErr.ConstraintName
	if constraint == "" && pgErr.ColumnName != "" {
		constraint = pgErr.TableName + "." + pgErr.ColumnName
	}
	return &storage.ConstraintError{Kind: kind, Constraint: constraint, Err: pgErr}
}
