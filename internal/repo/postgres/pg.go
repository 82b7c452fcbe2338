package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	constraintUsersEmail    = "users_email_key"
	constraintUsersGoogleID = "users_google_id_key"
	constraintClientsUserID = "clients_user_id_key"
	constraintClientsFK     = "hours_client_id_fkey"
)

// violates reports whether err is a postgres error with the given SQLSTATE
// raised by the named constraint.
func violates(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code && pgErr.ConstraintName == constraint
}

func isUniqueOn(err error, constraint string) bool {
	return violates(err, "23505", constraint)
}

func isForeignKeyOn(err error, constraint string) bool {
	return violates(err, "23503", constraint)
}

// noRows swaps pgx.ErrNoRows for the domain's not-found sentinel. It runs
// after ObserveDB so empty lookups are not counted as failures.
func noRows(err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}
