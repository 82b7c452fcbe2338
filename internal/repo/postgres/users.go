package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/freelancehours/internal/domain/user"
	"github.com/geocoder89/freelancehours/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, name, google_id, role, created_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.GoogleID,
		&u.Role,
		&u.CreatedAt,
	)

	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) getOne(ctx context.Context, op, where string, arg any) (u user.User, err error) {
	err = r.prom.ObserveDB(op, func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return err
	})
	err = noRows(err, user.ErrNotFound)
	return
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `id = $1`, id)
}

func (r *UsersRepo) GetByGoogleID(ctx context.Context, googleID string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_google_id", `google_id = $1`, googleID)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `email = $1`, user.NormalizeEmail(email))
}

func (r *UsersRepo) GetAdmin(ctx context.Context) (u user.User, err error) {
	err = r.prom.ObserveDB("users.get_admin", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE role = 'admin' ORDER BY id ASC LIMIT 1`))
		return err
	})
	err = noRows(err, user.ErrNotFound)
	return
}

// LinkGoogleID overwrites the provider id of an existing row.
func (r *UsersRepo) LinkGoogleID(ctx context.Context, id int64, googleID string) (u user.User, err error) {
	err = r.prom.ObserveDB("users.link_google_id", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users SET google_id = $2 WHERE id = $1 RETURNING `+userColumns,
			id, googleID))
		return err
	})

	if isUniqueOn(err, constraintUsersGoogleID) {
		return user.User{}, user.ErrProviderIDTaken
	}
	err = noRows(err, user.ErrNotFound)
	return
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	return insertUser(ctx, r.pool, r.prom, nu)
}

// EnsureAdmin returns the user owning email, creating it with role admin
// and no provider id when absent. The bool reports whether a row was created.
func (r *UsersRepo) EnsureAdmin(ctx context.Context, email, name string) (user.User, bool, error) {
	u, err := r.GetByEmail(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, false, err
	}

	u, err = r.Create(ctx, user.NewUser{Email: email, Name: name, Role: user.RoleAdmin})
	if errors.Is(err, user.ErrEmailTaken) {
		// lost a race with another process seeding the same admin
		u, err = r.GetByEmail(ctx, email)
		return u, false, err
	}
	if err != nil {
		return user.User{}, false, err
	}
	return u, true, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertUser(ctx context.Context, q querier, prom *observability.Prom, nu user.NewUser) (u user.User, err error) {
	role := nu.Role
	if !role.Valid() {
		role = user.RoleClient
	}

	err = prom.ObserveDB("users.create", func() error {
		u, err = scanUser(q.QueryRow(ctx,
			`INSERT INTO users (email, name, google_id, role)
			VALUES ($1, $2, $3, $4)
			RETURNING `+userColumns,
			user.NormalizeEmail(nu.Email), nu.Name, nu.GoogleID, string(role)))
		return err
	})

	switch {
	case isUniqueOn(err, constraintUsersEmail):
		return user.User{}, user.ErrEmailTaken
	case isUniqueOn(err, constraintUsersGoogleID):
		return user.User{}, user.ErrProviderIDTaken
	}
	return
}
