package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/user"
	"github.com/geocoder89/freelancehours/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, name, freelancer_id, user_id, email, status, notes, created_at`

type ClientsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewClientsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ClientsRepo {
	return &ClientsRepo{pool: pool, prom: prom}
}

func scanClient(row pgx.Row) (client.Client, error) {
	var c client.Client

	err := row.Scan(&c.ID, &c.Name, &c.FreelancerID, &c.UserID, &c.Email, &c.Status, &c.Notes, &c.CreatedAt)
	if err != nil {
		return client.Client{}, err
	}
	return c, nil
}

func (r *ClientsRepo) list(ctx context.Context, op, query string, args ...any) (out []client.Client, err error) {
	var rows pgx.Rows

	err = r.prom.ObserveDB(op, func() error {
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out = make([]client.Client, 0)

	for rows.Next() {
		c, e := scanClient(rows)
		if e != nil {
			return nil, e
		}
		out = append(out, c)
	}

	if e := rows.Err(); e != nil {
		r.prom.CountDBError(op, "rows_err")
		return nil, e
	}

	return out, nil
}

func (r *ClientsRepo) ListApproved(ctx context.Context) ([]client.Client, error) {
	return r.list(ctx, "clients.list_approved",
		`SELECT `+clientColumns+` FROM clients WHERE status = 'approved' ORDER BY id ASC`)
}

func (r *ClientsRepo) ListApprovedForUser(ctx context.Context, userID int64) ([]client.Client, error) {
	return r.list(ctx, "clients.list_approved_for_user",
		`SELECT `+clientColumns+` FROM clients WHERE status = 'approved' AND user_id = $1 ORDER BY id ASC`,
		userID)
}

func (r *ClientsRepo) ListPending(ctx context.Context) ([]client.Client, error) {
	return r.list(ctx, "clients.list_pending",
		`SELECT `+clientColumns+` FROM clients WHERE status = 'pending' ORDER BY created_at ASC, id ASC`)
}

func (r *ClientsRepo) GetByID(ctx context.Context, id int64) (c client.Client, err error) {
	err = r.prom.ObserveDB("clients.get_by_id", func() error {
		c, err = scanClient(r.pool.QueryRow(ctx,
			`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
		return err
	})
	err = noRows(err, client.ErrNotFound)
	return
}

func (r *ClientsRepo) GetByUserID(ctx context.Context, userID int64) (c client.Client, err error) {
	err = r.prom.ObserveDB("clients.get_by_user_id", func() error {
		c, err = scanClient(r.pool.QueryRow(ctx,
			`SELECT `+clientColumns+` FROM clients WHERE user_id = $1`, userID))
		return err
	})
	err = noRows(err, client.ErrNotFound)
	return
}

// Create adds an approved client in one transaction: the user owning the
// email is found or pre-provisioned, then the client row is linked to it.
func (r *ClientsRepo) Create(ctx context.Context, p client.CreateParams) (c client.Client, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	email := user.NormalizeEmail(p.Email)

	var userID int64
	err = r.prom.ObserveDB("clients.create_tx.find_user", func() error {
		return tx.QueryRow(ctx, `SELECT id FROM users WHERE email = $1 FOR UPDATE`, email).Scan(&userID)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		var u user.User
		u, err = insertUser(ctx, tx, r.prom, user.NewUser{Email: email, Name: p.Name, Role: user.RoleClient})
		userID = u.ID
	}

	if err != nil {
		return
	}

	err = r.prom.ObserveDB("clients.create_tx.insert", func() error {
		c, err = scanClient(tx.QueryRow(ctx,
			`INSERT INTO clients (name, freelancer_id, user_id, email, status)
			VALUES ($1, $2, $3, $4, 'approved')
			RETURNING `+clientColumns,
			p.Name, p.FreelancerID, userID, email))
		return err
	})

	if isUniqueOn(err, constraintClientsUserID) {
		err = client.ErrUserHasClient
		return
	}

	if err != nil {
		return
	}

	err = tx.Commit(ctx)
	return
}

// Apply inserts a pending application. The pre-check gives the friendly
// error; clients_user_id_key closes the race between two concurrent applies.
func (r *ClientsRepo) Apply(ctx context.Context, p client.ApplyParams) (c client.Client, err error) {
	var exists bool

	err = r.prom.ObserveDB("clients.apply.duplicate_check", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM clients WHERE user_id = $1)`, p.UserID).Scan(&exists)
	})

	if err != nil {
		return
	}

	if exists {
		err = client.ErrApplicationExists
		return
	}

	err = r.prom.ObserveDB("clients.apply.insert", func() error {
		c, err = scanClient(r.pool.QueryRow(ctx,
			`INSERT INTO clients (name, freelancer_id, user_id, email, status, notes)
			VALUES ($1, $2, $3, $4, 'pending', $5)
			RETURNING `+clientColumns,
			p.Name, p.FreelancerID, p.UserID, user.NormalizeEmail(p.Email), p.Notes))
		return err
	})

	if isUniqueOn(err, constraintClientsUserID) {
		err = client.ErrApplicationExists
	}
	return
}

// UpdateStatus decides a pending application. The guard lives in the WHERE
// clause so two admins deciding at once cannot both win.
func (r *ClientsRepo) UpdateStatus(ctx context.Context, id int64, status client.Status) (c client.Client, err error) {
	if err = client.ValidateTransition(client.StatusPending, status); err != nil {
		return
	}

	err = r.prom.ObserveDB("clients.update_status", func() error {
		c, err = scanClient(r.pool.QueryRow(ctx,
			`UPDATE clients SET status = $2
			WHERE id = $1 AND status = 'pending'
			RETURNING `+clientColumns,
			id, string(status)))
		return err
	})

	if !errors.Is(err, pgx.ErrNoRows) {
		return
	}

	// no row updated: either missing or already decided
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		err = getErr
		return
	}

	err = client.ErrInvalidTransition
	return
}
