package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/hours"
	"github.com/geocoder89/freelancehours/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// hours travel as text in both directions so the NUMERIC(4,2) value never
// passes through a float.
const hoursColumns = `id, client_id, description, hours::text, date, created_at`

type HoursRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewHoursRepo(pool *pgxpool.Pool, prom *observability.Prom) *HoursRepo {
	return &HoursRepo{pool: pool, prom: prom}
}

func scanEntry(row pgx.Row) (hours.Entry, error) {
	var (
		e    hours.Entry
		qty  string
		date time.Time
	)

	err := row.Scan(&e.ID, &e.ClientID, &e.Description, &qty, &date, &e.CreatedAt)
	if err != nil {
		return hours.Entry{}, err
	}

	e.Hours, err = hours.ParseQuantity(qty)
	if err != nil {
		return hours.Entry{}, err
	}
	e.Date = hours.NewWorkDate(date)

	return e, nil
}

func (r *HoursRepo) ListByClient(ctx context.Context, clientID int64) (out []hours.Entry, err error) {
	var rows pgx.Rows

	err = r.prom.ObserveDB("hours.list_by_client", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT `+hoursColumns+` FROM hours
			WHERE client_id = $1
			ORDER BY date DESC, id DESC`,
			clientID)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out = make([]hours.Entry, 0)

	for rows.Next() {
		e, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, e)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		r.prom.CountDBError("hours.list_by_client", "rows_err")
		return nil, rowsErr
	}

	return out, nil
}

func (r *HoursRepo) GetByID(ctx context.Context, id int64) (e hours.Entry, err error) {
	err = r.prom.ObserveDB("hours.get_by_id", func() error {
		e, err = scanEntry(r.pool.QueryRow(ctx,
			`SELECT `+hoursColumns+` FROM hours WHERE id = $1`, id))
		return err
	})
	err = noRows(err, hours.ErrNotFound)
	return
}

func (r *HoursRepo) Create(ctx context.Context, req hours.EntryRequest) (e hours.Entry, err error) {
	err = r.prom.ObserveDB("hours.create", func() error {
		e, err = scanEntry(r.pool.QueryRow(ctx,
			`INSERT INTO hours (client_id, description, hours, date)
			VALUES ($1, $2, $3::numeric, $4::date)
			RETURNING `+hoursColumns,
			req.ClientID, req.Description, req.Hours.String(), req.Date.String()))
		return err
	})

	if isForeignKeyOn(err, constraintClientsFK) {
		err = client.ErrNotFound
	}
	return
}

func (r *HoursRepo) Update(ctx context.Context, id int64, req hours.EntryRequest) (e hours.Entry, err error) {
	err = r.prom.ObserveDB("hours.update", func() error {
		e, err = scanEntry(r.pool.QueryRow(ctx,
			`UPDATE hours
			SET client_id = $2, description = $3, hours = $4::numeric, date = $5::date
			WHERE id = $1
			RETURNING `+hoursColumns,
			id, req.ClientID, req.Description, req.Hours.String(), req.Date.String()))
		return err
	})

	if isForeignKeyOn(err, constraintClientsFK) {
		err = client.ErrNotFound
		return
	}
	err = noRows(err, hours.ErrNotFound)
	return
}

func (r *HoursRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("hours.delete", func() (err error) {
		tag, err = r.pool.Exec(ctx, `DELETE FROM hours WHERE id = $1`, id)
		return
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return hours.ErrNotFound
	}
	return nil
}
