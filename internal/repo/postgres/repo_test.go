package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/geocoder89/freelancehours/internal/db"
	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/hours"
	"github.com/geocoder89/freelancehours/internal/domain/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.Migrate(ctx, pool, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	reset := func() {
		if _, err := pool.Exec(ctx, `TRUNCATE hours, clients, users RESTART IDENTITY CASCADE`); err != nil {
			t.Fatalf("failed to truncate tables: %v", err)
		}
	}
	reset()
	t.Cleanup(reset)

	return pool
}

func TestPostgres_ClientLifecycleAndHours(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	users := NewUsersRepo(pool, nil)
	clients := NewClientsRepo(pool, nil)
	hrs := NewHoursRepo(pool, nil)

	admin, created, err := users.EnsureAdmin(ctx, "Boss@Example.com", "Boss")
	if err != nil || !created || admin.Role != user.RoleAdmin {
		t.Fatalf("ensure admin: %+v %v %v", admin, created, err)
	}
	if _, created, _ := users.EnsureAdmin(ctx, "boss@example.com", "Boss"); created {
		t.Fatalf("second EnsureAdmin must not create")
	}

	c, err := clients.Create(ctx, client.CreateParams{Name: "Acme", Email: "acme@example.com", FreelancerID: admin.ID})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if c.Status != client.StatusApproved || c.UserID == nil {
		t.Fatalf("unexpected client %+v", c)
	}

	if _, err := clients.Create(ctx, client.CreateParams{Name: "Again", Email: "acme@example.com", FreelancerID: admin.ID}); !errors.Is(err, client.ErrUserHasClient) {
		t.Fatalf("expected ErrUserHasClient, got %v", err)
	}

	date, _ := hours.ParseWorkDate("2024-03-05")
	e, err := hrs.Create(ctx, hours.EntryRequest{ClientID: c.ID, Description: "work", Hours: hours.MustQuantity("2.25"), Date: date})
	if err != nil {
		t.Fatalf("create hours: %v", err)
	}

	got, err := hrs.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("get hours: %v", err)
	}
	if got.Hours.String() != "2.25" || got.Date.String() != "2024-03-05" {
		t.Fatalf("round trip lost precision: %s %s", got.Hours, got.Date)
	}

	if _, err := hrs.Create(ctx, hours.EntryRequest{ClientID: 999, Description: "x", Hours: hours.MustQuantity("1"), Date: date}); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("expected client.ErrNotFound, got %v", err)
	}

	if err := hrs.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := hrs.Delete(ctx, e.ID); !errors.Is(err, hours.ErrNotFound) {
		t.Fatalf("expected hours.ErrNotFound, got %v", err)
	}
}

func TestPostgres_ApplyAndDecide(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	users := NewUsersRepo(pool, nil)
	clients := NewClientsRepo(pool, nil)

	admin, _, _ := users.EnsureAdmin(ctx, "boss@example.com", "Boss")

	gid := "g-1"
	u, err := users.Create(ctx, user.NewUser{Email: "c@example.com", Name: "C", GoogleID: &gid})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := users.Create(ctx, user.NewUser{Email: "other@example.com", GoogleID: &gid}); !errors.Is(err, user.ErrProviderIDTaken) {
		t.Fatalf("expected ErrProviderIDTaken, got %v", err)
	}

	app, err := clients.Apply(ctx, client.ApplyParams{Name: u.Name, Email: u.Email, UserID: u.ID, FreelancerID: admin.ID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := clients.Apply(ctx, client.ApplyParams{Name: u.Name, Email: u.Email, UserID: u.ID, FreelancerID: admin.ID}); !errors.Is(err, client.ErrApplicationExists) {
		t.Fatalf("expected ErrApplicationExists, got %v", err)
	}

	acme, err := clients.Create(ctx, client.CreateParams{Name: "Acme", Email: "acme@example.com", FreelancerID: admin.ID})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	pendingUser, err := users.Create(ctx, user.NewUser{Email: "p@example.com", Name: "P"})
	if err != nil {
		t.Fatalf("create pending user: %v", err)
	}
	if _, err := clients.Apply(ctx, client.ApplyParams{Name: pendingUser.Name, Email: pendingUser.Email, UserID: pendingUser.ID, FreelancerID: admin.ID}); err != nil {
		t.Fatalf("apply pending: %v", err)
	}

	if _, err := clients.UpdateStatus(ctx, app.ID, client.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	approved, err := clients.ListApproved(ctx)
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != acme.ID {
		t.Fatalf("expected only Acme in approved list, got %+v", approved)
	}
	if _, err := clients.UpdateStatus(ctx, app.ID, client.StatusApproved); !errors.Is(err, client.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := clients.UpdateStatus(ctx, 12345, client.StatusApproved); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
