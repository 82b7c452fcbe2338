package db

import (
	"context"
	"log/slog"

	"github.com/geocoder89/freelancehours/internal/config"
	"github.com/geocoder89/freelancehours/internal/domain/user"
)

type AdminSeeder interface {
	EnsureAdmin(ctx context.Context, email, name string) (user.User, bool, error)
}

// EnsureAdminUser pre-provisions the configured admin by email without a
// provider id, so the first Google login links to it instead of creating a
// second account.
func EnsureAdminUser(ctx context.Context, users AdminSeeder, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" {
		if log != nil {
			log.Warn("ADMIN_EMAIL is not set; client applications will fail until an admin exists")
		}
		return nil
	}

	u, created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminName)
	if err != nil {
		return err
	}

	if log != nil {
		if created {
			log.Info("admin user seeded", "user_id", u.ID, "email", u.Email)
		} else if !u.IsAdmin() {
			log.Warn("ADMIN_EMAIL belongs to a non-admin user", "user_id", u.ID, "role", u.Role)
		}
	}

	return nil
}
