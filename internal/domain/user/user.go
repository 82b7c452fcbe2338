package user

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Role is the single closed role set of the application. The admin is also
// the only freelancer, so there is no separate freelancer role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

var (
	ErrNotFound        = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrProviderIDTaken = errors.New("provider id already linked")
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	GoogleID  *string   `json:"-"` // nil until a google login is linked
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsFreelancer mirrors IsAdmin: freelancer status is not self-service.
func (u User) IsFreelancer() bool {
	return u.IsAdmin()
}

func (u User) Linked() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}

// MarshalJSON adds the isAdmin / isFreelancer flags the browser client reads.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User

	return json.Marshal(struct {
		alias
		IsAdmin      bool `json:"isAdmin"`
		IsFreelancer bool `json:"isFreelancer"`
	}{
		alias:        alias(u),
		IsAdmin:      u.IsAdmin(),
		IsFreelancer: u.IsFreelancer(),
	})
}

// NewUser is the insert payload for a user row.
type NewUser struct {
	Email    string
	Name     string
	GoogleID *string
	Role     Role
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
