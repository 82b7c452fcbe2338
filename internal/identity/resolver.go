package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/freelancehours/internal/domain/user"
)

var (
	ErrInvalidAssertion = errors.New("identity assertion is missing provider id or email")
	ErrUnverifiedEmail  = errors.New("identity provider did not verify the email address")
)

// Assertion is what a provider vouches for after a successful login.
type Assertion struct {
	ProviderID    string
	Email         string
	DisplayName   string
	EmailVerified bool
}

type Outcome string

const (
	OutcomeExisting Outcome = "existing"
	OutcomeLinked   Outcome = "linked"
	OutcomeCreated  Outcome = "created"
)

type UserStore interface {
	GetByGoogleID(ctx context.Context, googleID string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	LinkGoogleID(ctx context.Context, id int64, googleID string) (user.User, error)
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
}

// Resolver maps a provider assertion to exactly one local user, writing at
// most once.
type Resolver struct {
	users      UserStore
	adminEmail string
	observe    func(outcome string)
}

func NewResolver(users UserStore, adminEmail string, observe func(outcome string)) *Resolver {
	if observe == nil {
		observe = func(string) {}
	}

	return &Resolver{
		users:      users,
		adminEmail: user.NormalizeEmail(adminEmail),
		observe:    observe,
	}
}

func (r *Resolver) Resolve(ctx context.Context, a Assertion) (user.User, Outcome, error) {
	u, outcome, err := r.resolve(ctx, a)
	if err != nil {
		r.observe("error")
		return user.User{}, "", err
	}

	r.observe(string(outcome))
	return u, outcome, nil
}

func (r *Resolver) resolve(ctx context.Context, a Assertion) (user.User, Outcome, error) {
	providerID := strings.TrimSpace(a.ProviderID)
	email := user.NormalizeEmail(a.Email)

	if providerID == "" || email == "" {
		return user.User{}, "", ErrInvalidAssertion
	}

	// 1) already linked
	u, err := r.users.GetByGoogleID(ctx, providerID)
	if err == nil {
		return u, OutcomeExisting, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, "", fmt.Errorf("lookup by provider id: %w", err)
	}

	// the next two steps trust the email, so the provider must have verified it
	if !a.EmailVerified {
		return user.User{}, "", ErrUnverifiedEmail
	}

	// 2) pre-provisioned by email: attach the login to it
	u, err = r.users.GetByEmail(ctx, email)
	if err == nil {
		linked, err := r.users.LinkGoogleID(ctx, u.ID, providerID)
		if err != nil {
			return user.User{}, "", fmt.Errorf("link provider id: %w", err)
		}
		return linked, OutcomeLinked, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, "", fmt.Errorf("lookup by email: %w", err)
	}

	// 3) brand new user
	role := user.RoleClient
	if r.adminEmail != "" && email == r.adminEmail {
		role = user.RoleAdmin
	}

	name := strings.TrimSpace(a.DisplayName)
	if name == "" {
		name = email
	}

	created, err := r.users.Create(ctx, user.NewUser{
		Email:    email,
		Name:     name,
		GoogleID: &providerID,
		Role:     role,
	})
	if err != nil {
		return user.User{}, "", fmt.Errorf("create user: %w", err)
	}

	return created, OutcomeCreated, nil
}
