package memory

import (
	"context"

	"github.com/geocoder89/freelancehours/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByGoogleID(_ context.Context, googleID string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.GoogleID != nil && *u.GoogleID == googleID {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.userByEmail(user.NormalizeEmail(email)); ok {
		return u, nil
	}
	return user.User{}, user.ErrNotFound
}

// GetAdmin returns the lowest id admin, the one freelancer clients apply to.
func (r *UsersRepo) GetAdmin(_ context.Context) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *user.User
	for _, u := range r.s.users {
		if u.Role != user.RoleAdmin {
			continue
		}
		if found == nil || u.ID < found.ID {
			found = ptr(u)
		}
	}

	if found == nil {
		return user.User{}, user.ErrNotFound
	}
	return *found, nil
}

func (r *UsersRepo) LinkGoogleID(_ context.Context, id int64, googleID string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	for _, other := range r.s.users {
		if other.ID != id && other.GoogleID != nil && *other.GoogleID == googleID {
			return user.User{}, user.ErrProviderIDTaken
		}
	}

	u.GoogleID = ptr(googleID)
	r.s.users[id] = u

	return u, nil
}

func (r *UsersRepo) Create(_ context.Context, nu user.NewUser) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.insertUser(nu)
}

// EnsureAdmin returns the user owning email, creating it with role admin
// when absent. The bool reports whether a row was created.
func (r *UsersRepo) EnsureAdmin(_ context.Context, email, name string) (user.User, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.userByEmail(user.NormalizeEmail(email)); ok {
		return u, false, nil
	}

	u, err := r.s.insertUser(user.NewUser{Email: email, Name: name, Role: user.RoleAdmin})
	return u, err == nil, err
}

// callers hold s.mu
func (s *Store) userByEmail(email string) (user.User, bool) {
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return user.User{}, false
}

// callers hold s.mu for writing
func (s *Store) insertUser(nu user.NewUser) (user.User, error) {
	email := user.NormalizeEmail(nu.Email)

	if _, taken := s.userByEmail(email); taken {
		return user.User{}, user.ErrEmailTaken
	}

	if nu.GoogleID != nil {
		for _, other := range s.users {
			if other.GoogleID != nil && *other.GoogleID == *nu.GoogleID {
				return user.User{}, user.ErrProviderIDTaken
			}
		}
	}

	role := nu.Role
	if !role.Valid() {
		role = user.RoleClient
	}

	s.nextUserID++
	u := user.User{
		ID:        s.nextUserID,
		Email:     email,
		Name:      nu.Name,
		GoogleID:  nu.GoogleID,
		Role:      role,
		CreatedAt: s.now(),
	}
	s.users[u.ID] = u

	return u, nil
}
