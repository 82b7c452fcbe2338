package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/user"
)

type ClientsRepo struct {
	s *Store
}

func (r *ClientsRepo) ListApproved(_ context.Context) ([]client.Client, error) {
	return r.filter(func(c client.Client) bool {
		return c.Status == client.StatusApproved
	}), nil
}

func (r *ClientsRepo) ListApprovedForUser(_ context.Context, userID int64) ([]client.Client, error) {
	return r.filter(func(c client.Client) bool {
		return c.Status == client.StatusApproved && c.LinkedTo(userID)
	}), nil
}

func (r *ClientsRepo) ListPending(_ context.Context) ([]client.Client, error) {
	out := r.filter(func(c client.Client) bool {
		return c.Status == client.StatusPending
	})

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *ClientsRepo) GetByID(_ context.Context, id int64) (client.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.clients[id]
	if !ok {
		return client.Client{}, client.ErrNotFound
	}
	return c, nil
}

func (r *ClientsRepo) GetByUserID(_ context.Context, userID int64) (client.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if c, ok := r.s.clientOfUser(userID); ok {
		return c, nil
	}
	return client.Client{}, client.ErrNotFound
}

// Create adds an approved client, linking it to the user owning the email or
// pre-provisioning one so the client can log in later.
func (r *ClientsRepo) Create(_ context.Context, p client.CreateParams) (client.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := user.NormalizeEmail(p.Email)

	u, ok := r.s.userByEmail(email)
	if !ok {
		var err error
		u, err = r.s.insertUser(user.NewUser{Email: email, Name: p.Name, Role: user.RoleClient})
		if err != nil {
			return client.Client{}, err
		}
	}

	if _, taken := r.s.clientOfUser(u.ID); taken {
		return client.Client{}, client.ErrUserHasClient
	}

	return r.s.insertClient(client.Client{
		Name:         p.Name,
		FreelancerID: p.FreelancerID,
		UserID:       ptr(u.ID),
		Email:        ptr(email),
		Status:       client.StatusApproved,
	}), nil
}

func (r *ClientsRepo) Apply(_ context.Context, p client.ApplyParams) (client.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.clientOfUser(p.UserID); taken {
		return client.Client{}, client.ErrApplicationExists
	}

	return r.s.insertClient(client.Client{
		Name:         p.Name,
		FreelancerID: p.FreelancerID,
		UserID:       ptr(p.UserID),
		Email:        ptr(user.NormalizeEmail(p.Email)),
		Status:       client.StatusPending,
		Notes:        p.Notes,
	}), nil
}

func (r *ClientsRepo) UpdateStatus(_ context.Context, id int64, status client.Status) (client.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.clients[id]
	if !ok {
		return client.Client{}, client.ErrNotFound
	}

	if err := client.ValidateTransition(c.Status, status); err != nil {
		return client.Client{}, err
	}

	c.Status = status
	r.s.clients[id] = c

	return c, nil
}

func (r *ClientsRepo) filter(keep func(client.Client) bool) []client.Client {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]client.Client, 0)
	for _, c := range r.s.clients {
		if keep(c) {
			out = append(out, c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// callers hold s.mu
func (s *Store) clientOfUser(userID int64) (client.Client, bool) {
	for _, c := range s.clients {
		if c.LinkedTo(userID) {
			return c, true
		}
	}
	return client.Client{}, false
}

// callers hold s.mu for writing
func (s *Store) insertClient(c client.Client) client.Client {
	s.nextClientID++
	c.ID = s.nextClientID
	c.CreatedAt = s.now()
	s.clients[c.ID] = c

	return c
}
