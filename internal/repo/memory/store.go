// Package memory implements the repositories in process. It backs
// STORAGE=memory for local runs and the end-to-end tests.
package memory

import (
	"sync"
	"time"

	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/hours"
	"github.com/geocoder89/freelancehours/internal/domain/user"
)

// Store owns the three tables under one lock so cross-table rules (foreign
// keys, one client per user) hold like they would in postgres.
type Store struct {
	mu      sync.RWMutex
	users   map[int64]user.User
	clients map[int64]client.Client
	hours   map[int64]hours.Entry

	nextUserID   int64
	nextClientID int64
	nextHoursID  int64

	now func() time.Time

	Users   *UsersRepo
	Clients *ClientsRepo
	Hours   *HoursRepo
}

func New() *Store {
	s := &Store{
		users:   make(map[int64]user.User),
		clients: make(map[int64]client.Client),
		hours:   make(map[int64]hours.Entry),
		now:     func() time.Time { return time.Now().UTC() },
	}

	s.Users = &UsersRepo{s: s}
	s.Clients = &ClientsRepo{s: s}
	s.Hours = &HoursRepo{s: s}

	return s
}

func ptr[T any](v T) *T {
	return &v
}
