package session

import (
	"context"
	"time"

	"github.com/geocoder89/freelancehours/internal/cache"
	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process. They do not survive a restart.
type MemoryStore struct {
	ttl   time.Duration
	items *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		items: cache.New(ttl),
	}
}

// RunPruner drops expired sessions periodically, like the check period of a
// memory session store.
func (s *MemoryStore) RunPruner(ctx context.Context, every time.Duration) {
	s.items.RunPruner(ctx, every)
}

func (s *MemoryStore) Create(_ context.Context, userID int64) (Session, error) {
	now := time.Now().UTC()

	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.items.Set(sess.ID, sess)

	return sess, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	v, ok := s.items.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}

	return v.(Session), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.items.Delete(id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
