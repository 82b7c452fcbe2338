package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)

	sess, err := s.Create(ctx, 9)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.ID == "" || sess.UserID != 9 {
		t.Fatalf("unexpected session %+v", sess)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Fatalf("session should expire after creation")
	}

	got, err := s.Get(ctx, sess.ID)
	if err != nil || got.UserID != 9 {
		t.Fatalf("get: %+v, %v", got, err)
	}

	if err := s.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := s.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20 * time.Millisecond)

	sess, _ := s.Create(ctx, 1)
	time.Sleep(40 * time.Millisecond)

	if _, err := s.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}
