package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/geocoder89/freelancehours/internal/actorctx"
	"github.com/geocoder89/freelancehours/internal/domain/user"
)

func TestLoggerAddsPrincipal(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "test")

	ctx := actorctx.WithPrincipal(context.Background(), user.User{ID: 42, Role: user.RoleClient})
	log.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}

	if rec["user_id"] != float64(42) {
		t.Fatalf("expected user_id 42, got %v", rec["user_id"])
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("no span is active, trace_id should be absent")
	}
}

func TestLoggerLevelByEnv(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be off outside dev")
	}

	newLogger(&buf, "dev").Debug("shown")
	if buf.Len() == 0 {
		t.Fatalf("debug should be on in dev")
	}
}
