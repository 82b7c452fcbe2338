package actorctx

import (
	"context"

	"github.com/geocoder89/freelancehours/internal/domain/user"
)

type ctxKey struct{}

// WithPrincipal attaches the authenticated user for the rest of the request.
func WithPrincipal(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func PrincipalFrom(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(user.User)
	if !ok || u.ID == 0 {
		return nil, false
	}

	return &u, true
}
