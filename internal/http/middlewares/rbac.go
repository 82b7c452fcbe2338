package middlewares

import (
	"errors"
	"net/http"

	"github.com/geocoder89/freelancehours/internal/access"
	"github.com/geocoder89/freelancehours/internal/actorctx"
	"github.com/gin-gonic/gin"
)

// RequireAction rejects the request before any binding or storage work when
// the principal's role may not perform action at all.
func RequireAction(action access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := actorctx.PrincipalFrom(c.Request.Context())

		err := access.Authorize(p, action)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, access.ErrUnauthenticated):
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		default:
			abortJSON(c, http.StatusForbidden, "forbidden", "Forbidden")
		}
	}
}
