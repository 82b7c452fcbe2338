package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/freelancehours/internal/actorctx"
	"github.com/geocoder89/freelancehours/internal/domain/user"
	"github.com/geocoder89/freelancehours/internal/session"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type SessionVerifier interface {
	VerifySession(raw string) (string, error)
}

type SessionReader interface {
	Get(ctx context.Context, id string) (session.Session, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type SessionMiddleware struct {
	cookie   string
	tokens   SessionVerifier
	sessions SessionReader
	users    UserLoader
}

func NewSessionMiddleware(cookie string, tokens SessionVerifier, sessions SessionReader, users UserLoader) *SessionMiddleware {
	return &SessionMiddleware{
		cookie:   cookie,
		tokens:   tokens,
		sessions: sessions,
		users:    users,
	}
}

// Load resolves the session cookie to a principal when there is one. It
// never rejects a request for lack of a session; RequireAuth does that.
func (m *SessionMiddleware) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(m.cookie)
		if err != nil || raw == "" {
			c.Next()
			return
		}

		id, err := m.tokens.VerifySession(raw)
		if err != nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		sess, err := m.sessions.Get(ctx, id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.Next()
				return
			}
			abortInternal(c, "session lookup failed", err)
			return
		}

		u, err := m.users.GetByID(ctx, sess.UserID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				c.Next()
				return
			}
			abortInternal(c, "session user lookup failed", err)
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithPrincipal(ctx, u))
		c.Set(CtxUserID, u.ID)
		c.Set(CtxSessionID, sess.ID)

		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := actorctx.PrincipalFrom(c.Request.Context()); !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}
		c.Next()
	}
}

func abortInternal(c *gin.Context, msg string, err error) {
	slog.Default().ErrorContext(c.Request.Context(), msg, "err", err)
	abortJSON(c, http.StatusInternalServerError, "internal_error", "Server error")
}

// abortJSON writes the same error envelope as the handlers package.
func abortJSON(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"message": message,
		"code":    code,
	}
	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}
	c.AbortWithStatusJSON(status, body)
}
