package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/geocoder89/freelancehours/internal/auth"
	"github.com/geocoder89/freelancehours/internal/config"
	"github.com/geocoder89/freelancehours/internal/domain/user"
	"github.com/geocoder89/freelancehours/internal/identity"
	"github.com/geocoder89/freelancehours/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "fh_session"
	StateCookieName   = "fh_oauth_state"

	stateCookiePath = "/api/auth"
)

// Opaque codes appended to the login path when the OAuth handshake fails.
const (
	LoginErrDenied     = "oauth_denied"
	LoginErrState      = "invalid_state"
	LoginErrExchange   = "exchange_failed"
	LoginErrUnverified = "email_unverified"
	LoginErrAccount    = "account_error"
	LoginErrSession    = "session_error"
)

type IdentityResolver interface {
	Resolve(ctx context.Context, a identity.Assertion) (user.User, identity.Outcome, error)
}

type SessionWriter interface {
	Create(ctx context.Context, userID int64) (session.Session, error)
	Delete(ctx context.Context, id string) error
}

type AuthHandler struct {
	provider identity.Provider
	resolver IdentityResolver
	sessions SessionWriter
	tokens   *auth.Manager
	cfg      config.Config
	observe  func(result string)
}

func NewAuthHandler(provider identity.Provider, resolver IdentityResolver, sessions SessionWriter, tokens *auth.Manager, cfg config.Config, observe func(result string)) *AuthHandler {
	if observe == nil {
		observe = func(string) {}
	}

	return &AuthHandler{
		provider: provider,
		resolver: resolver,
		sessions: sessions,
		tokens:   tokens,
		cfg:      cfg,
		observe:  observe,
	}
}

// GoogleLogin starts the handshake: a signed state cookie, then a redirect
// to the provider carrying the same nonce.
func (h *AuthHandler) GoogleLogin(ctx *gin.Context) {
	nonce, cookie, expiresAt, err := h.tokens.NewState()
	if err != nil {
		h.fail(ctx, LoginErrSession, err)
		return
	}

	h.setCookie(ctx, StateCookieName, cookie, stateCookiePath, time.Until(expiresAt))

	ctx.Redirect(http.StatusFound, h.provider.AuthCodeURL(nonce))
}

func (h *AuthHandler) GoogleCallback(ctx *gin.Context) {
	stateCookie, _ := ctx.Cookie(StateCookieName)
	h.setCookie(ctx, StateCookieName, "", stateCookiePath, -1)

	if ctx.Query("error") != "" {
		h.fail(ctx, LoginErrDenied, errors.New(ctx.Query("error")))
		return
	}

	if err := h.tokens.VerifyState(stateCookie, ctx.Query("state")); err != nil {
		h.fail(ctx, LoginErrState, err)
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	assertion, err := h.provider.Exchange(cctx, ctx.Query("code"))
	if err != nil {
		h.fail(ctx, LoginErrExchange, err)
		return
	}

	u, outcome, err := h.resolver.Resolve(cctx, assertion)
	if err != nil {
		code := LoginErrAccount
		if errors.Is(err, identity.ErrUnverifiedEmail) {
			code = LoginErrUnverified
		}
		h.fail(ctx, code, err)
		return
	}

	// a new login never reuses the session id it arrived with
	if old := h.sessionID(ctx); old != "" {
		_ = h.sessions.Delete(cctx, old)
	}

	sess, err := h.sessions.Create(cctx, u.ID)
	if err != nil {
		h.fail(ctx, LoginErrSession, err)
		return
	}

	signed, err := h.tokens.SignSession(sess.ID, sess.ExpiresAt)
	if err != nil {
		h.fail(ctx, LoginErrSession, err)
		return
	}

	h.setCookie(ctx, SessionCookieName, signed, "/", time.Until(sess.ExpiresAt))
	h.observe("success")

	slog.Default().InfoContext(ctx.Request.Context(), "login",
		"user_id", u.ID,
		"outcome", string(outcome),
	)

	ctx.Redirect(http.StatusFound, h.cfg.DashboardPath)
}

// CurrentUser answers the "who am I" check with the principal or null.
func (h *AuthHandler) CurrentUser(ctx *gin.Context) {
	p := principal(ctx)
	if p == nil {
		ctx.JSON(http.StatusOK, nil)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	if id := h.sessionID(ctx); id != "" {
		cctx, cancel := config.WithTimeout(2 * time.Second)
		defer cancel()

		if err := h.sessions.Delete(cctx, id); err != nil {
			RespondInternal(ctx, err, "Could not end session")
			return
		}
	}

	h.setCookie(ctx, SessionCookieName, "", "/", -1)

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// helpers

func (h *AuthHandler) sessionID(ctx *gin.Context) string {
	raw, err := ctx.Cookie(SessionCookieName)
	if err != nil || raw == "" {
		return ""
	}

	id, err := h.tokens.VerifySession(raw)
	if err != nil {
		return ""
	}
	return id
}

func (h *AuthHandler) fail(ctx *gin.Context, code string, err error) {
	h.observe(code)

	slog.Default().WarnContext(ctx.Request.Context(), "login failed",
		"code", code,
		"err", err,
	)

	ctx.Redirect(http.StatusFound, LoginRedirect(h.cfg.LoginPath, code))
}

// LoginRedirect builds the failure redirect target for code.
func LoginRedirect(loginPath, code string) string {
	return loginPath + "?error=" + url.QueryEscape(code)
}

func (h *AuthHandler) setCookie(ctx *gin.Context, name, value, path string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}

	// Lax so the cookie survives the top level redirect back from the provider
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(name, value, maxAge, path, "", h.cfg.IsProd(), true)
}
