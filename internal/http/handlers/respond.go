package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/geocoder89/freelancehours/internal/access"
	"github.com/geocoder89/freelancehours/internal/actorctx"
	"github.com/geocoder89/freelancehours/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// APIError is the body of every error response. Message is always set so a
// browser client can show it as is.
type APIError struct {
	Message   string      `json:"message"`
	Code      string      `json:"code"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, APIError{
		Message:   message,
		Code:      code,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

// RespondInternal logs the cause server side; the caller only sees message.
func RespondInternal(ctx *gin.Context, err error, message string) {
	slog.Default().ErrorContext(ctx.Request.Context(), message,
		"err", err,
		"route", ctx.FullPath(),
		"request_id", requestIDFrom(ctx),
	)
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondAccess maps an access decision to 401 or 403. It reports whether a
// response was written.
func RespondAccess(ctx *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, access.ErrUnauthenticated):
		RespondUnauthorized(ctx, "Unauthorized")
	case errors.Is(err, access.ErrForbidden):
		RespondForbidden(ctx, "Forbidden")
	default:
		RespondInternal(ctx, err, "Server error")
	}
	return true
}

func principal(ctx *gin.Context) *user.User {
	p, _ := actorctx.PrincipalFrom(ctx.Request.Context())
	return p
}

// paramID parses a positive integer path parameter, answering 400 otherwise.
func paramID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, name+" must be a positive integer", gin.H{"field": name})
		return 0, false
	}
	return id, true
}
