package middlewares

// gin context keys. The principal itself travels in the request
// context.Context via actorctx.
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
	CtxSessionID = "auth.sessionID"
)
