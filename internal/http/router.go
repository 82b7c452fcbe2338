package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/freelancehours/internal/access"
	"github.com/geocoder89/freelancehours/internal/auth"
	"github.com/geocoder89/freelancehours/internal/config"
	"github.com/geocoder89/freelancehours/internal/http/handlers"
	"github.com/geocoder89/freelancehours/internal/http/middlewares"
	"github.com/geocoder89/freelancehours/internal/identity"
	"github.com/geocoder89/freelancehours/internal/notifications"
	"github.com/geocoder89/freelancehours/internal/observability"
	"github.com/geocoder89/freelancehours/internal/session"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

type UserRepo interface {
	identity.UserStore
	middlewares.UserLoader
	handlers.AdminFinder
}

type ClientRepo interface {
	handlers.ClientStore
	handlers.ClientReader
}

// Deps is everything the router wires into handlers. Both the postgres and
// the in-memory repositories satisfy the repo interfaces.
type Deps struct {
	Users    UserRepo
	Clients  ClientRepo
	Hours    handlers.HoursStore
	Sessions session.Store
	Tokens   *auth.Manager
	Provider identity.Provider
	Prom     *observability.Prom
	Checks   map[string]handlers.Check
	Notifier notifications.Notifier
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Default().ErrorContext(c.Request.Context(), "panic recovered", "panic", recovered)
		handlers.RespondError(c, http.StatusInternalServerError, "internal_error", "Server error", nil)
	}))
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	r.NoRoute(func(c *gin.Context) {
		handlers.RespondNotFound(c, "Not found")
	})

	// health
	h := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Prom != nil {
		r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))
	}

	// wire up handlers
	resolver := identity.NewResolver(deps.Users, cfg.AdminEmail, deps.Prom.ObserveResolution)
	authHandler := handlers.NewAuthHandler(deps.Provider, resolver, deps.Sessions, deps.Tokens, cfg, deps.Prom.ObserveLogin)
	clientsHandler := handlers.NewClientsHandler(deps.Clients, deps.Users, deps.Notifier)
	hoursHandler := handlers.NewHoursHandler(deps.Hours, deps.Clients)

	sessions := middlewares.NewSessionMiddleware(handlers.SessionCookieName, deps.Tokens, deps.Sessions, deps.Users)
	body := middlewares.JSONBody(maxBodyBytes)
	can := middlewares.RequireAction

	api := r.Group("/api", sessions.Load())

	// the four auth endpoints work without a session
	authLimiter := middlewares.NewRateLimiter(cfg.AuthRatePerMinute, time.Minute)
	oauthLimit := authLimiter.Middleware(middlewares.KeyByIP, func(c *gin.Context, _ time.Duration) {
		c.Redirect(http.StatusFound, handlers.LoginRedirect(cfg.LoginPath, "rate_limited"))
	})

	api.GET("/auth/google", oauthLimit, authHandler.GoogleLogin)
	api.GET("/auth/google/callback", oauthLimit, authHandler.GoogleCallback)
	api.GET("/auth/user", authHandler.CurrentUser)
	api.POST("/auth/logout", authHandler.Logout)

	protected := api.Group("", middlewares.RequireAuth())

	protected.GET("/clients", can(access.ListClients), clientsHandler.List)
	protected.POST("/clients", can(access.CreateClient), body, clientsHandler.Create)
	protected.POST("/clients/apply", can(access.ApplyClient), body, clientsHandler.Apply)
	protected.GET("/clients/me", can(access.ReadOwnClient), clientsHandler.Me)
	protected.GET("/clients/pending", can(access.ListPending), clientsHandler.Pending)
	protected.POST("/clients/:id/status", can(access.DecideApplication), body, clientsHandler.UpdateStatus)

	protected.GET("/hours/:clientId", can(access.ReadHours), hoursHandler.ListByClient)
	protected.GET("/hours/:clientId/summary", can(access.ReadHours), hoursHandler.Summary)
	protected.GET("/hours/entry/:id", can(access.ReadHours), hoursHandler.Get)
	protected.POST("/hours", can(access.WriteHours), body, hoursHandler.Create)
	protected.PUT("/hours/:id", can(access.WriteHours), body, hoursHandler.Update)
	protected.DELETE("/hours/:id", can(access.WriteHours), hoursHandler.Delete)

	return r
}
