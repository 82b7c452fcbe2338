package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/freelancehours/internal/access"
	"github.com/geocoder89/freelancehours/internal/config"
	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/user"
	"github.com/geocoder89/freelancehours/internal/notifications"
	"github.com/gin-gonic/gin"
)

type ClientStore interface {
	ListApproved(ctx context.Context) ([]client.Client, error)
	ListApprovedForUser(ctx context.Context, userID int64) ([]client.Client, error)
	ListPending(ctx context.Context) ([]client.Client, error)
	GetByUserID(ctx context.Context, userID int64) (client.Client, error)
	Create(ctx context.Context, p client.CreateParams) (client.Client, error)
	Apply(ctx context.Context, p client.ApplyParams) (client.Client, error)
	UpdateStatus(ctx context.Context, id int64, status client.Status) (client.Client, error)
}

// AdminFinder locates the freelancer that self-service applications go to.
type AdminFinder interface {
	GetAdmin(ctx context.Context) (user.User, error)
}

type ClientsHandler struct {
	repo     ClientStore
	admins   AdminFinder
	notifier notifications.Notifier
}

// NewClientsHandler builds the handler. notifier may be nil.
func NewClientsHandler(repo ClientStore, admins AdminFinder, notifier notifications.Notifier) *ClientsHandler {
	return &ClientsHandler{repo: repo, admins: admins, notifier: notifier}
}

func (h *ClientsHandler) List(ctx *gin.Context) {
	scope, err := access.ClientScope(principal(ctx))
	if RespondAccess(ctx, err) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	var clients []client.Client
	if scope.All {
		clients, err = h.repo.ListApproved(cctx)
	} else {
		clients, err = h.repo.ListApprovedForUser(cctx, scope.UserID)
	}

	if err != nil {
		RespondInternal(ctx, err, "Could not list clients")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, clients)
}

func (h *ClientsHandler) Create(ctx *gin.Context) {
	p := principal(ctx)
	if RespondAccess(ctx, access.Authorize(p, access.CreateClient)) {
		return
	}

	var req client.CreateClientRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, client.CreateParams{
		Name:         req.Name,
		Email:        req.Email,
		FreelancerID: p.ID,
	})

	if err != nil {
		if errors.Is(err, client.ErrUserHasClient) {
			RespondError(ctx, http.StatusBadRequest, "client_exists", "A client already exists for this email.", nil)
			return
		}
		RespondInternal(ctx, err, "Could not create client")
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *ClientsHandler) Apply(ctx *gin.Context) {
	p := principal(ctx)
	if RespondAccess(ctx, access.Authorize(p, access.ApplyClient)) {
		return
	}

	var req client.ApplyRequest
	if !BindOptionalJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	admin, err := h.admins.GetAdmin(cctx)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondInternal(ctx, err, "No freelancer is accepting applications")
			return
		}
		RespondInternal(ctx, err, "Could not submit application")
		return
	}

	c, err := h.repo.Apply(cctx, client.ApplyParams{
		Name:         p.Name,
		Email:        p.Email,
		Notes:        req.Notes,
		UserID:       p.ID,
		FreelancerID: admin.ID,
	})

	if err != nil {
		if errors.Is(err, client.ErrApplicationExists) {
			RespondError(ctx, http.StatusBadRequest, "application_exists", "Application already exists.", nil)
			return
		}
		RespondInternal(ctx, err, "Could not submit application")
		return
	}

	h.notify(ctx, "application_submitted", func(nctx context.Context, n notifications.Notifier) error {
		return n.ApplicationSubmitted(nctx, notifications.ApplicationSubmittedInput{
			ClientID:     c.ID,
			FreelancerID: c.FreelancerID,
			Name:         c.Name,
			Email:        p.Email,
			Notes:        c.Notes,
		})
	})

	ctx.JSON(http.StatusCreated, c)
}

// Me returns the caller's own client record in any status, or null.
func (h *ClientsHandler) Me(ctx *gin.Context) {
	p := principal(ctx)
	if RespondAccess(ctx, access.Authorize(p, access.ReadOwnClient)) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.repo.GetByUserID(cctx, p.ID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			ctx.JSON(http.StatusOK, nil)
			return
		}
		RespondInternal(ctx, err, "Could not load client")
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *ClientsHandler) Pending(ctx *gin.Context) {
	if RespondAccess(ctx, access.Authorize(principal(ctx), access.ListPending)) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	pending, err := h.repo.ListPending(cctx)
	if err != nil {
		RespondInternal(ctx, err, "Could not list applications")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, pending)
}

func (h *ClientsHandler) UpdateStatus(ctx *gin.Context) {
	if RespondAccess(ctx, access.Authorize(principal(ctx), access.DecideApplication)) {
		return
	}

	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	var req client.UpdateStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.repo.UpdateStatus(cctx, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrNotFound):
			RespondNotFound(ctx, "Client not found")
		case errors.Is(err, client.ErrInvalidTransition):
			RespondError(ctx, http.StatusBadRequest, "invalid_transition", "Only pending applications can be approved or rejected.", nil)
		default:
			RespondInternal(ctx, err, "Could not update client status")
		}
		return
	}

	if c.Email != nil {
		h.notify(ctx, "application_decided", func(nctx context.Context, n notifications.Notifier) error {
			return n.ApplicationDecided(nctx, notifications.ApplicationDecidedInput{
				ClientID: c.ID,
				Name:     c.Name,
				Email:    *c.Email,
				Status:   string(c.Status),
			})
		})
	}

	ctx.JSON(http.StatusOK, c)
}

// notify is best effort: the state change is already committed.
func (h *ClientsHandler) notify(ctx *gin.Context, kind string, send func(context.Context, notifications.Notifier) error) {
	if h.notifier == nil {
		return
	}

	if err := send(ctx.Request.Context(), h.notifier); err != nil {
		slog.Default().WarnContext(ctx.Request.Context(), "notification failed",
			"kind", kind,
			"err", err,
		)
	}
}
