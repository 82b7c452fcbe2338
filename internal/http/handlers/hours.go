package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/freelancehours/internal/access"
	"github.com/geocoder89/freelancehours/internal/config"
	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/hours"
	"github.com/gin-gonic/gin"
)

type HoursStore interface {
	ListByClient(ctx context.Context, clientID int64) ([]hours.Entry, error)
	GetByID(ctx context.Context, id int64) (hours.Entry, error)
	Create(ctx context.Context, req hours.EntryRequest) (hours.Entry, error)
	Update(ctx context.Context, id int64, req hours.EntryRequest) (hours.Entry, error)
	Delete(ctx context.Context, id int64) error
}

type ClientReader interface {
	GetByID(ctx context.Context, id int64) (client.Client, error)
}

type HoursHandler struct {
	repo    HoursStore
	clients ClientReader
}

func NewHoursHandler(repo HoursStore, clients ClientReader) *HoursHandler {
	return &HoursHandler{repo: repo, clients: clients}
}

// readableClient loads the client and applies the ownership rule for reads.
func (h *HoursHandler) readableClient(cctx context.Context, ctx *gin.Context, clientID int64) bool {
	p := principal(ctx)
	if RespondAccess(ctx, access.Authorize(p, access.ReadHours)) {
		return false
	}

	c, err := h.clients.GetByID(cctx, clientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			RespondNotFound(ctx, "Client not found")
			return false
		}
		RespondInternal(ctx, err, "Could not load client")
		return false
	}

	return !RespondAccess(ctx, access.AuthorizeHoursRead(p, c))
}

func (h *HoursHandler) ListByClient(ctx *gin.Context) {
	clientID, ok := paramID(ctx, "clientId")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if !h.readableClient(cctx, ctx, clientID) {
		return
	}

	entries, err := h.repo.ListByClient(cctx, clientID)
	if err != nil {
		RespondInternal(ctx, err, "Could not list hours")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, entries)
}

// Summary totals a client's hours in decimal arithmetic.
func (h *HoursHandler) Summary(ctx *gin.Context) {
	clientID, ok := paramID(ctx, "clientId")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if !h.readableClient(cctx, ctx, clientID) {
		return
	}

	entries, err := h.repo.ListByClient(cctx, clientID)
	if err != nil {
		RespondInternal(ctx, err, "Could not summarize hours")
		return
	}

	ctx.JSON(http.StatusOK, hours.Summarize(clientID, entries))
}

func (h *HoursHandler) Get(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if RespondAccess(ctx, access.Authorize(principal(ctx), access.ReadHours)) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, hours.ErrNotFound) {
			RespondNotFound(ctx, "Hours entry not found")
			return
		}
		RespondInternal(ctx, err, "Could not load hours entry")
		return
	}

	if !h.readableClient(cctx, ctx, e.ClientID) {
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *HoursHandler) Create(ctx *gin.Context) {
	if RespondAccess(ctx, access.Authorize(principal(ctx), access.WriteHours)) {
		return
	}

	req, ok := BindEntry(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.Create(cctx, req)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			RespondNotFound(ctx, "Client not found")
			return
		}
		RespondInternal(ctx, err, "Could not log hours")
		return
	}

	ctx.JSON(http.StatusCreated, e)
}

func (h *HoursHandler) Update(ctx *gin.Context) {
	if RespondAccess(ctx, access.Authorize(principal(ctx), access.WriteHours)) {
		return
	}

	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	req, ok := BindEntry(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.Update(cctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, hours.ErrNotFound):
			RespondNotFound(ctx, "Hours entry not found")
		case errors.Is(err, client.ErrNotFound):
			RespondNotFound(ctx, "Client not found")
		default:
			RespondInternal(ctx, err, "Could not update hours")
		}
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *HoursHandler) Delete(ctx *gin.Context) {
	if RespondAccess(ctx, access.Authorize(principal(ctx), access.WriteHours)) {
		return
	}

	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, hours.ErrNotFound) {
			RespondNotFound(ctx, "Hours entry not found")
			return
		}
		RespondInternal(ctx, err, "Could not delete hours")
		return
	}

	ctx.Status(http.StatusNoContent)
}
