package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/hours"
	"github.com/geocoder89/freelancehours/internal/http/handlers"
)

type fakeHoursRepo struct {
	listByClientFn func(ctx context.Context, clientID int64) ([]hours.Entry, error)
	getByIDFn      func(ctx context.Context, id int64) (hours.Entry, error)
	createFn       func(ctx context.Context, req hours.EntryRequest) (hours.Entry, error)
	updateFn       func(ctx context.Context, id int64, req hours.EntryRequest) (hours.Entry, error)
	deleteFn       func(ctx context.Context, id int64) error
}

func (f *fakeHoursRepo) ListByClient(ctx context.Context, clientID int64) ([]hours.Entry, error) {
	if f.listByClientFn != nil {
		return f.listByClientFn(ctx, clientID)
	}
	return []hours.Entry{}, nil
}

func (f *fakeHoursRepo) GetByID(ctx context.Context, id int64) (hours.Entry, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return hours.Entry{}, hours.ErrNotFound
}

func (f *fakeHoursRepo) Create(ctx context.Context, req hours.EntryRequest) (hours.Entry, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return hours.Entry{ID: 1, ClientID: req.ClientID, Description: req.Description, Hours: req.Hours, Date: req.Date}, nil
}

func (f *fakeHoursRepo) Update(ctx context.Context, id int64, req hours.EntryRequest) (hours.Entry, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return hours.Entry{ID: id, ClientID: req.ClientID, Description: req.Description, Hours: req.Hours, Date: req.Date}, nil
}

func (f *fakeHoursRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

// fakeClientReader knows client 10 owned by clientUser and client 11 owned by someone else.
type fakeClientReader struct{}

func (fakeClientReader) GetByID(_ context.Context, id int64) (client.Client, error) {
	switch id {
	case 10:
		return client.Client{ID: 10, UserID: ptr(clientUser.ID), Status: client.StatusApproved}, nil
	case 11:
		return client.Client{ID: 11, UserID: ptr(int64(99)), Status: client.StatusApproved}, nil
	}
	return client.Client{}, client.ErrNotFound
}

func TestListHoursHandler_Ownership(t *testing.T) {
	repo := &fakeHoursRepo{
		listByClientFn: func(ctx context.Context, clientID int64) ([]hours.Entry, error) {
			return []hours.Entry{
				{ID: 1, ClientID: clientID, Hours: hours.MustQuantity("3.50")},
				{ID: 2, ClientID: clientID, Hours: hours.MustQuantity("0.25")},
			}, nil
		},
	}
	h := handlers.NewHoursHandler(repo, fakeClientReader{})

	tests := []struct {
		name       string
		path       string
		asAdmin    bool
		wantStatus int
	}{
		{"admin reads any client", "/api/hours/11", true, http.StatusOK},
		{"client reads own", "/api/hours/10", false, http.StatusOK},
		{"client reads foreign", "/api/hours/11", false, http.StatusForbidden},
		{"unknown client", "/api/hours/12", true, http.StatusNotFound},
		{"bad id", "/api/hours/x", true, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &clientUser
			if tt.asAdmin {
				p = &adminUser
			}

			r := setupRouter(http.MethodGet, "/api/hours/:clientId", p, h.ListByClient)
			w := doJSON(r, http.MethodGet, tt.path, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("status %d want %d body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus != http.StatusOK {
				return
			}

			var got []struct {
				Hours string `json:"hours"`
			}
			mustReadJSON(t, w, &got)
			if len(got) != 2 || got[0].Hours != "3.50" {
				t.Fatalf("unexpected entries %+v", got)
			}
		})
	}
}

func TestHoursSummaryHandler(t *testing.T) {
	repo := &fakeHoursRepo{
		listByClientFn: func(ctx context.Context, clientID int64) ([]hours.Entry, error) {
			return []hours.Entry{
				{Hours: hours.MustQuantity("1.10")},
				{Hours: hours.MustQuantity("2.20")},
			}, nil
		},
	}
	h := handlers.NewHoursHandler(repo, fakeClientReader{})
	r := setupRouter(http.MethodGet, "/api/hours/:clientId/summary", &clientUser, h.Summary)

	w := doJSON(r, http.MethodGet, "/api/hours/10/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", w.Code, w.Body.String())
	}

	var got hours.Summary
	mustReadJSON(t, w, &got)
	if got.Total != "3.30" || got.Count != 2 || got.ClientID != 10 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestGetHoursEntryHandler(t *testing.T) {
	repo := &fakeHoursRepo{
		getByIDFn: func(ctx context.Context, id int64) (hours.Entry, error) {
			if id == 5 {
				return hours.Entry{ID: 5, ClientID: 11, Hours: hours.MustQuantity("1")}, nil
			}
			return hours.Entry{}, hours.ErrNotFound
		},
	}
	h := handlers.NewHoursHandler(repo, fakeClientReader{})

	r := setupRouter(http.MethodGet, "/api/hours/entry/:id", &clientUser, h.Get)
	if w := doJSON(r, http.MethodGet, "/api/hours/entry/5", ""); w.Code != http.StatusForbidden {
		t.Fatalf("foreign entry: status %d", w.Code)
	}

	r = setupRouter(http.MethodGet, "/api/hours/entry/:id", &adminUser, h.Get)
	if w := doJSON(r, http.MethodGet, "/api/hours/entry/5", ""); w.Code != http.StatusOK {
		t.Fatalf("admin read: status %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/hours/entry/6", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing entry: status %d", w.Code)
	}
}

func TestCreateHoursHandler(t *testing.T) {
	tests := []struct {
		name       string
		asAdmin    bool
		body       string
		createErr  error
		wantStatus int
		wantHours  string
	}{
		{name: "string hours", asAdmin: true, body: `{"clientId":10,"description":"work","hours":"3.50","date":"2024-01-01"}`, wantStatus: http.StatusCreated, wantHours: "3.50"},
		{name: "numeric hours", asAdmin: true, body: `{"clientId":10,"description":"work","hours":2.25,"date":"2024-01-01"}`, wantStatus: http.StatusCreated, wantHours: "2.25"},
		{name: "client forbidden", body: `{"clientId":10,"description":"work","hours":"1","date":"2024-01-01"}`, wantStatus: http.StatusForbidden},
		{name: "zero hours", asAdmin: true, body: `{"clientId":10,"description":"work","hours":"0","date":"2024-01-01"}`, wantStatus: http.StatusBadRequest},
		{name: "missing hours", asAdmin: true, body: `{"clientId":10,"description":"work","date":"2024-01-01"}`, wantStatus: http.StatusBadRequest},
		{name: "bad date", asAdmin: true, body: `{"clientId":10,"description":"work","hours":"1","date":"01/02/2024"}`, wantStatus: http.StatusBadRequest},
		{name: "missing description", asAdmin: true, body: `{"clientId":10,"hours":"1","date":"2024-01-01"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown client", asAdmin: true, body: `{"clientId":12,"description":"work","hours":"1","date":"2024-01-01"}`, createErr: client.ErrNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeHoursRepo{}
			if tt.createErr != nil {
				repo.createFn = func(ctx context.Context, req hours.EntryRequest) (hours.Entry, error) {
					return hours.Entry{}, tt.createErr
				}
			}

			p := &clientUser
			if tt.asAdmin {
				p = &adminUser
			}

			h := handlers.NewHoursHandler(repo, fakeClientReader{})
			r := setupRouter(http.MethodPost, "/api/hours", p, h.Create)

			w := doJSON(r, http.MethodPost, "/api/hours", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status %d want %d body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantHours != "" {
				var got struct {
					Hours string `json:"hours"`
					Date  string `json:"date"`
				}
				mustReadJSON(t, w, &got)
				if got.Hours != tt.wantHours || got.Date != "2024-01-01" {
					t.Fatalf("unexpected entry %+v", got)
				}
			}
		})
	}
}

func TestUpdateAndDeleteHoursHandler(t *testing.T) {
	repo := &fakeHoursRepo{
		updateFn: func(ctx context.Context, id int64, req hours.EntryRequest) (hours.Entry, error) {
			if id != 1 {
				return hours.Entry{}, hours.ErrNotFound
			}
			return hours.Entry{ID: id, ClientID: req.ClientID, Hours: req.Hours, Date: req.Date}, nil
		},
		deleteFn: func(ctx context.Context, id int64) error {
			if id != 1 {
				return hours.ErrNotFound
			}
			return nil
		},
	}
	h := handlers.NewHoursHandler(repo, fakeClientReader{})

	body := `{"clientId":10,"description":"fixed","hours":"4","date":"2024-02-02"}`

	r := setupRouter(http.MethodPut, "/api/hours/:id", &adminUser, h.Update)
	if w := doJSON(r, http.MethodPut, "/api/hours/1", body); w.Code != http.StatusOK {
		t.Fatalf("update: status %d body=%s", w.Code, w.Body.String())
	}
	if w := doJSON(r, http.MethodPut, "/api/hours/2", body); w.Code != http.StatusNotFound {
		t.Fatalf("update missing: status %d", w.Code)
	}

	r = setupRouter(http.MethodPut, "/api/hours/:id", &clientUser, h.Update)
	if w := doJSON(r, http.MethodPut, "/api/hours/1", body); w.Code != http.StatusForbidden {
		t.Fatalf("client update: status %d", w.Code)
	}

	r = setupRouter(http.MethodDelete, "/api/hours/:id", &adminUser, h.Delete)
	if w := doJSON(r, http.MethodDelete, "/api/hours/1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/api/hours/2", ""); w.Code != http.StatusNotFound {
		t.Fatalf("delete missing: status %d", w.Code)
	}
}
