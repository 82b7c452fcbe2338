package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/hours"
)

type HoursRepo struct {
	s *Store
}

func (r *HoursRepo) ListByClient(_ context.Context, clientID int64) ([]hours.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]hours.Entry, 0)
	for _, e := range r.s.hours {
		if e.ClientID == clientID {
			out = append(out, e)
		}
	}

	// newest work first, like the postgres ORDER BY date DESC, id DESC
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Time().Equal(out[j].Date.Time()) {
			return out[i].Date.Time().After(out[j].Date.Time())
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (r *HoursRepo) GetByID(_ context.Context, id int64) (hours.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.hours[id]
	if !ok {
		return hours.Entry{}, hours.ErrNotFound
	}
	return e, nil
}

func (r *HoursRepo) Create(_ context.Context, req hours.EntryRequest) (hours.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.clients[req.ClientID]; !ok {
		return hours.Entry{}, client.ErrNotFound
	}

	r.s.nextHoursID++
	e := hours.Entry{
		ID:          r.s.nextHoursID,
		ClientID:    req.ClientID,
		Description: req.Description,
		Hours:       req.Hours,
		Date:        req.Date,
		CreatedAt:   r.s.now(),
	}
	r.s.hours[e.ID] = e

	return e, nil
}

func (r *HoursRepo) Update(_ context.Context, id int64, req hours.EntryRequest) (hours.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.hours[id]
	if !ok {
		return hours.Entry{}, hours.ErrNotFound
	}

	if _, ok := r.s.clients[req.ClientID]; !ok {
		return hours.Entry{}, client.ErrNotFound
	}

	e.ClientID = req.ClientID
	e.Description = req.Description
	e.Hours = req.Hours
	e.Date = req.Date
	r.s.hours[id] = e

	return e, nil
}

func (r *HoursRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.hours[id]; !ok {
		return hours.ErrNotFound
	}

	delete(r.s.hours, id)
	return nil
}
