package hours

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("hours entry not found")
	ErrInvalidQuantity = errors.New("hours must be a positive amount with at most two decimals, up to 99.99")
	ErrInvalidDate     = errors.New("date must be formatted as YYYY-MM-DD")
)

const dateLayout = "2006-01-02"

// WorkDate is the calendar day the work happened on, distinct from the
// creation timestamp of the entry.
type WorkDate struct {
	t time.Time
}

func NewWorkDate(t time.Time) WorkDate {
	y, m, d := t.Date()
	return WorkDate{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseWorkDate accepts a plain date or an RFC 3339 timestamp, whose own
// calendar day is kept.
func ParseWorkDate(s string) (WorkDate, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(dateLayout, s); err == nil {
		return NewWorkDate(t), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewWorkDate(t), nil
	}

	return WorkDate{}, ErrInvalidDate
}

func (d WorkDate) Time() time.Time {
	return d.t
}

func (d WorkDate) IsZero() bool {
	return d.t.IsZero()
}

func (d WorkDate) String() string {
	return d.t.Format(dateLayout)
}

func (d WorkDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *WorkDate) UnmarshalJSON(b []byte) error {
	if strings.TrimSpace(string(b)) == "null" {
		*d = WorkDate{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}

	parsed, err := ParseWorkDate(s)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

type Entry struct {
	ID          int64     `json:"id"`
	ClientID    int64     `json:"clientId"`
	Description string    `json:"description"`
	Hours       Quantity  `json:"hours"`
	Date        WorkDate  `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EntryRequest is the payload of both create and full update.
type EntryRequest struct {
	ClientID    int64    `json:"clientId" binding:"required,min=1"`
	Description string   `json:"description" binding:"required,max=2000"`
	Hours       Quantity `json:"hours"`
	Date        WorkDate `json:"date"`
}

// Validate covers the fields binding tags cannot express.
func (r EntryRequest) Validate() error {
	if r.Hours.IsZero() {
		return fmt.Errorf("hours: %w", ErrInvalidQuantity)
	}

	if r.Date.IsZero() {
		return fmt.Errorf("date: %w", ErrInvalidDate)
	}

	return nil
}

type Summary struct {
	ClientID int64  `json:"clientId"`
	Count    int    `json:"count"`
	Total    string `json:"total"`
}

func Summarize(clientID int64, entries []Entry) Summary {
	return Summary{
		ClientID: clientID,
		Count:    len(entries),
		Total:    Total(entries).StringFixed(Scale),
	}
}
