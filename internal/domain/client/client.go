package client

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal statuses have no outgoing transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

var (
	ErrNotFound          = errors.New("client not found")
	ErrApplicationExists = errors.New("application already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUserHasClient     = errors.New("user already has a client record")
)

type Client struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	FreelancerID int64     `json:"freelancerId"`
	UserID       *int64    `json:"userId"`
	Email        *string   `json:"email"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LinkedTo reports whether the client record belongs to the given user.
func (c Client) LinkedTo(userID int64) bool {
	return c.UserID != nil && *c.UserID == userID
}

// ValidateTransition enforces the application lifecycle:
// pending -> approved | rejected, nothing out of a terminal state.
func ValidateTransition(from, to Status) error {
	if from != StatusPending {
		return ErrInvalidTransition
	}
	if !to.Terminal() {
		return ErrInvalidTransition
	}
	return nil
}

type CreateClientRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Email string `json:"email" binding:"required,email,max=320"`
}

type ApplyRequest struct {
	Notes string `json:"notes" binding:"max=4000"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=approved rejected"`
}

// CreateParams is what the admin create path persists. The repository finds
// or pre-provisions the user owning Email and links it.
type CreateParams struct {
	Name         string
	Email        string
	FreelancerID int64
}

// ApplyParams is a self-service application from an existing user.
type ApplyParams struct {
	Name         string
	Email        string
	Notes        string
	UserID       int64
	FreelancerID int64
}
