// Package access holds the role matrix that gates every API operation.
package access

import (
	"errors"

	"github.com/geocoder89/freelancehours/internal/domain/client"
	"github.com/geocoder89/freelancehours/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

type Action string

const (
	ListClients       Action = "clients.list"
	ReadOwnClient     Action = "clients.me"
	CreateClient      Action = "clients.create"
	ApplyClient       Action = "clients.apply"
	ListPending       Action = "clients.pending"
	DecideApplication Action = "clients.decide"
	ReadHours         Action = "hours.read"
	WriteHours        Action = "hours.write"
)

// matrix[action] is the set of roles allowed to attempt the action. Row level
// ownership is checked separately.
var matrix = map[Action]map[user.Role]bool{
	ListClients:       {user.RoleAdmin: true, user.RoleClient: true},
	ReadOwnClient:     {user.RoleAdmin: true, user.RoleClient: true},
	CreateClient:      {user.RoleAdmin: true},
	ApplyClient:       {user.RoleClient: true},
	ListPending:       {user.RoleAdmin: true},
	DecideApplication: {user.RoleAdmin: true},
	ReadHours:         {user.RoleAdmin: true, user.RoleClient: true},
	WriteHours:        {user.RoleAdmin: true},
}

// Authorize checks the role level permission of principal for action.
func Authorize(principal *user.User, action Action) error {
	if principal == nil {
		return ErrUnauthenticated
	}

	if !matrix[action][principal.Role] {
		return ErrForbidden
	}

	return nil
}

// AuthorizeHoursRead lets an admin read any client's hours and a client only
// the hours of the client record linked to them.
func AuthorizeHoursRead(principal *user.User, c client.Client) error {
	if err := Authorize(principal, ReadHours); err != nil {
		return err
	}

	if principal.IsAdmin() {
		return nil
	}

	if !c.LinkedTo(principal.ID) {
		return ErrForbidden
	}

	return nil
}

// Scope describes which client rows a principal may list.
type Scope struct {
	All    bool
	UserID int64
}

func ClientScope(principal *user.User) (Scope, error) {
	if err := Authorize(principal, ListClients); err != nil {
		return Scope{}, err
	}

	if principal.IsAdmin() {
		return Scope{All: true}, nil
	}

	return Scope{UserID: principal.ID}, nil
}
