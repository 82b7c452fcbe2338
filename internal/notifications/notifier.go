package notifications

import "context"

// ApplicationSubmittedInput tells the freelancer a new client applied.
type ApplicationSubmittedInput struct {
	ClientID     int64
	FreelancerID int64
	Name         string
	Email        string
	Notes        string
}

// ApplicationDecidedInput tells the applicant how their application ended.
type ApplicationDecidedInput struct {
	ClientID int64
	Name     string
	Email    string
	Status   string
}

type Notifier interface {
	ApplicationSubmitted(ctx context.Context, in ApplicationSubmittedInput) error
	ApplicationDecided(ctx context.Context, in ApplicationDecidedInput) error
}
