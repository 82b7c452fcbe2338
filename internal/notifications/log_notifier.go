package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier records notifications in the application log. It stands in
// for a mail provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) ApplicationSubmitted(ctx context.Context, in ApplicationSubmittedInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.application_submitted",
		"client_id", in.ClientID,
		"freelancer_id", in.FreelancerID,
		"email", in.Email,
		"name", in.Name,
	)
	return nil
}

func (n *LogNotifier) ApplicationDecided(ctx context.Context, in ApplicationDecidedInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.application_decided",
		"client_id", in.ClientID,
		"email", in.Email,
		"status", in.Status,
	)
	return nil
}
