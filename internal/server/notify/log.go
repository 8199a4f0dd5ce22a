package notify

import (
	"context"

	"github.com/dmitrijs2005/otpauth/internal/logging"
)

// LogNotifier writes the message to the log instead of sending it. Only for
// local development: the code ends up in plain text in the logs.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(l logging.Logger) *LogNotifier {
	return &LogNotifier{log: l}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.log.Info(ctx, "notification", "to", to, "subject", subject, "body", body)
	return nil
}
