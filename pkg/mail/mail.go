package mail

import (
	"context"

	"go.uber.org/zap"
)

// Address is a named email recipient.
type Address struct {
	Name  string
	Email string
}

// Message is a rendered outbound email.
type Message struct {
	To       []Address
	Subject  string
	Text     string
	HTML     string
}

// Mailer delivers rendered messages. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ConsoleMailer logs messages instead of delivering them. Used in
// development and tests.
type ConsoleMailer struct {
	logger *zap.Logger
}

// NewConsoleMailer constructs a ConsoleMailer.
func NewConsoleMailer(logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{logger: logger}
}

// Send logs the message and reports success.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		recipients = append(recipients, to.Email)
	}
	m.logger.Sugar().Infow("email (console)", "to", recipients, "subject", msg.Subject, "body", msg.Text)
	return nil
}
