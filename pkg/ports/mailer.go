package ports

import (
	"context"

	"github.com/aretw0/loom/pkg/domain"
)

// Mailer delivers structured records to whoever observes the engine.
// Implementations must be safe for concurrent use.
type Mailer interface {
	Mail(ctx context.Context, mail domain.Mail) error
}

// MailerFunc adapts a function to Mailer.
type MailerFunc func(ctx context.Context, mail domain.Mail) error

// Mail calls f.
func (f MailerFunc) Mail(ctx context.Context, mail domain.Mail) error {
	return f(ctx, mail)
}
