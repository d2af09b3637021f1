package memory

import (
	"context"
	"sync"

	"github.com/aretw0/loom/pkg/domain"
)

// Mailbox implements ports.Mailer in memory.
// Safe for concurrent use.
type Mailbox struct {
	mu    sync.RWMutex
	mails []domain.Mail
	limit int
}

// NewMailbox creates a mailbox keeping at most limit records (0 keeps everything).
func NewMailbox(limit int) *Mailbox {
	return &Mailbox{limit: limit}
}

// Mail stores the record.
func (m *Mailbox) Mail(ctx context.Context, mail domain.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, mail)
	if m.limit > 0 && len(m.mails) > m.limit {
		m.mails = m.mails[len(m.mails)-m.limit:]
	}
	return nil
}

// Recent returns a copy of the stored records, oldest first.
func (m *Mailbox) Recent(ctx context.Context) ([]domain.Mail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Mail, len(m.mails))
	copy(out, m.mails)
	return out, nil
}

// RunLogs returns the run logs among the stored records.
func (m *Mailbox) RunLogs() []domain.RunLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.RunLog
	for _, mail := range m.mails {
		if rl, ok := mail.Payload.(domain.RunLog); ok {
			out = append(out, rl)
		}
	}
	return out
}

// Reset drops every stored record.
func (m *Mailbox) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = nil
}
