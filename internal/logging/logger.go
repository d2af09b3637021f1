package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/loom/pkg/domain"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New creates a configured application logger.
// It writes to Stderr (to separate from Stdout results and the MCP stdio stream).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level, format string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a flag value (debug, info, warn, error) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s'", s)
	}
	return level, nil
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Mailer writes mail records to a logger. Error mails are logged at error level.
type Mailer struct {
	logger *slog.Logger
}

// NewMailer creates a Mailer backed by logger.
func NewMailer(logger *slog.Logger) *Mailer {
	return &Mailer{logger: logger}
}

// Mail implements ports.Mailer.
func (m *Mailer) Mail(ctx context.Context, mail domain.Mail) error {
	level := slog.LevelInfo
	if mail.Kind == domain.MailError {
		level = slog.LevelError
	}
	attrs := []any{"title", mail.Title}
	if rl, ok := mail.Payload.(domain.RunLog); ok {
		attrs = append(attrs, "run_id", rl.RunID, "status", rl.Status, "entries", len(rl.Entries))
	} else if mail.Payload != nil {
		attrs = append(attrs, "payload", mail.Payload)
	}
	m.logger.Log(ctx, level, mail.Message, attrs...)
	return nil
}
