package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/loom/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultMaxLen caps the mail stream when no WithMaxLen option is given.
const DefaultMaxLen = 1000

// Mailer implements ports.Mailer by appending records to a Redis stream.
// Session layers consume the stream (XREAD) to push run logs to clients.
type Mailer struct {
	client *backend.Client
	prefix string
	stream string
	maxLen int64
	ttl    time.Duration
}

type Option func(*Mailer)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(m *Mailer) {
		m.prefix = prefix
	}
}

// WithStream sets the stream name (appended to the prefix).
func WithStream(stream string) Option {
	return func(m *Mailer) {
		m.stream = stream
	}
}

// WithMaxLen caps the number of records kept in the stream. 0 disables trimming.
func WithMaxLen(n int64) Option {
	return func(m *Mailer) {
		m.maxLen = n
	}
}

// WithTTL expires the whole stream after ttl without new mail.
func WithTTL(ttl time.Duration) Option {
	return func(m *Mailer) {
		m.ttl = ttl
	}
}

// New creates a new Redis mailer with options.
func New(address, password string, db int, opts ...Option) *Mailer {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis mailer from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Mailer {
	m := &Mailer{
		client: client,
		prefix: "loom:",
		stream: "mail",
		maxLen: DefaultMaxLen,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Client returns the underlying Redis client, e.g. to share it with a Locker.
func (m *Mailer) Client() *backend.Client {
	return m.client
}

// Prefix returns the key prefix.
func (m *Mailer) Prefix() string {
	return m.prefix
}

// Key returns the stream key.
func (m *Mailer) Key() string {
	return m.prefix + m.stream
}

// Mail appends the record to the stream.
func (m *Mailer) Mail(ctx context.Context, mail domain.Mail) error {
	payload := ""
	if mail.Payload != nil {
		data, err := json.Marshal(mail.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal mail payload: %w", err)
		}
		payload = string(data)
	}

	pipe := m.client.Pipeline()
	pipe.XAdd(ctx, &backend.XAddArgs{
		Stream: m.Key(),
		MaxLen: m.maxLen,
		Values: map[string]any{
			"kind":    string(mail.Kind),
			"title":   mail.Title,
			"message": mail.Message,
			"payload": payload,
		},
	})
	if m.ttl > 0 {
		pipe.Expire(ctx, m.Key(), m.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append mail to redis: %w", err)
	}
	return nil
}

// Recent returns up to n of the latest records, oldest first.
func (m *Mailer) Recent(ctx context.Context, n int64) ([]domain.Mail, error) {
	msgs, err := m.client.XRevRangeN(ctx, m.Key(), "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read mail from redis: %w", err)
	}

	out := make([]domain.Mail, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		mail, err := decode(msgs[i].Values)
		if err != nil {
			return nil, fmt.Errorf("mail %s: %w", msgs[i].ID, err)
		}
		out = append(out, mail)
	}
	return out, nil
}

func decode(values map[string]any) (domain.Mail, error) {
	str := func(k string) string {
		s, _ := values[k].(string)
		return s
	}
	mail := domain.Mail{
		Kind:    domain.MailKind(str("kind")),
		Title:   str("title"),
		Message: str("message"),
	}
	if raw := str("payload"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mail.Payload); err != nil {
			return domain.Mail{}, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}
	return mail, nil
}

// Close closes the redis client.
func (m *Mailer) Close() error {
	return m.client.Close()
}
