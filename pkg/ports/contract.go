package ports

import (
	"context"
	"testing"

	"github.com/aretw0/loom/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunMailerContract runs a suite of tests to verify that a Mailer implementation
// adheres to the defined interface contract. recent returns the records delivered so far,
// oldest first.
func RunMailerContract(t *testing.T, mailer Mailer, recent func(ctx context.Context) ([]domain.Mail, error)) {
	ctx := context.Background()

	t.Run("Deliver and read back", func(t *testing.T) {
		err := mailer.Mail(ctx, domain.Mail{Kind: domain.MailInfo, Title: "greeting", Message: "hello"})
		require.NoError(t, err, "Mail should not return error")

		mails, err := recent(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, mails)
		last := mails[len(mails)-1]
		assert.Equal(t, domain.MailInfo, last.Kind)
		assert.Equal(t, "greeting", last.Title)
		assert.Equal(t, "hello", last.Message)
	})

	t.Run("Payload survives delivery", func(t *testing.T) {
		payload := map[string]any{"node_id": "n1", "count": float64(2)}
		err := mailer.Mail(ctx, domain.Mail{Kind: domain.MailError, Title: "run log", Payload: payload})
		require.NoError(t, err)

		mails, err := recent(ctx)
		require.NoError(t, err)
		last := mails[len(mails)-1]
		assert.Equal(t, domain.MailError, last.Kind)
		assert.Equal(t, payload, last.Payload)
	})

	t.Run("Order is preserved", func(t *testing.T) {
		for _, title := range []string{"first", "second"} {
			require.NoError(t, mailer.Mail(ctx, domain.Mail{Kind: domain.MailInfo, Title: title}))
		}
		mails, err := recent(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(mails), 2)
		assert.Equal(t, "first", mails[len(mails)-2].Title)
		assert.Equal(t, "second", mails[len(mails)-1].Title)
	})
}
