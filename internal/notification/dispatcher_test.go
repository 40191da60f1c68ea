package notification

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowhq/flow-api/internal/models"
	"github.com/flowhq/flow-api/internal/repository"
)

type fakeTemplateRepo struct {
	templates map[models.MessageTone]models.EmailTemplate
	err       error
}

func (f *fakeTemplateRepo) GetByUserAndTone(ctx context.Context, userID string, tone models.MessageTone) (models.EmailTemplate, error) {
	if f.err != nil {
		return models.EmailTemplate{}, f.err
	}
	tpl, ok := f.templates[tone]
	if !ok {
		return models.EmailTemplate{}, sql.ErrNoRows
	}
	return tpl, nil
}

func (f *fakeTemplateRepo) ListByUser(ctx context.Context, userID string) ([]models.EmailTemplate, error) {
	return nil, errors.New("not implemented in test fake")
}

func (f *fakeTemplateRepo) Upsert(ctx context.Context, userID string, params repository.UpsertTemplateParams) (models.EmailTemplate, error) {
	return models.EmailTemplate{}, errors.New("not implemented in test fake")
}

type fakeMailer struct {
	sent  []OutboundEmail
	err   error
	block chan struct{} // when set, Send waits until the channel closes
}

func (f *fakeMailer) Send(email OutboundEmail) error {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

func dispatchFixtures() (models.Invoice, models.User) {
	inv := models.Invoice{
		ID:               "inv-1",
		UserID:           "user-1",
		ClientName:       "Acme Corp",
		ClientEmail:      "billing@acme.test",
		InvoiceNumber:    "INV-0042",
		Amount:           "1250.00",
		// 71h back so the day count ceils to a stable 3 even after the
		// nanoseconds this test takes to reach the render call.
		DueDate:          time.Now().Add(-71 * time.Hour),
		Status:           models.InvoiceStatusPending,
		NudgeActive:      true,
		UnsubscribeToken: "tok-abc",
	}
	user := models.User{
		ID:           "user-1",
		Email:        "owner@flow.test",
		BusinessName: "Flow Studio",
		MessageTone:  models.ToneFriendly,
	}
	return inv, user
}

func TestSendRendersStoredTemplate(t *testing.T) {
	inv, user := dispatchFixtures()
	templates := &fakeTemplateRepo{templates: map[models.MessageTone]models.EmailTemplate{
		models.ToneFriendly: {
			Subject: "Invoice {{invoiceId}} from {{businessName}}",
			Body:    "Hi {{clientName}}, {{amount}} was due {{dueDate}} ({{daysPastDue}} days ago).",
		},
	}}
	mailer := &fakeMailer{}
	d := NewEmailDispatcher(templates, mailer, "https://app.flow.test/", zerolog.Nop())

	sent, err := d.Send(context.Background(), inv, user, 1)
	require.NoError(t, err)

	assert.Equal(t, "Invoice INV-0042 from Flow Studio", sent.Subject)
	assert.Contains(t, sent.Body, "Hi Acme Corp, $1250.00 was due")
	assert.Contains(t, sent.Body, inv.DueDate.Format("Jan 2, 2006"))
	assert.Contains(t, sent.Body, "(3 days ago)")
	assert.NotContains(t, sent.Body, "{{")

	require.Len(t, mailer.sent, 1)
	out := mailer.sent[0]
	assert.Equal(t, "billing@acme.test", out.To)
	assert.Equal(t, "owner@flow.test", out.ReplyTo)
	assert.Equal(t, sent.Subject, out.Subject)
	assert.Contains(t, out.HTMLBody, "https://app.flow.test/api/unsubscribe?token=tok-abc")
	assert.Contains(t, out.HTMLBody, "sent by Flow Studio")
}

func TestSendFallsBackToDefaultTemplate(t *testing.T) {
	inv, user := dispatchFixtures()
	mailer := &fakeMailer{}
	d := NewEmailDispatcher(&fakeTemplateRepo{}, mailer, "https://app.flow.test", zerolog.Nop())

	sent, err := d.Send(context.Background(), inv, user, 1)
	require.NoError(t, err)
	assert.Equal(t, "Friendly reminder about Invoice INV-0042", sent.Subject)
	assert.Contains(t, sent.Body, "Hi Acme Corp,")
	assert.Contains(t, sent.Body, "Flow Studio")
}

// A lookup failure other than "no rows" must not block the reminder; the
// compiled-in default is used instead.
func TestSendTemplateLookupErrorUsesDefault(t *testing.T) {
	inv, user := dispatchFixtures()
	mailer := &fakeMailer{}
	templates := &fakeTemplateRepo{err: errors.New("connection reset")}
	d := NewEmailDispatcher(templates, mailer, "https://app.flow.test", zerolog.Nop())

	sent, err := d.Send(context.Background(), inv, user, 2)
	require.NoError(t, err)
	assert.Equal(t, "Following up on Invoice INV-0042", sent.Subject)
}

func TestSendInvalidToneFallsBackToFriendly(t *testing.T) {
	inv, user := dispatchFixtures()
	user.MessageTone = models.MessageTone("shouty")
	mailer := &fakeMailer{}
	d := NewEmailDispatcher(&fakeTemplateRepo{}, mailer, "https://app.flow.test", zerolog.Nop())

	sent, err := d.Send(context.Background(), inv, user, 1)
	require.NoError(t, err)
	assert.Contains(t, sent.Subject, "Friendly reminder")
}

func TestSendSignsOffWithEmailWhenNoBusinessName(t *testing.T) {
	inv, user := dispatchFixtures()
	user.BusinessName = ""
	mailer := &fakeMailer{}
	d := NewEmailDispatcher(&fakeTemplateRepo{}, mailer, "https://app.flow.test", zerolog.Nop())

	sent, err := d.Send(context.Background(), inv, user, 1)
	require.NoError(t, err)
	assert.Contains(t, sent.Body, "owner@flow.test")
}

func TestSendPropagatesMailerError(t *testing.T) {
	inv, user := dispatchFixtures()
	mailer := &fakeMailer{err: errors.New("connection refused")}
	d := NewEmailDispatcher(&fakeTemplateRepo{}, mailer, "https://app.flow.test", zerolog.Nop())

	_, err := d.Send(context.Background(), inv, user, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp delivery failed")
	assert.Empty(t, mailer.sent)
}

func TestSendHonorsContextDeadline(t *testing.T) {
	inv, user := dispatchFixtures()
	mailer := &fakeMailer{block: make(chan struct{})}
	defer close(mailer.block)
	d := NewEmailDispatcher(&fakeTemplateRepo{}, mailer, "https://app.flow.test", zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Send(ctx, inv, user, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
