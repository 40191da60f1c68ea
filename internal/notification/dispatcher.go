package notification

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/flowhq/flow-api/internal/models"
	"github.com/flowhq/flow-api/internal/repository"
)

// SentEmail is the rendered message actually handed to the transport. The
// scheduler records it in the nudge log.
type SentEmail struct {
	Subject string
	Body    string
}

// Dispatcher formats and delivers one reminder email. Implementations must
// not mutate invoice state; recording the send is the scheduler's job.
type Dispatcher interface {
	Send(ctx context.Context, inv models.Invoice, user models.User, ordinal int) (SentEmail, error)
}

// EmailDispatcher renders a reminder from the user's stored template (or the
// compiled-in default for their tone) and delivers it via the Mailer.
type EmailDispatcher struct {
	templates repository.TemplateRepository
	mailer    Mailer
	baseURL   string
	logger    zerolog.Logger
}

func NewEmailDispatcher(templates repository.TemplateRepository, mailer Mailer, baseURL string, logger zerolog.Logger) *EmailDispatcher {
	return &EmailDispatcher{
		templates: templates,
		mailer:    mailer,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger.With().Str("component", "email_dispatcher").Logger(),
	}
}

func (d *EmailDispatcher) Send(ctx context.Context, inv models.Invoice, user models.User, ordinal int) (SentEmail, error) {
	content := d.resolveTemplate(ctx, user, ordinal)

	subject := d.render(content.Subject, inv, user)
	body := d.render(content.Body, inv, user)

	unsubscribeURL := fmt.Sprintf("%s/api/unsubscribe?token=%s", d.baseURL, url.QueryEscape(inv.UnsubscribeToken))
	html := fmt.Sprintf(`%s
<br><br>
<hr>
<p style="font-size: 12px; color: #666;">
  This email was sent by %s using Flow.<br>
  <a href="%s">Unsubscribe from these reminders</a>
</p>`, body, user.SenderName(), unsubscribeURL)

	email := OutboundEmail{
		To:       inv.ClientEmail,
		ReplyTo:  user.Email,
		Subject:  subject,
		HTMLBody: html,
	}

	// net/smtp has no context support, so the send runs in its own goroutine
	// and the caller's deadline bounds how long the sweep waits for it.
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.mailer.Send(email)
	}()

	select {
	case <-ctx.Done():
		return SentEmail{}, errors.Wrap(ctx.Err(), "nudge send timed out")
	case err := <-errCh:
		if err != nil {
			return SentEmail{}, errors.Wrap(err, "smtp delivery failed")
		}
	}

	return SentEmail{Subject: subject, Body: body}, nil
}

func (d *EmailDispatcher) resolveTemplate(ctx context.Context, user models.User, ordinal int) EmailContent {
	tone := user.MessageTone
	if !models.IsValidTone(tone) {
		tone = models.ToneFriendly
	}

	tpl, err := d.templates.GetByUserAndTone(ctx, user.ID, tone)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			d.logger.Warn().Err(err).Str("user_id", user.ID).Msg("template lookup failed, using default")
		}
		return DefaultTemplate(tone, ordinal)
	}
	return EmailContent{Subject: tpl.Subject, Body: tpl.Body}
}

func (d *EmailDispatcher) render(template string, inv models.Invoice, user models.User) string {
	// Same ceiling rule as the eligibility math: a partial day counts.
	daysPastDue := int(math.Ceil(time.Since(inv.DueDate).Hours() / 24))
	if daysPastDue < 0 {
		daysPastDue = 0
	}

	unsubscribeURL := fmt.Sprintf("%s/api/unsubscribe?token=%s", d.baseURL, url.QueryEscape(inv.UnsubscribeToken))

	replacer := strings.NewReplacer(
		"{{clientName}}", inv.ClientName,
		"{{invoiceId}}", inv.InvoiceNumber,
		"{{amount}}", "$"+inv.Amount,
		"{{dueDate}}", inv.DueDate.Format("Jan 2, 2006"),
		"{{daysPastDue}}", strconv.Itoa(daysPastDue),
		"{{businessName}}", user.SenderName(),
		"{{unsubscribeLink}}", unsubscribeURL,
	)
	return replacer.Replace(template)
}
