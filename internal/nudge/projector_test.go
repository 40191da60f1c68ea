package nudge

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowhq/flow-api/internal/models"
)

func newProjectorFixture(invoices []models.Invoice, user models.User) (*Projector, *fakeInvoiceRepo) {
	invoiceRepo := &fakeInvoiceRepo{
		byUser: map[string][]models.Invoice{user.ID: invoices},
	}
	userRepo := &fakeUserRepo{users: map[string]models.User{user.ID: user}}
	return NewProjector(invoiceRepo, userRepo, NewEvaluator(false, zerolog.Nop())), invoiceRepo
}

func TestUpcomingNudgesSortedAscending(t *testing.T) {
	now := wednesdayMorning
	user := freeUser("user-1")

	lastRecent := now.Add(-24 * time.Hour)
	lastOld := now.Add(-2 * 24 * time.Hour)

	// soon: one day into a three-day interval, fires in two days.
	soon := overdueInvoice("inv-soon", user.ID, now.Add(-10*24*time.Hour))
	soon.NudgeCount = 1
	soon.LastNudgeAt = &lastOld

	// later: just nudged, fires in three days.
	later := overdueInvoice("inv-later", user.ID, now.Add(-10*24*time.Hour))
	later.NudgeCount = 1
	later.LastNudgeAt = &lastRecent

	// immediate: never nudged and already past the first-nudge delay.
	immediate := overdueInvoice("inv-now", user.ID, now.Add(-10*24*time.Hour))

	p, _ := newProjectorFixture([]models.Invoice{later, immediate, soon}, user)
	upcoming, err := p.UpcomingNudges(context.Background(), user.ID, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 3)

	assert.Equal(t, "inv-now", upcoming[0].Invoice.ID)
	assert.Equal(t, "inv-soon", upcoming[1].Invoice.ID)
	assert.Equal(t, "inv-later", upcoming[2].Invoice.ID)

	assert.Equal(t, now, upcoming[0].NextNudgeDate)
	assert.Equal(t, lastOld.Add(3*24*time.Hour), upcoming[1].NextNudgeDate)
	assert.Equal(t, lastRecent.Add(3*24*time.Hour), upcoming[2].NextNudgeDate)
}

func TestUpcomingNudgesNumbersTheNextSend(t *testing.T) {
	now := wednesdayMorning
	user := freeUser("user-1")

	last := now.Add(-24 * time.Hour)
	inv := overdueInvoice("inv-1", user.ID, now.Add(-10*24*time.Hour))
	inv.NudgeCount = 2
	inv.LastNudgeAt = &last

	p, _ := newProjectorFixture([]models.Invoice{inv}, user)
	upcoming, err := p.UpcomingNudges(context.Background(), user.ID, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, 3, upcoming[0].NudgeNumber)
}

func TestUpcomingNudgesOmitsTerminalInvoices(t *testing.T) {
	now := wednesdayMorning
	user := freeUser("user-1")
	last := now.Add(-24 * time.Hour)

	paid := overdueInvoice("inv-paid", user.ID, now.Add(-10*24*time.Hour))
	paid.Status = models.InvoiceStatusPaid

	optedOut := overdueInvoice("inv-opted-out", user.ID, now.Add(-10*24*time.Hour))
	optedOut.NudgeActive = false

	capped := overdueInvoice("inv-capped", user.ID, now.Add(-10*24*time.Hour))
	capped.NudgeCount = 3
	capped.LastNudgeAt = &last

	live := overdueInvoice("inv-live", user.ID, now.Add(-10*24*time.Hour))

	p, _ := newProjectorFixture([]models.Invoice{paid, optedOut, capped, live}, user)
	upcoming, err := p.UpcomingNudges(context.Background(), user.ID, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "inv-live", upcoming[0].Invoice.ID)
}

func TestUpcomingNudgesEmptyWhenNoInvoices(t *testing.T) {
	user := freeUser("user-1")
	p, _ := newProjectorFixture(nil, user)

	upcoming, err := p.UpcomingNudges(context.Background(), user.ID, wednesdayMorning)
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestUpcomingNudgesPropagatesRepoErrors(t *testing.T) {
	user := freeUser("user-1")
	p, invoiceRepo := newProjectorFixture(nil, user)
	invoiceRepo.listErr = errors.New("connection reset")

	_, err := p.UpcomingNudges(context.Background(), user.ID, wednesdayMorning)
	require.Error(t, err)

	_, err = p.UpcomingNudges(context.Background(), "unknown-user", wednesdayMorning)
	require.Error(t, err)
}
