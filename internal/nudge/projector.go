package nudge

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/flowhq/flow-api/internal/models"
	"github.com/flowhq/flow-api/internal/repository"
)

// UpcomingNudge is one row of the dashboard's "what goes out next" view.
type UpcomingNudge struct {
	Invoice       models.Invoice `json:"invoice"`
	NextNudgeDate time.Time      `json:"next_nudge_date"`
	NudgeNumber   int            `json:"nudge_number"`
}

// Projector answers the read-only "when is the next reminder?" question for a
// user's invoices. It shares the evaluator's time math with the scheduler but
// never mutates anything, so it is safe to call while a sweep is running.
type Projector struct {
	invoices  repository.InvoiceRepository
	users     repository.UserRepository
	evaluator *Evaluator
}

func NewProjector(invoices repository.InvoiceRepository, users repository.UserRepository, evaluator *Evaluator) *Projector {
	return &Projector{
		invoices:  invoices,
		users:     users,
		evaluator: evaluator,
	}
}

// UpcomingNudges lists pending, nudge-active, under-cap invoices with their
// projected next reminder, ascending by date.
func (p *Projector) UpcomingNudges(ctx context.Context, userID string, now time.Time) ([]UpcomingNudge, error) {
	user, err := p.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	policy := PolicyFromUser(user)

	invoices, err := p.invoices.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list invoices")
	}

	var upcoming []UpcomingNudge
	for _, inv := range invoices {
		next := p.evaluator.NextEligibleTime(inv, policy, now)
		if next == nil {
			continue
		}
		upcoming = append(upcoming, UpcomingNudge{
			Invoice:       inv,
			NextNudgeDate: *next,
			NudgeNumber:   inv.NudgeCount + 1,
		})
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].NextNudgeDate.Before(upcoming[j].NextNudgeDate)
	})

	return upcoming, nil
}
