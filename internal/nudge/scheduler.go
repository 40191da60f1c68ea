package nudge

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/flowhq/flow-api/internal/models"
	"github.com/flowhq/flow-api/internal/notification"
	"github.com/flowhq/flow-api/internal/repository"
)

type SchedulerConfig struct {
	// CronSpec is the sweep cadence, hourly by default. Correctness does not
	// depend on it: eligibility is recomputed from absolute timestamps each
	// tick, so a missed tick just means the reminder goes out on the next one.
	CronSpec    string
	SendTimeout time.Duration
}

// Scheduler runs the periodic nudge sweep. It is the single writer of the
// nudge counters and is expected to run as one instance per deployment.
type Scheduler struct {
	cfg        SchedulerConfig
	invoices   repository.InvoiceRepository
	users      repository.UserRepository
	logs       repository.NudgeLogRepository
	evaluator  *Evaluator
	dispatcher notification.Dispatcher
	logger     zerolog.Logger
}

func NewScheduler(
	cfg SchedulerConfig,
	invoices repository.InvoiceRepository,
	users repository.UserRepository,
	logs repository.NudgeLogRepository,
	evaluator *Evaluator,
	dispatcher notification.Dispatcher,
	logger zerolog.Logger,
) *Scheduler {
	if cfg.CronSpec == "" {
		cfg.CronSpec = "0 * * * *"
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &Scheduler{
		cfg:        cfg,
		invoices:   invoices,
		users:      users,
		logs:       logs,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "nudge_scheduler").Logger(),
	}
}

// Run blocks until ctx is cancelled, firing Tick on the configured schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(s.cfg.CronSpec, func() {
		if err := s.Tick(ctx, time.Now()); err != nil {
			s.logger.Error().Err(err).Msg("nudge sweep failed")
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid cron spec %q", s.cfg.CronSpec)
	}

	s.logger.Info().Str("cron_spec", s.cfg.CronSpec).Msg("nudge scheduler started")
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("nudge scheduler stopped")
	return ctx.Err()
}

// Tick performs one sweep over every overdue, pending, nudge-active invoice.
// The candidate set is fixed up front; each candidate is processed
// independently so one failure never aborts the batch.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	candidates, err := s.invoices.ListOverdueActive(ctx, now)
	if err != nil {
		return errors.Wrap(err, "failed to list overdue invoices")
	}

	s.logger.Debug().Int("candidates", len(candidates)).Time("now", now).Msg("nudge sweep started")

	for _, inv := range candidates {
		if err := s.processInvoice(ctx, inv, now); err != nil {
			s.logger.Error().
				Err(err).
				Str("invoice_id", inv.ID).
				Str("client_email", inv.ClientEmail).
				Msg("failed to process invoice nudge")
		}
	}

	return nil
}

func (s *Scheduler) processInvoice(ctx context.Context, inv models.Invoice, now time.Time) error {
	user, err := s.users.GetUserByID(ctx, inv.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Data integrity problem, not a batch failure.
			s.logger.Warn().
				Str("invoice_id", inv.ID).
				Str("user_id", inv.UserID).
				Msg("invoice references missing user, skipping")
			return nil
		}
		return errors.Wrap(err, "failed to load invoice owner")
	}

	policy := PolicyFromUser(user)

	// Free-tier quota guard: invoices beyond the quota are skipped, never
	// cancelled. Accounts that exceeded the quota before a downgrade keep
	// their invoices, they just stop getting automation.
	if policy.InvoiceQuota >= 0 {
		active, err := s.invoices.CountActiveByUser(ctx, user.ID)
		if err != nil {
			return errors.Wrap(err, "failed to count active invoices")
		}
		if active > policy.InvoiceQuota {
			s.logger.Debug().
				Str("invoice_id", inv.ID).
				Str("user_id", user.ID).
				Int("active_invoices", active).
				Msg("free-tier quota exceeded, skipping nudge")
			return nil
		}
	}

	if inv.NudgeCount >= policy.MaxNudges {
		if err := s.invoices.DeactivateNudging(ctx, inv.ID); err != nil {
			return errors.Wrap(err, "failed to deactivate nudging at cap")
		}
		s.logger.Info().
			Str("invoice_id", inv.ID).
			Int("nudge_count", inv.NudgeCount).
			Int("max_nudges", policy.MaxNudges).
			Msg("nudge cap reached, automation disabled for invoice")
		return nil
	}

	if !s.evaluator.ShouldFire(inv, policy, now) {
		return nil
	}

	ordinal := inv.NudgeCount + 1

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	sent, err := s.dispatcher.Send(sendCtx, inv, user, ordinal)
	cancel()
	if err != nil {
		// Counters stay untouched so the next tick retries this invoice.
		return errors.Wrapf(err, "failed to send nudge %d", ordinal)
	}

	s.logger.Info().
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Str("client_email", inv.ClientEmail).
		Int("ordinal", ordinal).
		Msg("nudge sent")

	// Past this point the email is out the door. A persistence failure means
	// the send is unrecorded and the next tick may repeat it; an occasional
	// duplicate reminder beats silently stopping, so log loudly and move on.
	if _, err := s.logs.Append(ctx, inv.ID, sent.Subject, sent.Body, now); err != nil {
		s.logger.Error().
			Err(err).
			Str("invoice_id", inv.ID).
			Int("ordinal", ordinal).
			Msg("nudge sent but log entry not recorded")
	}
	if err := s.invoices.IncrementNudge(ctx, inv.ID, now); err != nil {
		s.logger.Error().
			Err(err).
			Str("invoice_id", inv.ID).
			Int("ordinal", ordinal).
			Msg("nudge sent but counters not recorded, duplicate send possible next tick")
	}

	return nil
}
