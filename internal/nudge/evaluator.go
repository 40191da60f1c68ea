package nudge

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/flowhq/flow-api/internal/models"
)

// Evaluator holds the pure fire-now / fire-when decision logic for a single
// invoice under a policy. It performs no I/O and never mutates its inputs;
// the caller injects the clock.
type Evaluator struct {
	// useUserTimezone switches the business-hours and weekday gates to the
	// policy's timezone. Off by default: gating historically used the
	// server's local clock even though a per-user timezone field exists,
	// and existing accounts rely on that.
	useUserTimezone bool
	logger          zerolog.Logger
}

func NewEvaluator(useUserTimezone bool, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		useUserTimezone: useUserTimezone,
		logger:          logger.With().Str("component", "nudge_evaluator").Logger(),
	}
}

// ShouldFire decides whether a reminder should go out for inv right now.
// Evaluating it twice with the same inputs always yields the same answer.
func (e *Evaluator) ShouldFire(inv models.Invoice, policy Policy, now time.Time) bool {
	if inv.Status != models.InvoiceStatusPending || !inv.NudgeActive {
		return false
	}
	if !policy.NudgeEnabled {
		return false
	}

	daysOverdue := DaysOverdue(inv.DueDate, now)
	if daysOverdue < 0 {
		return false
	}

	if !e.windowOpen(policy, now) {
		return false
	}

	if inv.NudgeCount >= policy.MaxNudges {
		return false
	}

	if inv.NudgeCount == 0 {
		return daysOverdue >= policy.FirstNudgeDelay
	}
	if inv.LastNudgeAt == nil {
		return false
	}
	return daysSince(*inv.LastNudgeAt, now) >= policy.NudgeInterval
}

// NextEligibleTime computes the next cadence boundary for display. The hour
// and weekday gates are deliberately ignored here: they are re-checked at
// tick time, not baked into the projected date. Returns nil when the invoice
// will never be nudged again (inactive, not pending, or at the cap).
func (e *Evaluator) NextEligibleTime(inv models.Invoice, policy Policy, now time.Time) *time.Time {
	if inv.Status != models.InvoiceStatusPending || !inv.NudgeActive || !policy.NudgeEnabled {
		return nil
	}
	if inv.NudgeCount >= policy.MaxNudges {
		return nil
	}

	var next time.Time
	if inv.NudgeCount == 0 {
		next = inv.DueDate.Add(time.Duration(policy.FirstNudgeDelay) * 24 * time.Hour)
	} else {
		if inv.LastNudgeAt == nil {
			return nil
		}
		next = inv.LastNudgeAt.Add(time.Duration(policy.NudgeInterval) * 24 * time.Hour)
	}

	if next.Before(now) {
		next = now
	}
	return &next
}

// windowOpen applies the business-hours and weekday gates. An invalid window
// configuration fails closed: no send, warning logged.
func (e *Evaluator) windowOpen(policy Policy, now time.Time) bool {
	if !policy.BusinessHoursOnly && !policy.WeekdaysOnly {
		return true
	}

	gate := now
	if e.useUserTimezone {
		gate = now.In(policy.Location())
	}

	if policy.BusinessHoursOnly {
		if err := policy.Validate(); err != nil {
			e.logger.Warn().Err(err).Msg("invalid business-hours window, nudge gate closed")
			return false
		}
		hour := gate.Hour()
		if hour < policy.BusinessStartHour || hour >= policy.BusinessEndHour {
			return false
		}
	}

	if policy.WeekdaysOnly {
		switch gate.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	return true
}

// DaysOverdue counts calendar days past due, rounding partial days up: an
// invoice one hour past due is already one day overdue. Negative means not
// due yet.
func DaysOverdue(dueDate, now time.Time) int {
	return int(math.Ceil(now.Sub(dueDate).Hours() / 24))
}

// daysSince counts whole elapsed days, rounding down: a full interval must
// pass before a reminder repeats, unlike DaysOverdue which rounds up.
func daysSince(t, now time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}
