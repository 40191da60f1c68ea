package nudge

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowhq/flow-api/internal/models"
)

// Wednesday 10:00, inside default business hours and not a weekend.
var wednesdayMorning = time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

func openPolicy() Policy {
	return Policy{
		NudgeEnabled:    true,
		FirstNudgeDelay: 1,
		NudgeInterval:   3,
		MaxNudges:       3,
		Tone:            models.ToneFriendly,
	}
}

func pendingInvoice(due time.Time, nudgeCount int, lastNudgeAt *time.Time) models.Invoice {
	return models.Invoice{
		ID:          "inv-1",
		UserID:      "user-1",
		ClientName:  "Acme Corp",
		ClientEmail: "billing@acme.test",
		DueDate:     due,
		Status:      models.InvoiceStatusPending,
		NudgeCount:  nudgeCount,
		LastNudgeAt: lastNudgeAt,
		NudgeActive: true,
	}
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(false, zerolog.Nop())
}

func TestShouldFireFirstNudgeAfterDelay(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning

	// 25 hours overdue ceils to 2 days, past the 1-day delay.
	inv := pendingInvoice(now.Add(-25*time.Hour), 0, nil)
	assert.True(t, e.ShouldFire(inv, openPolicy(), now))

	// Not overdue at all.
	inv = pendingInvoice(now.Add(48*time.Hour), 0, nil)
	assert.False(t, e.ShouldFire(inv, openPolicy(), now))

	// Overdue but under the delay: 25h overdue against a 3-day delay.
	policy := openPolicy()
	policy.FirstNudgeDelay = 3
	inv = pendingInvoice(now.Add(-25*time.Hour), 0, nil)
	assert.False(t, e.ShouldFire(inv, policy, now))
}

func TestShouldFireIsDeterministic(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning
	inv := pendingInvoice(now.Add(-25*time.Hour), 0, nil)

	first := e.ShouldFire(inv, openPolicy(), now)
	second := e.ShouldFire(inv, openPolicy(), now)
	assert.Equal(t, first, second)
	assert.True(t, first)
}

func TestShouldFireIntervalEnforcement(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning
	due := now.Add(-10 * 24 * time.Hour)

	// Two days since the last nudge floors to 2, under the 3-day interval.
	last := now.Add(-2 * 24 * time.Hour)
	inv := pendingInvoice(due, 1, &last)
	assert.False(t, e.ShouldFire(inv, openPolicy(), now))

	// Exactly three days: the interval is complete.
	last = now.Add(-3 * 24 * time.Hour)
	inv = pendingInvoice(due, 1, &last)
	assert.True(t, e.ShouldFire(inv, openPolicy(), now))

	// A partial third day is not enough; the interval math floors where the
	// overdue math ceils.
	last = now.Add(-3*24*time.Hour + time.Hour)
	inv = pendingInvoice(due, 1, &last)
	assert.False(t, e.ShouldFire(inv, openPolicy(), now))
}

func TestShouldFireCapStopsNudging(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning
	last := now.Add(-10 * 24 * time.Hour)

	inv := pendingInvoice(now.Add(-30*24*time.Hour), 3, &last)
	assert.False(t, e.ShouldFire(inv, openPolicy(), now))
}

func TestShouldFireBusinessHoursGate(t *testing.T) {
	e := newTestEvaluator()
	policy := openPolicy()
	policy.BusinessHoursOnly = true
	policy.BusinessStartHour = 9
	policy.BusinessEndHour = 17

	day := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	due := day.Add(-5 * 24 * time.Hour)
	inv := pendingInvoice(due, 0, nil)

	cases := []struct {
		hour int
		want bool
	}{
		{8, false},
		{9, true}, // start inclusive
		{12, true},
		{16, true},
		{17, false}, // end exclusive
		{22, false},
	}
	for _, tc := range cases {
		now := day.Add(time.Duration(tc.hour) * time.Hour)
		assert.Equalf(t, tc.want, e.ShouldFire(inv, policy, now), "hour %d", tc.hour)
	}
}

func TestShouldFireWeekdayGate(t *testing.T) {
	e := newTestEvaluator()
	policy := openPolicy()
	policy.WeekdaysOnly = true

	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	saturday := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)

	inv := pendingInvoice(due, 0, nil)
	assert.False(t, e.ShouldFire(inv, policy, saturday))
	assert.False(t, e.ShouldFire(inv, policy, sunday))
	assert.True(t, e.ShouldFire(inv, policy, monday))
}

func TestShouldFirePaidOrInactiveNeverFires(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning

	inv := pendingInvoice(now.Add(-10*24*time.Hour), 0, nil)
	inv.Status = models.InvoiceStatusPaid
	assert.False(t, e.ShouldFire(inv, openPolicy(), now))

	inv = pendingInvoice(now.Add(-10*24*time.Hour), 0, nil)
	inv.Status = models.InvoiceStatusCancelled
	assert.False(t, e.ShouldFire(inv, openPolicy(), now))

	inv = pendingInvoice(now.Add(-10*24*time.Hour), 0, nil)
	inv.NudgeActive = false
	assert.False(t, e.ShouldFire(inv, openPolicy(), now))

	policy := openPolicy()
	policy.NudgeEnabled = false
	inv = pendingInvoice(now.Add(-10*24*time.Hour), 0, nil)
	assert.False(t, e.ShouldFire(inv, policy, now))
}

func TestShouldFireInvalidWindowFailsClosed(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning

	policy := openPolicy()
	policy.BusinessHoursOnly = true
	policy.BusinessStartHour = 17
	policy.BusinessEndHour = 9 // end before start: misconfigured

	inv := pendingInvoice(now.Add(-10*24*time.Hour), 0, nil)
	assert.False(t, e.ShouldFire(inv, policy, now))
}

// The default gating clock is the server's, not the user's configured
// timezone. The user-timezone path is opt-in.
func TestBusinessHoursGateTimezoneModes(t *testing.T) {
	policy := openPolicy()
	policy.BusinessHoursOnly = true
	policy.BusinessStartHour = 9
	policy.BusinessEndHour = 17
	policy.Timezone = "Asia/Almaty" // UTC+5

	// 06:00 UTC on a Wednesday = 11:00 in Almaty.
	now := time.Date(2025, 6, 11, 6, 0, 0, 0, time.UTC)
	inv := pendingInvoice(now.Add(-5*24*time.Hour), 0, nil)

	serverLocal := NewEvaluator(false, zerolog.Nop())
	assert.False(t, serverLocal.ShouldFire(inv, policy, now), "server clock says 06:00, gate closed")

	userLocal := NewEvaluator(true, zerolog.Nop())
	assert.True(t, userLocal.ShouldFire(inv, policy, now), "user clock says 11:00, gate open")
}

func TestNextEligibleTimeFirstNudge(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning
	policy := openPolicy()

	// Boundary in the future: due + delay.
	due := now.Add(12 * time.Hour)
	inv := pendingInvoice(due, 0, nil)
	next := e.NextEligibleTime(inv, policy, now)
	require.NotNil(t, next)
	assert.Equal(t, due.Add(24*time.Hour), *next)

	// Boundary already passed: clamped to now.
	due = now.Add(-10 * 24 * time.Hour)
	inv = pendingInvoice(due, 0, nil)
	next = e.NextEligibleTime(inv, policy, now)
	require.NotNil(t, next)
	assert.Equal(t, now, *next)
}

func TestNextEligibleTimeSubsequentNudge(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning
	policy := openPolicy()

	last := now.Add(-24 * time.Hour)
	inv := pendingInvoice(now.Add(-10*24*time.Hour), 1, &last)
	next := e.NextEligibleTime(inv, policy, now)
	require.NotNil(t, next)
	assert.Equal(t, last.Add(3*24*time.Hour), *next)
}

func TestNextEligibleTimeNilCases(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning
	policy := openPolicy()
	last := now.Add(-24 * time.Hour)

	// At the cap.
	inv := pendingInvoice(now.Add(-10*24*time.Hour), 3, &last)
	assert.Nil(t, e.NextEligibleTime(inv, policy, now))

	// Opted out.
	inv = pendingInvoice(now.Add(-10*24*time.Hour), 1, &last)
	inv.NudgeActive = false
	assert.Nil(t, e.NextEligibleTime(inv, policy, now))

	// Paid.
	inv = pendingInvoice(now.Add(-10*24*time.Hour), 1, &last)
	inv.Status = models.InvoiceStatusPaid
	assert.Nil(t, e.NextEligibleTime(inv, policy, now))

	// Counter advanced but no last-nudge timestamp recorded.
	inv = pendingInvoice(now.Add(-10*24*time.Hour), 1, nil)
	assert.Nil(t, e.NextEligibleTime(inv, policy, now))
}

// The projected time is the first instant at which ShouldFire flips true,
// holding the hour and weekday gates open.
func TestProjectionMatchesEventualFiring(t *testing.T) {
	e := newTestEvaluator()
	now := wednesdayMorning
	policy := openPolicy()

	last := now.Add(-24 * time.Hour)
	inv := pendingInvoice(now.Add(-10*24*time.Hour), 1, &last)

	next := e.NextEligibleTime(inv, policy, now)
	require.NotNil(t, next)

	assert.False(t, e.ShouldFire(inv, policy, next.Add(-time.Hour)))
	assert.True(t, e.ShouldFire(inv, policy, *next))
}

func TestDaysOverdueCeiling(t *testing.T) {
	now := wednesdayMorning
	assert.Equal(t, 2, DaysOverdue(now.Add(-25*time.Hour), now))
	assert.Equal(t, 1, DaysOverdue(now.Add(-time.Hour), now))
	assert.Equal(t, 2, DaysOverdue(now.Add(-48*time.Hour), now))
	assert.Equal(t, -1, DaysOverdue(now.Add(30*time.Hour), now))
}
