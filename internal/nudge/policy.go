package nudge

import (
	"fmt"
	"time"

	"github.com/flowhq/flow-api/internal/models"
)

// Tier limits. Free accounts get three automated reminders per invoice and
// three active invoices; pro accounts get five reminders and no invoice cap.
const (
	FreeMaxNudges     = 3
	ProMaxNudges      = 5
	FreeInvoiceQuota  = 3
	unlimitedInvoices = -1
)

// Policy is an immutable snapshot of a user's automation settings, taken once
// per user per tick. The scheduler never mutates it.
type Policy struct {
	NudgeEnabled      bool
	FirstNudgeDelay   int // days after due date before the first reminder
	NudgeInterval     int // days between subsequent reminders
	MaxNudges         int
	BusinessHoursOnly bool
	BusinessStartHour int // inclusive, 0-23
	BusinessEndHour   int // exclusive, 0-23
	WeekdaysOnly      bool
	Timezone          string
	Tone              models.MessageTone
	IsPro             bool
	InvoiceQuota      int // active-invoice cap for non-pro users; -1 means unlimited
}

// PolicyFromUser derives the effective policy for a user record, applying
// tier-dependent caps and falling back to the schema defaults for zero values.
func PolicyFromUser(user models.User) Policy {
	p := Policy{
		NudgeEnabled:      user.NudgeEnabled,
		FirstNudgeDelay:   user.FirstNudgeDelay,
		NudgeInterval:     user.NudgeInterval,
		MaxNudges:         FreeMaxNudges,
		BusinessHoursOnly: user.BusinessHoursOnly,
		BusinessStartHour: user.BusinessStartHour,
		BusinessEndHour:   user.BusinessEndHour,
		WeekdaysOnly:      user.WeekdaysOnly,
		Timezone:          user.Timezone,
		Tone:              user.MessageTone,
		IsPro:             user.IsPro,
		InvoiceQuota:      FreeInvoiceQuota,
	}

	if user.IsPro {
		p.MaxNudges = ProMaxNudges
		p.InvoiceQuota = unlimitedInvoices
	}

	if p.FirstNudgeDelay < 0 {
		p.FirstNudgeDelay = 0
	}
	if p.NudgeInterval < 1 {
		p.NudgeInterval = 1
	}
	if !models.IsValidTone(p.Tone) {
		p.Tone = models.ToneFriendly
	}

	return p
}

// Validate reports whether the time-window settings make sense. The evaluator
// fails closed on an invalid policy instead of erroring, so a misconfigured
// account stops sending rather than crashing the batch.
func (p Policy) Validate() error {
	if !p.BusinessHoursOnly {
		return nil
	}
	if p.BusinessStartHour < 0 || p.BusinessStartHour > 23 {
		return fmt.Errorf("business start hour %d out of range", p.BusinessStartHour)
	}
	if p.BusinessEndHour < 0 || p.BusinessEndHour > 23 {
		return fmt.Errorf("business end hour %d out of range", p.BusinessEndHour)
	}
	if p.BusinessEndHour <= p.BusinessStartHour {
		return fmt.Errorf("business end hour %d not after start hour %d", p.BusinessEndHour, p.BusinessStartHour)
	}
	return nil
}

// Location resolves the policy timezone, falling back to server-local time
// when the field is empty or unparseable.
func (p Policy) Location() *time.Location {
	if p.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
