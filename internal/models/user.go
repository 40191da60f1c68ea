package models

import "time"

type MessageTone string

const (
	ToneFriendly     MessageTone = "friendly"
	ToneProfessional MessageTone = "professional"
	ToneFirm         MessageTone = "firm"
)

func IsValidTone(tone MessageTone) bool {
	switch tone {
	case ToneFriendly, ToneProfessional, ToneFirm:
		return true
	}
	return false
}

type User struct {
	ID                string      `json:"id" db:"id"`
	Email             string      `json:"email" db:"email"`
	PasswordHash      string      `json:"-" db:"password_hash"`
	BusinessName      string      `json:"business_name" db:"business_name"`
	Timezone          string      `json:"timezone" db:"timezone"`
	MessageTone       MessageTone `json:"message_tone" db:"message_tone"`
	IsPro             bool        `json:"is_pro" db:"is_pro"`
	SubscriptionTier  string      `json:"subscription_tier" db:"subscription_tier"`
	NudgeEnabled      bool        `json:"nudge_enabled" db:"nudge_enabled"`
	FirstNudgeDelay   int         `json:"first_nudge_delay" db:"first_nudge_delay"`
	NudgeInterval     int         `json:"nudge_interval" db:"nudge_interval"`
	BusinessHoursOnly bool        `json:"business_hours_only" db:"business_hours_only"`
	BusinessStartHour int         `json:"business_start_hour" db:"business_start_hour"`
	BusinessEndHour   int         `json:"business_end_hour" db:"business_end_hour"`
	WeekdaysOnly      bool        `json:"weekdays_only" db:"weekdays_only"`
	FromEmail         string      `json:"from_email" db:"from_email"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// SenderName is what nudge emails sign off with when the user never set a
// business name.
func (u User) SenderName() string {
	if u.BusinessName != "" {
		return u.BusinessName
	}
	return u.Email
}
