package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/flowhq/flow-api/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, email, password, businessName string) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateSettings(ctx context.Context, userID string, params SettingsParams) (models.User, error)
}

// SettingsParams carries every user-editable field of the settings surface,
// including the full nudge policy.
type SettingsParams struct {
	BusinessName      string
	Timezone          string
	MessageTone       models.MessageTone
	FromEmail         string
	NudgeEnabled      bool
	FirstNudgeDelay   int
	NudgeInterval     int
	BusinessHoursOnly bool
	BusinessStartHour int
	BusinessEndHour   int
	WeekdaysOnly      bool
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, business_name, timezone, message_tone, is_pro,
	subscription_tier, nudge_enabled, first_nudge_delay, nudge_interval, business_hours_only,
	business_start_hour, business_end_hour, weekdays_only, from_email, created_at, updated_at`

func (u *userRepository) CreateUser(ctx context.Context, email, password, businessName string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	businessName = strings.TrimSpace(businessName)
	if email == "" {
		return models.User{}, errors.New("email is required")
	}
	if password == "" {
		return models.User{}, errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	const query = `
		INSERT INTO flow.users (email, password_hash, business_name)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	return scanUser(u.db.QueryRowContext(ctx, query, email, string(hash), businessName))
}

func (u *userRepository) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	user, err := u.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}

	return user, nil
}

func (u *userRepository) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM flow.users WHERE id = $1`
	return scanUser(u.db.QueryRowContext(ctx, query, userID))
}

func (u *userRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM flow.users WHERE email = $1`
	return scanUser(u.db.QueryRowContext(ctx, query, strings.TrimSpace(strings.ToLower(email))))
}

func (u *userRepository) UpdateSettings(ctx context.Context, userID string, params SettingsParams) (models.User, error) {
	const query = `
		UPDATE flow.users
		SET business_name = $2,
			timezone = $3,
			message_tone = $4,
			from_email = $5,
			nudge_enabled = $6,
			first_nudge_delay = $7,
			nudge_interval = $8,
			business_hours_only = $9,
			business_start_hour = $10,
			business_end_hour = $11,
			weekdays_only = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	row := u.db.QueryRowContext(ctx, query,
		userID,
		strings.TrimSpace(params.BusinessName),
		strings.TrimSpace(params.Timezone),
		params.MessageTone,
		strings.TrimSpace(params.FromEmail),
		params.NudgeEnabled,
		params.FirstNudgeDelay,
		params.NudgeInterval,
		params.BusinessHoursOnly,
		params.BusinessStartHour,
		params.BusinessEndHour,
		params.WeekdaysOnly,
	)
	return scanUser(row)
}

func scanUser(scanner interface {
	Scan(dest ...interface{}) error
}) (models.User, error) {
	var (
		user         models.User
		businessName sql.NullString
		fromEmail    sql.NullString
	)

	if err := scanner.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&businessName,
		&user.Timezone,
		&user.MessageTone,
		&user.IsPro,
		&user.SubscriptionTier,
		&user.NudgeEnabled,
		&user.FirstNudgeDelay,
		&user.NudgeInterval,
		&user.BusinessHoursOnly,
		&user.BusinessStartHour,
		&user.BusinessEndHour,
		&user.WeekdaysOnly,
		&fromEmail,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return models.User{}, err
	}

	user.BusinessName = businessName.String
	user.FromEmail = fromEmail.String

	return user, nil
}
