package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/flowhq/flow-api/internal/models"
)

type TemplateRepository interface {
	GetByUserAndTone(ctx context.Context, userID string, tone models.MessageTone) (models.EmailTemplate, error)
	ListByUser(ctx context.Context, userID string) ([]models.EmailTemplate, error)
	Upsert(ctx context.Context, userID string, params UpsertTemplateParams) (models.EmailTemplate, error)
}

type UpsertTemplateParams struct {
	Name        string
	Tone        models.MessageTone
	NudgeNumber int
	Subject     string
	Body        string
}

type templateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) TemplateRepository {
	return &templateRepository{db: db}
}

const templateColumns = `id, user_id, name, tone, nudge_number, subject, body, created_at, updated_at`

func (r *templateRepository) GetByUserAndTone(ctx context.Context, userID string, tone models.MessageTone) (models.EmailTemplate, error) {
	const query = `
		SELECT ` + templateColumns + `
		FROM flow.email_templates
		WHERE user_id = $1 AND tone = $2
		ORDER BY nudge_number ASC
		LIMIT 1`

	return scanTemplate(r.db.QueryRowContext(ctx, query, userID, tone))
}

func (r *templateRepository) ListByUser(ctx context.Context, userID string) ([]models.EmailTemplate, error) {
	const query = `
		SELECT ` + templateColumns + `
		FROM flow.email_templates
		WHERE user_id = $1
		ORDER BY tone, nudge_number`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.EmailTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) Upsert(ctx context.Context, userID string, params UpsertTemplateParams) (models.EmailTemplate, error) {
	const query = `
		INSERT INTO flow.email_templates (user_id, name, tone, nudge_number, subject, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, tone, nudge_number)
		DO UPDATE SET name = EXCLUDED.name, subject = EXCLUDED.subject, body = EXCLUDED.body, updated_at = NOW()
		RETURNING ` + templateColumns

	row := r.db.QueryRowContext(ctx, query,
		userID,
		strings.TrimSpace(params.Name),
		params.Tone,
		params.NudgeNumber,
		params.Subject,
		params.Body,
	)
	return scanTemplate(row)
}

func scanTemplate(scanner interface {
	Scan(dest ...interface{}) error
}) (models.EmailTemplate, error) {
	var tpl models.EmailTemplate
	if err := scanner.Scan(
		&tpl.ID,
		&tpl.UserID,
		&tpl.Name,
		&tpl.Tone,
		&tpl.NudgeNumber,
		&tpl.Subject,
		&tpl.Body,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	); err != nil {
		return models.EmailTemplate{}, err
	}
	return tpl, nil
}
