package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/flowhq/flow-api/internal/models"
)

type NudgeLogRepository interface {
	Append(ctx context.Context, invoiceID, subject, body string, sentAt time.Time) (models.NudgeLog, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]models.NudgeLog, error)
}

type nudgeLogRepository struct {
	db *sql.DB
}

func NewNudgeLogRepository(db *sql.DB) NudgeLogRepository {
	return &nudgeLogRepository{db: db}
}

func (r *nudgeLogRepository) Append(ctx context.Context, invoiceID, subject, body string, sentAt time.Time) (models.NudgeLog, error) {
	const query = `
		INSERT INTO flow.nudge_logs (invoice_id, email_subject, email_body, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, invoice_id, email_subject, email_body, sent_at, opened, clicked
	`

	row := r.db.QueryRowContext(ctx, query, invoiceID, subject, body, sentAt)
	return scanNudgeLog(row)
}

func (r *nudgeLogRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]models.NudgeLog, error) {
	const query = `
		SELECT id, invoice_id, email_subject, email_body, sent_at, opened, clicked
		FROM flow.nudge_logs
		WHERE invoice_id = $1
		ORDER BY sent_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.NudgeLog
	for rows.Next() {
		entry, err := scanNudgeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func scanNudgeLog(scanner interface {
	Scan(dest ...interface{}) error
}) (models.NudgeLog, error) {
	var entry models.NudgeLog
	if err := scanner.Scan(
		&entry.ID,
		&entry.InvoiceID,
		&entry.EmailSubject,
		&entry.EmailBody,
		&entry.SentAt,
		&entry.Opened,
		&entry.Clicked,
	); err != nil {
		return models.NudgeLog{}, err
	}
	return entry, nil
}
