package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowhq/flow-api/internal/models"
)

type InvoiceRepository interface {
	Create(ctx context.Context, params CreateInvoiceParams) (models.Invoice, error)
	Get(ctx context.Context, id string) (models.Invoice, error)
	GetByUnsubscribeToken(ctx context.Context, token string) (models.Invoice, error)
	ListByUser(ctx context.Context, userID string) ([]models.Invoice, error)
	// ListOverdueActive returns the candidate set for one scheduler tick:
	// every invoice that is past due, still pending, and has nudging enabled.
	ListOverdueActive(ctx context.Context, now time.Time) ([]models.Invoice, error)
	MarkPaid(ctx context.Context, id string) (models.Invoice, error)
	DeactivateNudging(ctx context.Context, id string) error
	IncrementNudge(ctx context.Context, id string, sentAt time.Time) error
	CountActiveByUser(ctx context.Context, userID string) (int, error)
	UserStats(ctx context.Context, userID string, now time.Time) (models.InvoiceStats, error)
}

type CreateInvoiceParams struct {
	UserID        string
	ClientName    string
	ClientEmail   string
	InvoiceNumber string
	Amount        string
	DueDate       time.Time
}

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `id, user_id, client_name, client_email, invoice_number, amount, due_date,
	status, paid_at, nudge_count, last_nudge_at, nudge_active, unsubscribe_token, created_at, updated_at`

func (r *invoiceRepository) Create(ctx context.Context, params CreateInvoiceParams) (models.Invoice, error) {
	const query = `
		INSERT INTO flow.invoices (user_id, client_name, client_email, invoice_number, amount, due_date, unsubscribe_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + invoiceColumns

	row := r.db.QueryRowContext(ctx, query,
		params.UserID,
		strings.TrimSpace(params.ClientName),
		strings.TrimSpace(params.ClientEmail),
		strings.TrimSpace(params.InvoiceNumber),
		params.Amount,
		params.DueDate,
		uuid.NewString(),
	)
	return scanInvoice(row)
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (models.Invoice, error) {
	const query = `SELECT ` + invoiceColumns + ` FROM flow.invoices WHERE id = $1`
	return scanInvoice(r.db.QueryRowContext(ctx, query, id))
}

func (r *invoiceRepository) GetByUnsubscribeToken(ctx context.Context, token string) (models.Invoice, error) {
	const query = `SELECT ` + invoiceColumns + ` FROM flow.invoices WHERE unsubscribe_token = $1`
	return scanInvoice(r.db.QueryRowContext(ctx, query, strings.TrimSpace(token)))
}

func (r *invoiceRepository) ListByUser(ctx context.Context, userID string) ([]models.Invoice, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM flow.invoices
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func (r *invoiceRepository) ListOverdueActive(ctx context.Context, now time.Time) ([]models.Invoice, error) {
	const query = `
		SELECT ` + invoiceColumns + `
		FROM flow.invoices
		WHERE due_date < $1 AND status = 'pending' AND nudge_active = TRUE
		ORDER BY due_date ASC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

func (r *invoiceRepository) MarkPaid(ctx context.Context, id string) (models.Invoice, error) {
	const query = `
		UPDATE flow.invoices
		SET status = 'paid', paid_at = NOW(), nudge_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + invoiceColumns

	return scanInvoice(r.db.QueryRowContext(ctx, query, id))
}

func (r *invoiceRepository) DeactivateNudging(ctx context.Context, id string) error {
	const query = `
		UPDATE flow.invoices
		SET nudge_active = FALSE, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementNudge advances the nudge counters in a single statement so a
// concurrent mark-paid cannot interleave between the read and the write.
func (r *invoiceRepository) IncrementNudge(ctx context.Context, id string, sentAt time.Time) error {
	const query = `
		UPDATE flow.invoices
		SET nudge_count = nudge_count + 1, last_nudge_at = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, sentAt)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *invoiceRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM flow.invoices
		WHERE user_id = $1 AND status IN ('pending', 'overdue')`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *invoiceRepository) UserStats(ctx context.Context, userID string, now time.Time) (models.InvoiceStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COUNT(*) FILTER (WHERE status = 'pending' AND due_date < $2),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0)
		FROM flow.invoices
		WHERE user_id = $1`

	var stats models.InvoiceStats
	err := r.db.QueryRowContext(ctx, query, userID, now).Scan(
		&stats.Total,
		&stats.Paid,
		&stats.Overdue,
		&stats.TotalValue,
		&stats.PaidValue,
	)
	if err != nil {
		return models.InvoiceStats{}, err
	}
	return stats, nil
}

func scanInvoice(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Invoice, error) {
	var (
		inv         models.Invoice
		paidAt      sql.NullTime
		lastNudgeAt sql.NullTime
	)

	if err := scanner.Scan(
		&inv.ID,
		&inv.UserID,
		&inv.ClientName,
		&inv.ClientEmail,
		&inv.InvoiceNumber,
		&inv.Amount,
		&inv.DueDate,
		&inv.Status,
		&paidAt,
		&inv.NudgeCount,
		&lastNudgeAt,
		&inv.NudgeActive,
		&inv.UnsubscribeToken,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	); err != nil {
		return models.Invoice{}, err
	}

	if paidAt.Valid {
		t := paidAt.Time
		inv.PaidAt = &t
	}
	if lastNudgeAt.Valid {
		t := lastNudgeAt.Time
		inv.LastNudgeAt = &t
	}

	return inv, nil
}

func collectInvoices(rows *sql.Rows) ([]models.Invoice, error) {
	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}
