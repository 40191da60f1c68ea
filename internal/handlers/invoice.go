package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/flowhq/flow-api/internal/authz"
	"github.com/flowhq/flow-api/internal/models"
	"github.com/flowhq/flow-api/internal/nudge"
	"github.com/flowhq/flow-api/internal/repository"
)

type InvoiceHandler struct {
	invoices repository.InvoiceRepository
	users    repository.UserRepository
	logs     repository.NudgeLogRepository
	logger   zerolog.Logger
}

func NewInvoiceHandler(invoices repository.InvoiceRepository, users repository.UserRepository, logs repository.NudgeLogRepository, logger zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoices: invoices,
		users:    users,
		logs:     logs,
		logger:   logger.With().Str("handler", "invoice").Logger(),
	}
}

type createInvoiceRequest struct {
	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email"`
	InvoiceNumber string `json:"invoice_number"`
	Amount        string `json:"amount"`
	DueDate       string `json:"due_date"`
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	invoices, err := h.invoices.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list invoices")
		writeError(w, http.StatusInternalServerError, "Failed to fetch invoices")
		return
	}

	writeJSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.ClientName) == "" || strings.TrimSpace(req.ClientEmail) == "" {
		writeError(w, http.StatusBadRequest, "Client name and email are required")
		return
	}
	if strings.TrimSpace(req.InvoiceNumber) == "" || strings.TrimSpace(req.Amount) == "" {
		writeError(w, http.StatusBadRequest, "Invoice number and amount are required")
		return
	}
	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		// Date-only input from the invoice form.
		dueDate, err = time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due date")
			return
		}
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load user")
		writeError(w, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	if !user.IsPro {
		active, err := h.invoices.CountActiveByUser(r.Context(), userID)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to count active invoices")
			writeError(w, http.StatusInternalServerError, "Failed to create invoice")
			return
		}
		if active >= nudge.FreeInvoiceQuota {
			writeError(w, http.StatusBadRequest, "Free plan limited to 3 active invoices. Upgrade to Pro for unlimited invoices.")
			return
		}
	}

	invoice, err := h.invoices.Create(r.Context(), repository.CreateInvoiceParams{
		UserID:        userID,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		InvoiceNumber: req.InvoiceNumber,
		Amount:        req.Amount,
		DueDate:       dueDate,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create invoice")
		writeError(w, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	writeJSON(w, http.StatusCreated, invoice)
}

func (h *InvoiceHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	invoice, ok := h.ownedInvoice(w, r, userID)
	if !ok {
		return
	}

	updated, err := h.invoices.MarkPaid(r.Context(), invoice.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("invoice_id", invoice.ID).Msg("failed to mark invoice paid")
		writeError(w, http.StatusInternalServerError, "Failed to mark invoice as paid")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *InvoiceHandler) NudgeLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	invoice, ok := h.ownedInvoice(w, r, userID)
	if !ok {
		return
	}

	logs, err := h.logs.ListByInvoice(r.Context(), invoice.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("invoice_id", invoice.ID).Msg("failed to list nudge logs")
		writeError(w, http.StatusInternalServerError, "Failed to fetch nudge logs")
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

// ownedInvoice loads the invoice from the route and verifies ownership.
// A foreign invoice reads as not-found, never as forbidden.
func (h *InvoiceHandler) ownedInvoice(w http.ResponseWriter, r *http.Request, userID string) (models.Invoice, bool) {
	invoiceID := strings.TrimSpace(mux.Vars(r)["invoiceID"])
	if invoiceID == "" {
		writeError(w, http.StatusBadRequest, "Invoice ID is required")
		return models.Invoice{}, false
	}

	invoice, err := h.invoices.Get(r.Context(), invoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Invoice not found")
			return models.Invoice{}, false
		}
		h.logger.Error().Err(err).Str("invoice_id", invoiceID).Msg("failed to load invoice")
		writeError(w, http.StatusInternalServerError, "Failed to load invoice")
		return models.Invoice{}, false
	}

	if invoice.UserID != userID {
		writeError(w, http.StatusNotFound, "Invoice not found")
		return models.Invoice{}, false
	}

	return invoice, true
}
