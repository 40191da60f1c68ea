package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/flowhq/flow-api/internal/repository"
)

// UnsubscribeHandler lets an invoice recipient opt out of reminders via the
// tokenized link embedded in every nudge email. It is the one public,
// unauthenticated write surface, which is why it keys on an opaque token
// rather than an invoice id.
type UnsubscribeHandler struct {
	invoices repository.InvoiceRepository
	logger   zerolog.Logger
}

func NewUnsubscribeHandler(invoices repository.InvoiceRepository, logger zerolog.Logger) *UnsubscribeHandler {
	return &UnsubscribeHandler{
		invoices: invoices,
		logger:   logger.With().Str("handler", "unsubscribe").Logger(),
	}
}

func (h *UnsubscribeHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	invoice, err := h.invoices.GetByUnsubscribeToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Unknown unsubscribe link", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to resolve unsubscribe token")
		http.Error(w, "Failed to unsubscribe", http.StatusInternalServerError)
		return
	}

	if err := h.invoices.DeactivateNudging(r.Context(), invoice.ID); err != nil {
		h.logger.Error().Err(err).Str("invoice_id", invoice.ID).Msg("failed to deactivate nudging")
		http.Error(w, "Failed to unsubscribe", http.StatusInternalServerError)
		return
	}

	h.logger.Info().Str("invoice_id", invoice.ID).Msg("client unsubscribed from reminders")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<html>
  <head>
    <title>Unsubscribed - Flow</title>
    <style>
      body { font-family: Arial, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; }
      .container { text-align: center; }
      .success { color: #059669; }
    </style>
  </head>
  <body>
    <div class="container">
      <h1 class="success">Unsubscribed Successfully</h1>
      <p>You will no longer receive payment reminders for this invoice.</p>
      <p>If you have any questions, please contact the business directly.</p>
    </div>
  </body>
</html>`)
}
