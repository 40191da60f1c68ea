package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/flowhq/flow-api/internal/authz"
	"github.com/flowhq/flow-api/internal/nudge"
	"github.com/flowhq/flow-api/internal/repository"
)

type DashboardHandler struct {
	invoices  repository.InvoiceRepository
	projector *nudge.Projector
	logger    zerolog.Logger
}

func NewDashboardHandler(invoices repository.InvoiceRepository, projector *nudge.Projector, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		invoices:  invoices,
		projector: projector,
		logger:    logger.With().Str("handler", "dashboard").Logger(),
	}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	stats, err := h.invoices.UserStats(r.Context(), userID, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch invoice stats")
		writeError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) UpcomingNudges(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	upcoming, err := h.projector.UpcomingNudges(r.Context(), userID, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to project upcoming nudges")
		writeError(w, http.StatusInternalServerError, "Failed to fetch upcoming nudges")
		return
	}
	if upcoming == nil {
		upcoming = []nudge.UpcomingNudge{}
	}

	writeJSON(w, http.StatusOK, upcoming)
}
