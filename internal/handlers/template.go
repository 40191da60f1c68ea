package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/flowhq/flow-api/internal/authz"
	"github.com/flowhq/flow-api/internal/models"
	"github.com/flowhq/flow-api/internal/repository"
)

type TemplateHandler struct {
	templates repository.TemplateRepository
	logger    zerolog.Logger
}

func NewTemplateHandler(templates repository.TemplateRepository, logger zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		logger:    logger.With().Str("handler", "template").Logger(),
	}
}

type upsertTemplateRequest struct {
	Name        string             `json:"name"`
	Tone        models.MessageTone `json:"tone"`
	NudgeNumber int                `json:"nudge_number"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	templates, err := h.templates.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list templates")
		writeError(w, http.StatusInternalServerError, "Failed to fetch templates")
		return
	}
	if templates == nil {
		templates = []models.EmailTemplate{}
	}

	writeJSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req upsertTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !models.IsValidTone(req.Tone) {
		writeError(w, http.StatusBadRequest, "Tone must be friendly, professional, or firm")
		return
	}
	if req.NudgeNumber < 1 {
		req.NudgeNumber = 1
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, "Subject and body are required")
		return
	}

	tpl, err := h.templates.Upsert(r.Context(), userID, repository.UpsertTemplateParams{
		Name:        req.Name,
		Tone:        req.Tone,
		NudgeNumber: req.NudgeNumber,
		Subject:     req.Subject,
		Body:        req.Body,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upsert template")
		writeError(w, http.StatusInternalServerError, "Failed to save template")
		return
	}

	writeJSON(w, http.StatusOK, tpl)
}
