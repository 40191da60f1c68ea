package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/flowhq/flow-api/internal/authz"
	"github.com/flowhq/flow-api/internal/models"
	"github.com/flowhq/flow-api/internal/repository"
)

type SettingsHandler struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

func NewSettingsHandler(users repository.UserRepository, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		users:  users,
		logger: logger.With().Str("handler", "settings").Logger(),
	}
}

type updateSettingsRequest struct {
	BusinessName      string             `json:"business_name"`
	Timezone          string             `json:"timezone"`
	MessageTone       models.MessageTone `json:"message_tone"`
	FromEmail         string             `json:"from_email"`
	NudgeEnabled      bool               `json:"nudge_enabled"`
	FirstNudgeDelay   int                `json:"first_nudge_delay"`
	NudgeInterval     int                `json:"nudge_interval"`
	BusinessHoursOnly bool               `json:"business_hours_only"`
	BusinessStartHour int                `json:"business_start_hour"`
	BusinessEndHour   int                `json:"business_end_hour"`
	WeekdaysOnly      bool               `json:"weekdays_only"`
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load user settings")
		writeError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg, ok := validateSettings(req); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := h.users.UpdateSettings(r.Context(), userID, repository.SettingsParams{
		BusinessName:      req.BusinessName,
		Timezone:          req.Timezone,
		MessageTone:       req.MessageTone,
		FromEmail:         req.FromEmail,
		NudgeEnabled:      req.NudgeEnabled,
		FirstNudgeDelay:   req.FirstNudgeDelay,
		NudgeInterval:     req.NudgeInterval,
		BusinessHoursOnly: req.BusinessHoursOnly,
		BusinessStartHour: req.BusinessStartHour,
		BusinessEndHour:   req.BusinessEndHour,
		WeekdaysOnly:      req.WeekdaysOnly,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update settings")
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// validateSettings rejects nonsensical policy values before they can reach
// the evaluator. The evaluator still fails closed on anything that slips
// through, but the settings surface is where users hear about it.
func validateSettings(req updateSettingsRequest) (string, bool) {
	if !models.IsValidTone(req.MessageTone) {
		return "Message tone must be friendly, professional, or firm", false
	}
	if req.FirstNudgeDelay < 0 {
		return "First nudge delay cannot be negative", false
	}
	if req.NudgeInterval < 1 {
		return "Nudge interval must be at least one day", false
	}
	if req.BusinessHoursOnly {
		if req.BusinessStartHour < 0 || req.BusinessStartHour > 23 || req.BusinessEndHour < 0 || req.BusinessEndHour > 23 {
			return "Business hours must be between 0 and 23", false
		}
		if req.BusinessEndHour <= req.BusinessStartHour {
			return "Business end hour must be after start hour", false
		}
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return "Unknown timezone", false
		}
	}
	return "", true
}
