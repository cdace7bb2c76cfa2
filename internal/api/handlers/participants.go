package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wargakita/event-service/internal/api/problem"
	"github.com/wargakita/event-service/internal/domain/events"
	"github.com/wargakita/event-service/internal/domain/ids"
	"github.com/wargakita/event-service/internal/metrics"
)

type ParticipantsHandler struct {
	Registration *events.RegistrationService
	Service      *events.Service
	Env          string
	validate     *validator.Validate
}

func NewParticipantsHandler(registration *events.RegistrationService, service *events.Service, env string) *ParticipantsHandler {
	return &ParticipantsHandler{
		Registration: registration,
		Service:      service,
		Env:          env,
		validate:     validator.New(),
	}
}

type registerRequest struct {
	NIK string `json:"nik" validate:"required,len=16,numeric"`
}

type participantResponse struct {
	ID      string `json:"id"`
	EventID string `json:"eventId"`
	NIK     string `json:"nik"`
}

type participantListResponse struct {
	Items []participantResponse `json:"items"`
	Total int                   `json:"total"`
}

func (h *ParticipantsHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Registration == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}

	var input registerRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}
	if err := h.validate.Struct(input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(validationErrors(err)))
		return
	}

	participant, err := h.Registration.Register(r.Context(), eventID, input.NIK)
	metrics.RegistrationsTotal.WithLabelValues(registrationOutcome(err)).Inc()
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, participantResponse{
		ID:      participant.ID,
		EventID: participant.EventID,
		NIK:     participant.NIK,
	})
}

func (h *ParticipantsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}

	participants, err := h.Service.ListParticipants(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	items := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		items = append(items, participantResponse{ID: p.ID, EventID: p.EventID, NIK: p.NIK})
	}

	writeJSON(w, http.StatusOK, participantListResponse{Items: items, Total: len(items)})
}

func (h *ParticipantsHandler) eventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(pathParam(r, "id"))
	if id == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", events.FilterError{Field: "id", Message: "missing"}, h.Env)
		return "", false
	}
	if err := ids.ValidateULID(id); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", events.FilterError{Field: "id", Message: "invalid ULID"}, h.Env)
		return "", false
	}
	return id, true
}

// writeRegistrationError maps the registration taxonomy onto HTTP.
// Upstream unavailability is reported as 503, never collapsed into a
// 404, so callers can tell "resident does not exist" from "could not
// check".
func (h *ParticipantsHandler) writeRegistrationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
	case errors.Is(err, events.ErrIdentityNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Resident not found", err, h.Env)
	case errors.Is(err, events.ErrParticipantConflict):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Already registered", err, h.Env)
	case errors.Is(err, events.ErrIdentityConflict):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Identity conflict", err, h.Env)
	case errors.Is(err, events.ErrQuotaFull):
		problem.Write(w, r, http.StatusUnprocessableEntity, problem.TypeQuotaFull, "Quota full", err, h.Env)
	case errors.Is(err, events.ErrIdentityUnavailable):
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Identity service unavailable", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return "admitted"
	case errors.Is(err, events.ErrIdentityNotFound):
		return "resident_not_found"
	case errors.Is(err, events.ErrNotFound):
		return "event_not_found"
	case errors.Is(err, events.ErrParticipantConflict):
		return "duplicate"
	case errors.Is(err, events.ErrQuotaFull):
		return "quota_full"
	case errors.Is(err, events.ErrIdentityConflict):
		return "identity_conflict"
	case errors.Is(err, events.ErrIdentityUnavailable):
		return "identity_unavailable"
	default:
		return "error"
	}
}
