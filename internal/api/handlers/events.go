package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/wargakita/event-service/internal/api/problem"
	"github.com/wargakita/event-service/internal/domain/events"
	"github.com/wargakita/event-service/internal/domain/ids"
)

type EventsHandler struct {
	Service  *events.Service
	Env      string
	validate *validator.Validate
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env, validate: validator.New()}
}

type eventRequest struct {
	Title       string    `json:"title" validate:"required"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
	Location    string    `json:"location"`
	Quota       int       `json:"quota" validate:"required,min=1"`
	Description string    `json:"description"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Location    string    `json:"location,omitempty"`
	Quota       int       `json:"quota"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type listResponse struct {
	Items     []eventResponse `json:"items"`
	Total     int64           `json:"total"`
	Page      int             `json:"page"`
	PerPage   int             `json:"perPage"`
	SortField string          `json:"sortField"`
	SortDir   string          `json:"sortDir"`
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	input, ok := h.decodeEventRequest(w, r)
	if !ok {
		return
	}

	created, err := h.Service.Create(r.Context(), eventParams(input))
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(*created))
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	query, err := events.ParseListQuery(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	result, err := h.Service.List(r.Context(), query)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	items := make([]eventResponse, 0, len(result.Events))
	for _, event := range result.Events {
		items = append(items, toEventResponse(event))
	}

	writeJSON(w, http.StatusOK, listResponse{
		Items:     items,
		Total:     result.Total,
		Page:      result.Page,
		PerPage:   result.PerPage,
		SortField: string(result.SortField),
		SortDir:   string(result.SortDir),
	})
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	item, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(*item))
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	id, ok := h.eventID(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeEventRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.Service.Update(r.Context(), id, eventParams(input))
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(*updated))
}

func (h *EventsHandler) decodeEventRequest(w http.ResponseWriter, r *http.Request) (eventRequest, bool) {
	var input eventRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return eventRequest{}, false
	}
	if err := h.validate.Struct(input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(validationErrors(err)))
		return eventRequest{}, false
	}
	return input, true
}

func (h *EventsHandler) eventID(w http.ResponseWriter, r *http.Request) (string, bool) {
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

func (h *EventsHandler) writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
	case errors.Is(err, events.ErrInvalidTimeRange):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}

func eventParams(input eventRequest) events.EventParams {
	return events.EventParams{
		Title:       strings.TrimSpace(input.Title),
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Location:    strings.TrimSpace(input.Location),
		Quota:       input.Quota,
		Description: input.Description,
	}
}

func toEventResponse(event events.Event) eventResponse {
	return eventResponse{
		ID:          event.ID,
		Title:       event.Title,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		Location:    event.Location,
		Quota:       event.Quota,
		Description: event.Description,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}

func validationErrors(err error) map[string]interface{} {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}
	out := make(map[string]interface{}, len(fieldErrors))
	for _, fe := range fieldErrors {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}
