package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/wargakita/event-service/internal/domain/events"
	"github.com/wargakita/event-service/internal/domain/ids"
)

const knownNIK = "3201011234560001"

func newParticipantsFixture(t *testing.T, verifier *stubVerifier) *http.ServeMux {
	t.Helper()
	store := newFakeStore()
	service := events.NewService(store, store)
	registration := events.NewRegistrationService(store, store, verifier)
	eventsHandler := NewEventsHandler(service, "test")
	participantsHandler := NewParticipantsHandler(registration, service, "test")
	return newTestMux(eventsHandler, participantsHandler)
}

func registerNIK(mux *http.ServeMux, eventID string, nik string) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"nik": %q}`, nik)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/"+eventID+"/participants", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRegisterParticipant(t *testing.T) {
	mux := newParticipantsFixture(t, &stubVerifier{known: map[string]bool{knownNIK: true}})
	event := createTestEvent(t, mux, "Donor Darah", 10)

	rec := registerNIK(mux, event.ID, knownNIK)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp participantResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, ids.IsULID(resp.ID))
	require.Equal(t, event.ID, resp.EventID)
	require.Equal(t, knownNIK, resp.NIK)
}

func TestRegisterParticipantEventNotFound(t *testing.T) {
	mux := newParticipantsFixture(t, &stubVerifier{known: map[string]bool{knownNIK: true}})

	rec := registerNIK(mux, ulid.Make().String(), knownNIK)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterParticipantUnknownResident(t *testing.T) {
	mux := newParticipantsFixture(t, &stubVerifier{known: map[string]bool{}})
	event := createTestEvent(t, mux, "Donor Darah", 10)

	rec := registerNIK(mux, event.ID, knownNIK)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterParticipantNIKValidation(t *testing.T) {
	mux := newParticipantsFixture(t, &stubVerifier{known: map[string]bool{knownNIK: true}})
	event := createTestEvent(t, mux, "Donor Darah", 10)

	cases := map[string]string{
		"too short":  "12345",
		"too long":   "32010112345600011",
		"alphabetic": "32010112345600AB",
		"empty":      "",
	}
	for name, nik := range cases {
		t.Run(name, func(t *testing.T) {
			rec := registerNIK(mux, event.ID, nik)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegisterParticipantDuplicate(t *testing.T) {
	mux := newParticipantsFixture(t, &stubVerifier{known: map[string]bool{knownNIK: true}})
	event := createTestEvent(t, mux, "Donor Darah", 10)

	require.Equal(t, http.StatusCreated, registerNIK(mux, event.ID, knownNIK).Code)
	require.Equal(t, http.StatusConflict, registerNIK(mux, event.ID, knownNIK).Code)
}

func TestRegisterParticipantQuotaFull(t *testing.T) {
	niks := map[string]bool{
		"3201011234560001": true,
		"3201011234560002": true,
		"3201011234560003": true,
	}
	mux := newParticipantsFixture(t, &stubVerifier{known: niks})
	event := createTestEvent(t, mux, "Donor Darah", 2)

	require.Equal(t, http.StatusCreated, registerNIK(mux, event.ID, "3201011234560001").Code)
	require.Equal(t, http.StatusCreated, registerNIK(mux, event.ID, "3201011234560002").Code)

	rec := registerNIK(mux, event.ID, "3201011234560003")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRegisterParticipantIdentityUnavailable(t *testing.T) {
	mux := newParticipantsFixture(t, &stubVerifier{err: events.ErrIdentityUnavailable})
	event := createTestEvent(t, mux, "Donor Darah", 10)

	rec := registerNIK(mux, event.ID, knownNIK)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegisterParticipantIdentityConflict(t *testing.T) {
	mux := newParticipantsFixture(t, &stubVerifier{err: events.ErrIdentityConflict})
	event := createTestEvent(t, mux, "Donor Darah", 10)

	rec := registerNIK(mux, event.ID, knownNIK)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestListParticipants(t *testing.T) {
	mux := newParticipantsFixture(t, &stubVerifier{known: map[string]bool{knownNIK: true}})
	event := createTestEvent(t, mux, "Donor Darah", 10)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+event.ID+"/participants", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp participantListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Zero(t, resp.Total)

	registerNIK(mux, event.ID, knownNIK)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/"+event.ID+"/participants", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	require.Equal(t, knownNIK, resp.Items[0].NIK)
}

func TestListParticipantsEventNotFound(t *testing.T) {
	mux := newParticipantsFixture(t, &stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+ulid.Make().String()+"/participants", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
