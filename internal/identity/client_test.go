package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wargakita/event-service/internal/domain/events"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, WithRateLimit(1000))
}

func TestExistsFound(t *testing.T) {
	var requestedPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"responseCode": "00",
			"responseDesc": "success",
			"data": {"id": "42", "name": "Siti Rahma", "nik": "1234567890123456", "phone": "081234567890"},
			"extraField": "ignored"
		}`))
	})

	found, err := client.Exists(context.Background(), "1234567890123456")

	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "/warga/by-nik/1234567890123456", requestedPath)
}

func TestExistsSuccessWithoutPayloadIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responseCode": "01", "responseDesc": "no record"}`))
	})

	found, err := client.Exists(context.Background(), "1234567890123456")

	require.NoError(t, err)
	require.False(t, found)
}

func TestExistsUpstream404IsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	found, err := client.Exists(context.Background(), "1234567890123456")

	require.NoError(t, err)
	require.False(t, found)
}

func TestExistsUpstream409IsConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	_, err := client.Exists(context.Background(), "1234567890123456")

	require.ErrorIs(t, err, events.ErrIdentityConflict)
	require.NotErrorIs(t, err, events.ErrIdentityUnavailable)
}

func TestExistsUpstreamErrorsAreUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTeapot} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})

			_, err := client.Exists(context.Background(), "1234567890123456")

			require.ErrorIs(t, err, events.ErrIdentityUnavailable)
			require.NotErrorIs(t, err, events.ErrIdentityConflict)
		})
	}
}

func TestExistsMalformedBodyIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responseCode": `))
	})

	_, err := client.Exists(context.Background(), "1234567890123456")

	require.ErrorIs(t, err, events.ErrIdentityUnavailable)
}

func TestExistsUnreachableUpstreamIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(baseURL, WithRateLimit(1000))

	_, err := client.Exists(context.Background(), "1234567890123456")

	require.ErrorIs(t, err, events.ErrIdentityUnavailable)
}

func TestExistsTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)
	WithTimeout(50 * time.Millisecond)(client)

	_, err := client.Exists(context.Background(), "1234567890123456")

	require.ErrorIs(t, err, events.ErrIdentityUnavailable)
}
