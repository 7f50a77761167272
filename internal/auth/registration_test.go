package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HackRU/CTFd/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*RegistrationClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewRegistrationClient(&config.Config{
		RegistrationAPIURL:     srv.URL,
		RegistrationAPITimeout: 5 * time.Second,
	})
	return client, srv
}

func TestAuthorize_Success(t *testing.T) {
	var gotPayload authorizeRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/authorize", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"body":       map[string]any{"token": "api-token-123"},
		})
	}))

	token, err := client.Authorize(context.Background(), "a@b.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "api-token-123", token)
	assert.Equal(t, "a@b.com", gotPayload.Email)
	assert.Equal(t, "hunter2", gotPayload.Password)
}

func TestAuthorize_RejectedCredentials(t *testing.T) {
	// The API answers HTTP 200 with a non-200 statusCode in the body.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 403,
			"body":       map[string]any{},
		})
	}))

	_, err := client.Authorize(context.Background(), "a@b.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthRejected)
}

func TestAuthorize_MissingToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"body":       map[string]any{},
		})
	}))

	_, err := client.Authorize(context.Background(), "a@b.com", "hunter2")
	assert.ErrorIs(t, err, ErrAPIInvalidResp)
}

func TestAuthorize_TransportFailure(t *testing.T) {
	client := NewRegistrationClient(&config.Config{
		RegistrationAPIURL:     "http://127.0.0.1:1", // nothing listening
		RegistrationAPITimeout: time.Second,
	})

	_, err := client.Authorize(context.Background(), "a@b.com", "hunter2")
	assert.ErrorIs(t, err, ErrAPIConnection)
}

func TestAuthorize_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))

	_, err := client.Authorize(context.Background(), "a@b.com", "hunter2")
	assert.ErrorIs(t, err, ErrAPIInvalidResp)
}

func TestRead_Success(t *testing.T) {
	var gotPayload readRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/read", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"body": []map[string]any{{
				"first_name":          "Grace",
				"last_name":           "Hopper",
				"school":              "Yale",
				"registration_status": "confirmed",
			}},
		})
	}))

	reg, err := client.Read(context.Background(), "a@b.com", "api-token-123")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", reg.Name())
	assert.Equal(t, "Yale", reg.School)
	assert.True(t, reg.Confirmed())
	assert.Equal(t, "api-token-123", gotPayload.Token)
	assert.Equal(t, "a@b.com", gotPayload.Query.Email)
}

func TestRead_UnconfirmedStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"body": []map[string]any{{
				"first_name":          "Grace",
				"last_name":           "Hopper",
				"registration_status": "unconfirmed",
			}},
		})
	}))

	reg, err := client.Read(context.Background(), "a@b.com", "api-token-123")
	require.NoError(t, err)
	assert.False(t, reg.Confirmed())
}

func TestRead_EmptyRecordList(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"body":       []map[string]any{},
		})
	}))

	_, err := client.Read(context.Background(), "a@b.com", "api-token-123")
	assert.ErrorIs(t, err, ErrAPIInvalidResp)
}
