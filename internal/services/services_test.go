package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/HackRU/CTFd/internal/auth"
	"github.com/HackRU/CTFd/internal/cache"
	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/metrics"
	"github.com/HackRU/CTFd/internal/models"
	"github.com/HackRU/CTFd/internal/store"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return s
}

func newTestSessions(t *testing.T, s *store.Store) *SessionService {
	t.Helper()
	return NewSessionService(
		s,
		cache.NewMemoryCache[models.User](),
		cache.NewMemoryCache[models.Team](),
		metrics.NewNoopMetrics(),
	)
}

// registrationAPIStub serves the /authorize and /read envelope protocol.
// Credentials in the users map authorize; their value is the
// registration_status returned by /read.
type registrationAPIStub struct {
	users    map[string]string
	statuses map[string]string
}

func newRegistrationAPI(t *testing.T) (*registrationAPIStub, *auth.RegistrationClient) {
	t.Helper()
	stub := &registrationAPIStub{
		users:    map[string]string{},
		statuses: map[string]string{},
	}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client := auth.NewRegistrationClient(&config.Config{
		RegistrationAPIURL:     srv.URL,
		RegistrationAPITimeout: 5 * time.Second,
	})
	return stub, client
}

func (s *registrationAPIStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	email, _ := payload["email"].(string)

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/authorize":
		password, _ := payload["password"].(string)
		if s.users[email] != "" && s.users[email] == password {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"statusCode": 200,
				"body":       map[string]string{"token": "tok-" + email},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 403,
			"body":       map[string]string{},
		})
	case "/read":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 200,
			"body": []map[string]string{{
				"first_name":          "Ada",
				"last_name":           "Lovelace",
				"school":              "Rutgers",
				"registration_status": s.statuses[email],
			}},
		})
	default:
		http.NotFound(w, r)
	}
}
