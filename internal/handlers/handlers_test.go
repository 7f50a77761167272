package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HackRU/CTFd/internal/auth"
	"github.com/HackRU/CTFd/internal/cache"
	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/metrics"
	"github.com/HackRU/CTFd/internal/middleware"
	"github.com/HackRU/CTFd/internal/models"
	"github.com/HackRU/CTFd/internal/services"
	"github.com/HackRU/CTFd/internal/store"
	"github.com/HackRU/CTFd/internal/token"
	"github.com/HackRU/CTFd/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testTokenSecret = "test-signing-secret"

// recordingMailer captures outbound mail instead of sending it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

type sentMail struct {
	kind string
	to   string
	url  string
}

func (m *recordingMailer) record(kind, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return io.ErrClosedPipe
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, url: link})
	return nil
}

func (m *recordingMailer) VerifyEmailAddress(ctx context.Context, to, confirmURL string) error {
	return m.record("confirm", to, confirmURL)
}

func (m *recordingMailer) SuccessfulRegistrationNotification(ctx context.Context, to string) error {
	return m.record("registered", to, "")
}

func (m *recordingMailer) ForgotPassword(ctx context.Context, to, resetURL string) error {
	return m.record("forgot", to, resetURL)
}

func (m *recordingMailer) PasswordChangeAlert(ctx context.Context, to string) error {
	return m.record("changed", to, "")
}

func (m *recordingMailer) byKind(kind string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.sent {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// registrationAPIStub serves the external /authorize + /read protocol.
type registrationAPIStub struct {
	mu       sync.Mutex
	users    map[string]string
	statuses map[string]string
}

func (s *registrationAPIStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
				"body":       map[string]string{"token": "tok"},
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

// oauthProviderStub mimics the MLC token and user-info endpoints and counts
// token exchanges.
type oauthProviderStub struct {
	mu        sync.Mutex
	exchanges int
	user      auth.MLCUserInfo
}

func (s *oauthProviderStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/oauth/token":
		s.mu.Lock()
		s.exchanges++
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "stub-access-token",
			"token_type":   "bearer",
		})
	case "/user":
		s.mu.Lock()
		user := s.user
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(user)
	default:
		http.NotFound(w, r)
	}
}

func (s *oauthProviderStub) exchangeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchanges
}

// testApp wires the full handler surface against stub collaborators.
type testApp struct {
	server *httptest.Server
	client *http.Client
	cfg    *config.Config
	store  *store.Store
	mailer *recordingMailer
	regAPI *registrationAPIStub
	oauth  *oauthProviderStub
	users  *services.UserService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.New("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	regStub := &registrationAPIStub{
		users:    map[string]string{},
		statuses: map[string]string{},
	}
	regSrv := httptest.NewServer(regStub)
	t.Cleanup(regSrv.Close)

	oauthStub := &oauthProviderStub{}
	oauthSrv := httptest.NewServer(oauthStub)
	t.Cleanup(oauthSrv.Close)

	cfg := &config.Config{
		SessionSecret:          "test-session-secret",
		TokenSecret:            testTokenSecret,
		RegistrationAPIURL:     regSrv.URL,
		RegistrationAPITimeout: 5 * time.Second,
		OAuthTimeout:           5 * time.Second,

		OAuthAuthorizationEndpoint: oauthSrv.URL + "/oauth/authorize",
		OAuthTokenEndpoint:         oauthSrv.URL + "/oauth/token",
		OAuthAPIEndpoint:           oauthSrv.URL + "/user",
		OAuthClientID:              "test-client",
		OAuthClientSecret:          "test-secret",

		SMTPHost: "localhost",
		MailFrom: "noreply@example.com",
	}

	recorder := metrics.NewNoopMetrics()
	settings := services.NewSettings(cfg, db, cache.NewMemoryCache[string]())
	sessionSvc := services.NewSessionService(
		db,
		cache.NewMemoryCache[models.User](),
		cache.NewMemoryCache[models.Team](),
		recorder,
	)
	regClient := auth.NewRegistrationClient(cfg)
	userSvc := services.NewUserService(db, regClient, sessionSvc, recorder)
	teamSvc := services.NewTeamService(db, sessionSvc)
	serializer := token.NewEmailSerializer(cfg.TokenSecret)
	mailer := &recordingMailer{}

	authHandler := NewAuthHandler(cfg, settings, userSvc, sessionSvc, serializer, mailer, recorder)
	oauthHandler := NewOAuthHandler(cfg, settings, userSvc, teamSvc, sessionSvc, recorder)
	pagesHandler := NewPagesHandler(sessionSvc)

	r := gin.New()
	r.Use(util.IPMiddleware())
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("session", sessionStore))
	r.Use(middleware.NonceMiddleware())

	r.GET("/", pagesHandler.Landing)
	r.GET("/login", authHandler.Login)
	r.POST("/login", authHandler.Login)
	r.GET("/register", authHandler.Register)
	r.POST("/register", authHandler.Register)
	r.GET("/logout", authHandler.Logout)
	r.GET("/confirm", authHandler.Confirm)
	r.POST("/confirm", authHandler.Confirm)
	r.GET("/confirm/:token", authHandler.Confirm)
	r.POST("/confirm/:token", authHandler.Confirm)
	r.GET("/reset_password", authHandler.ResetPassword)
	r.POST("/reset_password", authHandler.ResetPassword)
	r.GET("/reset_password/:token", authHandler.ResetPassword)
	r.POST("/reset_password/:token", authHandler.ResetPassword)
	r.GET("/oauth", oauthHandler.Login)
	r.GET("/redirect", oauthHandler.Redirect)

	protected := r.Group("")
	protected.Use(middleware.RequireAuth())
	protected.GET("/challenges", pagesHandler.Challenges)
	protected.GET("/settings", pagesHandler.Settings)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		server: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cfg:    cfg,
		store:  db,
		mailer: mailer,
		regAPI: regStub,
		oauth:  oauthStub,
		users:  userSvc,
	}
}

var nonceRe = regexp.MustCompile(`name="nonce" value="([^"]+)"`)

// get fetches a path and returns the response and body.
func (a *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

// nonce loads the login page to establish a session and extract the form
// nonce.
func (a *testApp) nonce(t *testing.T) string {
	t.Helper()
	_, body := a.get(t, "/login")
	m := nonceRe.FindStringSubmatch(body)
	require.NotNil(t, m, "login page should embed a nonce")
	return m[1]
}

// postForm submits a form with the session nonce attached.
func (a *testApp) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	form.Set("nonce", a.nonce(t))
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func (a *testApp) login(t *testing.T, email, password string) (*http.Response, string) {
	t.Helper()
	return a.postForm(t, "/login", url.Values{
		"name":     {email},
		"password": {password},
	})
}

func requireRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, location, resp.Header.Get("Location"))
}

func requireContains(t *testing.T, body, want string) {
	t.Helper()
	require.True(t, strings.Contains(body, want),
		"body should contain %q, got:\n%s", want, body)
}
