package services

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/HackRU/CTFd/internal/auth"
	"github.com/HackRU/CTFd/internal/cache"
	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/store"
)

// Config store keys. Operators can set these at runtime; app-level env
// config overrides them, and hardcoded defaults apply when neither is set.
const (
	KeyVerifyEmails        = "verify_emails"
	KeyRegistrationVisible = "registration_visible"
	KeyMLCRegistration     = "mlc_registration"
	KeyUserMode            = "user_mode"
	KeyTeamSize            = "team_size"

	KeyOAuthAuthorizationEndpoint = "oauth_authorization_endpoint"
	KeyOAuthTokenEndpoint         = "oauth_token_endpoint"
	KeyOAuthAPIEndpoint           = "oauth_api_endpoint"
	KeyOAuthClientID              = "oauth_client_id"
	KeyOAuthClientSecret          = "oauth_client_secret"
)

// configCacheTTL bounds how stale a runtime config change can appear.
const configCacheTTL = 30 * time.Second

// Settings resolves feature flags and OAuth settings through the lookup
// chain: app config value, then DB config store, then hardcoded default.
type Settings struct {
	cfg   *config.Config
	store *store.Store
	cache cache.Cache[string]
}

func NewSettings(cfg *config.Config, s *store.Store, c cache.Cache[string]) *Settings {
	return &Settings{
		cfg:   cfg,
		store: s,
		cache: c,
	}
}

// lookup resolves a single setting. appValue is the app-level override
// (empty = unset).
func (s *Settings) lookup(ctx context.Context, appValue, key, fallback string) string {
	if appValue != "" {
		return appValue
	}

	value, err := cache.GetWithFetch(ctx, s.cache, key, configCacheTTL,
		func(ctx context.Context, key string) (string, error) {
			return s.store.GetConfig(key)
		})
	if err == nil && value != "" {
		return value
	}
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		log.Printf("[Config] Lookup failed for %s: %v", key, err)
	}
	return fallback
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// VerifyEmails reports whether email confirmation is enforced. When false
// the whole confirmation flow is a no-op redirect.
func (s *Settings) VerifyEmails(ctx context.Context) bool {
	return parseBool(s.lookup(ctx, s.cfg.VerifyEmails, KeyVerifyEmails, "false"))
}

// RegistrationVisible reports whether public registration is open.
func (s *Settings) RegistrationVisible(ctx context.Context) bool {
	return parseBool(s.lookup(ctx, s.cfg.RegistrationVisible, KeyRegistrationVisible, "true"))
}

// MLCRegistration reports whether account provisioning through the MLC
// integration is explicitly enabled even when registration is closed.
func (s *Settings) MLCRegistration(ctx context.Context) bool {
	return parseBool(s.lookup(ctx, s.cfg.MLCRegistration, KeyMLCRegistration, "false"))
}

// TeamsMode reports whether the platform runs in teams mode.
func (s *Settings) TeamsMode(ctx context.Context) bool {
	mode := s.lookup(ctx, s.cfg.UserMode, KeyUserMode, config.UserModeIndividual)
	return mode == config.UserModeTeams
}

// TeamSize returns the configured member limit; 0 means unlimited.
func (s *Settings) TeamSize(ctx context.Context) int {
	raw := s.lookup(ctx, s.cfg.TeamSize, KeyTeamSize, "0")
	size, err := strconv.Atoi(raw)
	if err != nil || size < 0 {
		return 0
	}
	return size
}

// OAuthClientID returns the configured client id; empty means the MLC
// integration is not set up.
func (s *Settings) OAuthClientID(ctx context.Context) string {
	return s.lookup(ctx, s.cfg.OAuthClientID, KeyOAuthClientID, "")
}

// OAuthProviderConfig resolves the full provider configuration for one
// request, endpoint by endpoint, falling back to the MLC defaults.
func (s *Settings) OAuthProviderConfig(ctx context.Context) auth.MLCProviderConfig {
	return auth.MLCProviderConfig{
		AuthorizationEndpoint: s.lookup(
			ctx,
			s.cfg.OAuthAuthorizationEndpoint,
			KeyOAuthAuthorizationEndpoint,
			auth.DefaultMLCAuthorizationEndpoint,
		),
		TokenEndpoint: s.lookup(
			ctx,
			s.cfg.OAuthTokenEndpoint,
			KeyOAuthTokenEndpoint,
			auth.DefaultMLCTokenEndpoint,
		),
		APIEndpoint: s.lookup(
			ctx,
			s.cfg.OAuthAPIEndpoint,
			KeyOAuthAPIEndpoint,
			auth.DefaultMLCAPIEndpoint,
		),
		ClientID:     s.OAuthClientID(ctx),
		ClientSecret: s.lookup(ctx, s.cfg.OAuthClientSecret, KeyOAuthClientSecret, ""),
		TeamsMode:    s.TeamsMode(ctx),
	}
}
