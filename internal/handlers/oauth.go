package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/HackRU/CTFd/internal/auth"
	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/metrics"
	"github.com/HackRU/CTFd/internal/middleware"
	"github.com/HackRU/CTFd/internal/services"
	"github.com/HackRU/CTFd/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	msgOAuthFailed        = "There was an issue logging in with MajorLeagueCyber. Please try again."
	msgOAuthNotConfigured = "OAuth settings not configured. Ask your CTF administrator to configure MajorLeagueCyber integration."
)

type OAuthHandler struct {
	cfg      *config.Config
	settings *services.Settings
	users    *services.UserService
	teams    *services.TeamService
	sessions *services.SessionService
	metrics  metrics.Recorder
	client   *http.Client
}

func NewOAuthHandler(
	cfg *config.Config,
	settings *services.Settings,
	users *services.UserService,
	teams *services.TeamService,
	sessions *services.SessionService,
	m metrics.Recorder,
) *OAuthHandler {
	return &OAuthHandler{
		cfg:      cfg,
		settings: settings,
		users:    users,
		teams:    teams,
		sessions: sessions,
		metrics:  m,
		client:   &http.Client{Timeout: cfg.OAuthTimeout},
	}
}

func (h *OAuthHandler) provider(c *gin.Context) *auth.MLCProvider {
	providerCfg := h.settings.OAuthProviderConfig(c.Request.Context())
	providerCfg.RedirectURL = h.cfg.BaseURL + "/redirect"
	return auth.NewMLCProvider(providerCfg, h.client)
}

// Login handles GET /oauth: it sends the browser to the provider's
// authorization endpoint with the session nonce as the state parameter.
func (h *OAuthHandler) Login(c *gin.Context) {
	if h.settings.OAuthClientID(c.Request.Context()) == "" {
		log.Printf("[OAuth] Login attempted without a configured client id")
		flashError(c, msgOAuthNotConfigured)
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.Redirect(http.StatusFound, h.provider(c).GetAuthURL(middleware.GetNonce(c)))
}

// failLogin logs the cause, records the failed callback, and sends the
// browser back to login with a generic banner.
func (h *OAuthHandler) failLogin(c *gin.Context, format string, args ...any) {
	log.Printf("[OAuth] "+format, args...)
	h.metrics.RecordOAuthCallback(false)
	flashError(c, msgOAuthFailed)
	c.Redirect(http.StatusFound, "/login")
}

// Redirect handles GET /redirect, the provider callback.
func (h *OAuthHandler) Redirect(c *gin.Context) {
	ctx := c.Request.Context()

	// State must match the session nonce before anything else happens; on
	// mismatch no token exchange is attempted.
	state := c.Query("state")
	nonce := middleware.GetNonce(c)
	if state == "" || nonce == "" || state != nonce {
		h.failLogin(c, "State mismatch on callback from %s", util.GetIP(c))
		return
	}

	code := c.Query("code")
	if code == "" {
		h.failLogin(c, "Callback without an authorization code from %s", util.GetIP(c))
		return
	}

	provider := h.provider(c)
	tok, err := provider.ExchangeCode(ctx, code)
	if err != nil {
		h.failLogin(c, "Code exchange failed: %v", err)
		return
	}

	info, err := provider.GetUserInfo(ctx, tok)
	if err != nil {
		h.failLogin(c, "User info fetch failed: %v", err)
		return
	}

	registrationAllowed := h.settings.RegistrationVisible(ctx) || h.settings.MLCRegistration(ctx)
	user, err := h.users.ResolveOAuthUser(ctx, info, registrationAllowed)
	if err != nil {
		if errors.Is(err, services.ErrRegistrationBlocked) {
			log.Printf("[OAuth] Blocked registration for %s: public registration disabled", info.Email)
			h.metrics.RecordOAuthCallback(false)
			flashError(c, "Public registration is disabled. Please try again later.")
			c.Redirect(http.StatusFound, "/login")
			return
		}
		h.failLogin(c, "User resolution failed for %s: %v", info.Email, err)
		return
	}

	if h.settings.TeamsMode(ctx) && info.Team.ID != 0 {
		_, err := h.teams.ResolveTeam(
			ctx,
			strconv.FormatInt(info.Team.ID, 10),
			info.Team.Name,
			user,
			h.settings.TeamSize(ctx),
		)
		if err != nil {
			var sizeErr *services.TeamSizeError
			if errors.As(err, &sizeErr) {
				log.Printf("[OAuth] %s blocked joining %s: %v", user.Email, info.Team.Name, err)
				h.metrics.RecordOAuthCallback(false)
				flashError(c, sizeErr.Error())
				c.Redirect(http.StatusFound, "/login")
				return
			}
			h.failLogin(c, "Team resolution failed for %s: %v", user.Email, err)
			return
		}
	}

	// Linking is deferred until the login can no longer be refused, so a
	// blocked attempt leaves a credential account untouched.
	if err := h.users.LinkOAuth(ctx, user, strconv.FormatInt(info.ID, 10)); err != nil {
		h.failLogin(c, "Linking failed for %s: %v", user.Email, err)
		return
	}

	if err := h.sessions.LoginUser(c, user); err != nil {
		h.failLogin(c, "Failed to establish session for %s: %v", user.Email, err)
		return
	}
	h.metrics.RecordOAuthCallback(true)
	h.metrics.RecordLogin("mlc", true)
	log.Printf("[OAuth] %s logged in via MajorLeagueCyber", user.Email)

	c.Redirect(http.StatusFound, "/challenges")
}
