package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/email"
	"github.com/HackRU/CTFd/internal/metrics"
	"github.com/HackRU/CTFd/internal/middleware"
	"github.com/HackRU/CTFd/internal/services"
	"github.com/HackRU/CTFd/internal/templates"
	"github.com/HackRU/CTFd/internal/token"
	"github.com/HackRU/CTFd/internal/util"

	"github.com/gin-gonic/gin"
)

// User-visible messages. The credential and reset flows deliberately
// collapse distinct failures into one message to resist account
// enumeration.
const (
	msgBadCredentials  = "Your username or password is incorrect"
	msgCheckInbox      = "If that account exists you will receive an email, please check your inbox"
	msgProviderAccount = "This account was registered via an authentication provider. " +
		"Please login or change your password through your provider instead."
	msgConfirmExpired  = "Your confirmation link has expired"
	msgConfirmInvalid  = "Your confirmation token is invalid"
	msgResetExpired    = "Your link has expired"
	msgResetInvalid    = "Your reset token is invalid"
	msgShortPassword   = "Please pick a longer password"
	msgMailUnavailable = "This platform is not configured to send email. " +
		"Contact an administrator to have your password reset."
	msgRegisterElsewhere = "Registration is handled by HackRU. Sign up at hackru.org, " +
		"then log in here with the same email and password."
	msgLoginUnavailable = "We could not reach the login server. Please try again later."
)

type AuthHandler struct {
	cfg        *config.Config
	settings   *services.Settings
	users      *services.UserService
	sessions   *services.SessionService
	serializer *token.EmailSerializer
	mailer     email.Mailer
	metrics    metrics.Recorder
}

func NewAuthHandler(
	cfg *config.Config,
	settings *services.Settings,
	users *services.UserService,
	sessions *services.SessionService,
	serializer *token.EmailSerializer,
	mailer email.Mailer,
	m metrics.Recorder,
) *AuthHandler {
	return &AuthHandler{
		cfg:        cfg,
		settings:   settings,
		users:      users,
		sessions:   sessions,
		serializer: serializer,
		mailer:     mailer,
		metrics:    m,
	}
}

func (h *AuthHandler) renderLogin(c *gin.Context, status int, pageErrors []string, next string) {
	flashErrs, infos := popFlashes(c)
	templates.RenderTempl(c, status, templates.LoginPage(templates.LoginPageProps{
		BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
		Errors:    append(flashErrs, pageErrors...),
		Infos:     infos,
		Next:      next,
	}))
}

// safeNext validates the requested post-login destination.
func (h *AuthHandler) safeNext(next string) string {
	if next == "" || !util.IsRedirectSafe(next, h.cfg.BaseURL) {
		return ""
	}
	return next
}

// Login handles GET and POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	next := h.safeNext(c.Query("next"))

	if c.Request.Method == http.MethodGet {
		if h.sessions.Authed(c) {
			c.Redirect(http.StatusFound, "/challenges")
			return
		}
		h.renderLogin(c, http.StatusOK, nil, next)
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	password := c.PostForm("password")

	user, created, err := h.users.ExternalLogin(c.Request.Context(), name, password)
	if err != nil {
		h.metrics.RecordLogin("credentials", false)

		var unconfirmed *services.UnconfirmedRegistrationError
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			log.Printf("[Auth] Rejected login for %s from %s", name, util.GetIP(c))
			h.renderLogin(c, http.StatusOK, []string{msgBadCredentials}, next)
		case errors.As(err, &unconfirmed):
			h.renderLogin(c, http.StatusOK, []string{
				"Your registration status is \"" + unconfirmed.Status + "\". " +
					"Please finish registering at hackru.org before logging in.",
			}, next)
		default:
			log.Printf("[Auth] External login failed for %s: %v", name, err)
			h.renderLogin(c, http.StatusOK, []string{msgLoginUnavailable}, next)
		}
		return
	}

	if err := h.sessions.LoginUser(c, user); err != nil {
		log.Printf("[Auth] Failed to establish session for %s: %v", user.Email, err)
		h.renderLogin(c, http.StatusInternalServerError, []string{msgLoginUnavailable}, next)
		return
	}
	h.metrics.RecordLogin("credentials", true)
	log.Printf("[Auth] %s logged in from %s", user.Email, util.GetIP(c))

	// Only a returning account follows the requested destination; a first
	// login always lands on the challenge board.
	if next != "" && !created {
		c.Redirect(http.StatusFound, next)
		return
	}
	c.Redirect(http.StatusFound, "/challenges")
}

// Register handles GET and POST /register. Local registration is
// intentionally disabled; the login page is returned with an instructional
// error pointing at the external registration system.
func (h *AuthHandler) Register(c *gin.Context) {
	if !h.settings.RegistrationVisible(c.Request.Context()) {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	h.renderLogin(c, http.StatusOK, []string{msgRegisterElsewhere}, "")
}

// Logout handles GET /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.sessions.Authed(c) {
		if err := h.sessions.LogoutUser(c); err != nil {
			log.Printf("[Auth] Failed to clear session on logout: %v", err)
		}
	}
	c.Redirect(http.StatusFound, "/")
}

// Confirm handles GET and POST /confirm and /confirm/:token.
func (h *AuthHandler) Confirm(c *gin.Context) {
	ctx := c.Request.Context()

	// With verification disabled the whole flow is a no-op.
	if !h.settings.VerifyEmails(ctx) {
		c.Redirect(http.StatusFound, "/challenges")
		return
	}

	// Tokens are only verified on GET. A POST carrying a token is still a
	// resend request.
	if tok := c.Param("token"); tok != "" && c.Request.Method == http.MethodGet {
		h.confirmWithToken(c, tok)
		return
	}

	if !h.sessions.Authed(c) {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	user, err := h.sessions.GetUser(ctx, h.sessions.CurrentUserID(c))
	if err != nil {
		log.Printf("[Confirm] Failed to load session user: %v", err)
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if user.Verified {
		c.Redirect(http.StatusFound, "/settings")
		return
	}

	var infos []string
	if c.Request.Method == http.MethodPost {
		// Resend the confirmation link.
		if err := h.sendConfirmation(c, user.Email); err != nil {
			log.Printf("[Confirm] Failed to resend confirmation to %s: %v", user.Email, err)
		} else {
			log.Printf("[Confirm] Resent confirmation email to %s", user.Email)
			infos = append(infos, "Confirmation email sent to "+user.Email)
		}
	}

	flashErrs, flashInfos := popFlashes(c)
	templates.RenderTempl(c, http.StatusOK, templates.ConfirmPage(templates.ConfirmPageProps{
		BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
		Errors:    flashErrs,
		Infos:     append(flashInfos, infos...),
		Email:     user.Email,
	}))
}

func (h *AuthHandler) confirmWithToken(c *gin.Context, tok string) {
	ctx := c.Request.Context()

	addr, err := h.serializer.Unserialize(tok)
	if err != nil {
		msg := msgConfirmInvalid
		result := "invalid"
		if errors.Is(err, token.ErrExpiredToken) {
			msg = msgConfirmExpired
			result = "expired"
		}
		h.metrics.RecordTokenVerification(result)
		templates.RenderTempl(c, http.StatusOK, templates.ConfirmPage(templates.ConfirmPageProps{
			BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
			Errors:    []string{msg},
		}))
		return
	}
	h.metrics.RecordTokenVerification("ok")

	user, err := h.users.GetByEmail(addr)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			templates.RenderTempl(c, http.StatusNotFound, templates.ErrorPage(templates.ErrorPageProps{
				Error:   "Not Found",
				Message: "No account matches this confirmation link.",
			}))
			return
		}
		log.Printf("[Confirm] Lookup failed for %s: %v", addr, err)
		templates.RenderTempl(c, http.StatusInternalServerError, templates.ErrorPage(templates.ErrorPageProps{
			Error:   "Internal Error",
			Message: "Something went wrong. Please try again later.",
		}))
		return
	}

	if user.Verified {
		c.Redirect(http.StatusFound, "/settings")
		return
	}

	if err := h.users.MarkVerified(ctx, user); err != nil {
		log.Printf("[Confirm] Failed to mark %s verified: %v", user.Email, err)
		templates.RenderTempl(c, http.StatusInternalServerError, templates.ErrorPage(templates.ErrorPageProps{
			Error:   "Internal Error",
			Message: "Something went wrong. Please try again later.",
		}))
		return
	}
	log.Printf("[Confirm] %s confirmed their email address", user.Email)

	if err := h.mailer.SuccessfulRegistrationNotification(ctx, user.Email); err != nil {
		log.Printf("[Confirm] Failed to send confirmation notice to %s: %v", user.Email, err)
		h.metrics.RecordEmailSent("registration_notice", false)
	} else {
		h.metrics.RecordEmailSent("registration_notice", true)
	}

	if h.sessions.Authed(c) {
		c.Redirect(http.StatusFound, "/challenges")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (h *AuthHandler) sendConfirmation(c *gin.Context, addr string) error {
	tok, err := h.serializer.Serialize(addr)
	if err != nil {
		return err
	}
	err = h.mailer.VerifyEmailAddress(c.Request.Context(), addr, h.cfg.BaseURL+"/confirm/"+tok)
	h.metrics.RecordEmailSent("confirmation", err == nil)
	return err
}

// ResetPassword handles GET and POST /reset_password and
// /reset_password/:token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	if !h.cfg.CanSendMail() {
		templates.RenderTempl(c, http.StatusOK, templates.ResetPasswordPage(templates.ResetPasswordPageProps{
			BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
			Errors:    []string{msgMailUnavailable},
		}))
		return
	}

	if tok := c.Param("token"); tok != "" {
		h.resetWithToken(c, tok)
		return
	}

	if c.Request.Method == http.MethodGet {
		flashErrs, infos := popFlashes(c)
		templates.RenderTempl(c, http.StatusOK, templates.ResetPasswordPage(templates.ResetPasswordPageProps{
			BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
			Errors:    flashErrs,
			Infos:     infos,
		}))
		return
	}

	addr := strings.TrimSpace(c.PostForm("email"))
	h.requestReset(c, addr)
}

// requestReset handles the email-submission half of the flow. The response
// for an unknown address is identical to the success case; only accounts
// registered through the OAuth provider get a distinct message, a known
// enumeration trade-off kept on purpose.
func (h *AuthHandler) requestReset(c *gin.Context, addr string) {
	renderInbox := func() {
		templates.RenderTempl(c, http.StatusOK, templates.ResetPasswordPage(templates.ResetPasswordPageProps{
			BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
			Infos:     []string{msgCheckInbox},
		}))
	}

	user, err := h.users.GetByEmail(addr)
	if err != nil {
		if !errors.Is(err, services.ErrUserNotFound) {
			log.Printf("[Reset] Lookup failed for %s: %v", addr, err)
		}
		renderInbox()
		return
	}

	if user.IsOAuthLinked() {
		templates.RenderTempl(c, http.StatusOK, templates.ResetPasswordPage(templates.ResetPasswordPageProps{
			BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
			Errors:    []string{msgProviderAccount},
		}))
		return
	}

	tok, err := h.serializer.Serialize(user.Email)
	if err != nil {
		log.Printf("[Reset] Failed to issue reset token for %s: %v", user.Email, err)
		renderInbox()
		return
	}

	resetURL := h.cfg.BaseURL + "/reset_password/" + tok
	if err := h.mailer.ForgotPassword(c.Request.Context(), user.Email, resetURL); err != nil {
		log.Printf("[Reset] Failed to send reset email to %s: %v", user.Email, err)
		h.metrics.RecordEmailSent("password_reset", false)
	} else {
		log.Printf("[Reset] Sent password reset email to %s", user.Email)
		h.metrics.RecordEmailSent("password_reset", true)
	}
	renderInbox()
}

func (h *AuthHandler) resetWithToken(c *gin.Context, tok string) {
	renderError := func(msg string) {
		templates.RenderTempl(c, http.StatusOK, templates.ResetPasswordPage(templates.ResetPasswordPageProps{
			BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
			Errors:    []string{msg},
		}))
	}

	addr, err := h.serializer.Unserialize(tok)
	if err != nil {
		result := "invalid"
		msg := msgResetInvalid
		if errors.Is(err, token.ErrExpiredToken) {
			result = "expired"
			msg = msgResetExpired
		}
		h.metrics.RecordTokenVerification(result)
		renderError(msg)
		return
	}
	h.metrics.RecordTokenVerification("ok")

	if c.Request.Method == http.MethodGet {
		flashErrs, infos := popFlashes(c)
		templates.RenderTempl(c, http.StatusOK, templates.ResetPasswordPage(templates.ResetPasswordPageProps{
			BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
			Errors:    flashErrs,
			Infos:     infos,
			Token:     tok,
		}))
		return
	}

	user, err := h.users.GetByEmail(addr)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			templates.RenderTempl(c, http.StatusNotFound, templates.ErrorPage(templates.ErrorPageProps{
				Error:   "Not Found",
				Message: "No account matches this reset link.",
			}))
			return
		}
		log.Printf("[Reset] Lookup failed for %s: %v", addr, err)
		renderError("Something went wrong. Please try again later.")
		return
	}

	password := strings.TrimSpace(c.PostForm("password"))
	if password == "" {
		renderError(msgShortPassword)
		return
	}

	if err := h.users.SetPassword(c.Request.Context(), user, password); err != nil {
		if errors.Is(err, services.ErrOAuthLinkedAccount) {
			renderError(msgProviderAccount)
			return
		}
		log.Printf("[Reset] Failed to set password for %s: %v", user.Email, err)
		renderError("Something went wrong. Please try again later.")
		return
	}
	log.Printf("[Reset] %s reset their password", user.Email)

	if err := h.mailer.PasswordChangeAlert(c.Request.Context(), user.Email); err != nil {
		log.Printf("[Reset] Failed to send change alert to %s: %v", user.Email, err)
		h.metrics.RecordEmailSent("password_change_alert", false)
	} else {
		h.metrics.RecordEmailSent("password_change_alert", true)
	}

	c.Redirect(http.StatusFound, "/login")
}
