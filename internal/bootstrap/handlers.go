package bootstrap

import (
	"log"

	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/email"
	"github.com/HackRU/CTFd/internal/handlers"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	auth  *handlers.AuthHandler
	oauth *handlers.OAuthHandler
	pages *handlers.PagesHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(app *Application) handlerSet {
	return handlerSet{
		auth: handlers.NewAuthHandler(
			app.Config,
			app.Settings,
			app.UserService,
			app.SessionService,
			app.Serializer,
			initializeMailer(app.Config),
			app.MetricsRecorder,
		),
		oauth: handlers.NewOAuthHandler(
			app.Config,
			app.Settings,
			app.UserService,
			app.TeamService,
			app.SessionService,
			app.MetricsRecorder,
		),
		pages: handlers.NewPagesHandler(app.SessionService),
	}
}

// initializeMailer selects the outbound mail implementation. Without SMTP
// configuration a noop mailer is used and the reset flow refuses actions.
func initializeMailer(cfg *config.Config) email.Mailer {
	if !cfg.CanSendMail() {
		log.Println("Outbound mail not configured; confirmation and reset emails disabled")
		return email.NewNoopMailer()
	}
	log.Printf("Outbound mail: SMTP via %s", cfg.SMTPHost)
	return email.NewSMTPMailer(cfg)
}
