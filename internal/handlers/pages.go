package handlers

import (
	"log"
	"net/http"

	"github.com/HackRU/CTFd/internal/middleware"
	"github.com/HackRU/CTFd/internal/services"
	"github.com/HackRU/CTFd/internal/templates"

	"github.com/gin-gonic/gin"
)

// PagesHandler serves the minimal page surface around the auth flows.
type PagesHandler struct {
	sessions *services.SessionService
}

func NewPagesHandler(sessions *services.SessionService) *PagesHandler {
	return &PagesHandler{sessions: sessions}
}

// Landing handles GET /.
func (h *PagesHandler) Landing(c *gin.Context) {
	templates.RenderTempl(c, http.StatusOK, templates.LandingPage(templates.PageProps{
		BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
	}))
}

func (h *PagesHandler) pageProps(c *gin.Context) (templates.PageProps, bool) {
	props := templates.PageProps{
		BaseProps: templates.BaseProps{Nonce: middleware.GetNonce(c)},
	}

	user, err := h.sessions.GetUser(c.Request.Context(), h.sessions.CurrentUserID(c))
	if err != nil {
		log.Printf("[Pages] Failed to load session user: %v", err)
		c.Redirect(http.StatusFound, "/logout")
		return props, false
	}
	props.Username = user.Name

	if user.TeamID != "" {
		team, err := h.sessions.GetTeam(c.Request.Context(), user.TeamID)
		if err != nil {
			log.Printf("[Pages] Failed to load team %s: %v", user.TeamID, err)
		} else {
			props.Team = team.Name
		}
	}
	return props, true
}

// Challenges handles GET /challenges, the post-login destination.
func (h *PagesHandler) Challenges(c *gin.Context) {
	props, ok := h.pageProps(c)
	if !ok {
		return
	}
	templates.RenderTempl(c, http.StatusOK, templates.ChallengesPage(props))
}

// Settings handles GET /settings.
func (h *PagesHandler) Settings(c *gin.Context) {
	props, ok := h.pageProps(c)
	if !ok {
		return
	}
	templates.RenderTempl(c, http.StatusOK, templates.SettingsPage(props))
}
