package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	flashErrors = "errors"
	flashInfos  = "infos"
)

// flashError queues an error message for the next rendered page.
func flashError(c *gin.Context, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg, flashErrors)
	_ = session.Save()
}

// popFlashes drains queued error and info messages for the current render.
func popFlashes(c *gin.Context) (errors, infos []string) {
	session := sessions.Default(c)
	for _, f := range session.Flashes(flashErrors) {
		if s, ok := f.(string); ok {
			errors = append(errors, s)
		}
	}
	for _, f := range session.Flashes(flashInfos) {
		if s, ok := f.(string); ok {
			infos = append(infos, s)
		}
	}
	_ = session.Save()
	return errors, infos
}
