package middleware

import (
	"net/http"

	"github.com/HackRU/CTFd/internal/services"
	"github.com/HackRU/CTFd/internal/templates"
	"github.com/HackRU/CTFd/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const nonceFormField = "nonce"

// NonceMiddleware issues a per-session nonce and validates it on every
// state-changing request. Forms embed the nonce as a hidden field.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		nonce, _ := session.Get(services.SessionNonce).(string)
		if nonce == "" {
			fresh, err := util.CryptoRandomString(32)
			if err != nil {
				templates.RenderTempl(c, http.StatusInternalServerError, templates.ErrorPage(templates.ErrorPageProps{
					Error:   "Internal Error",
					Message: "Failed to initialize the session.",
				}))
				c.Abort()
				return
			}
			nonce = fresh
			session.Set(services.SessionNonce, nonce)
			if err := session.Save(); err != nil {
				templates.RenderTempl(c, http.StatusInternalServerError, templates.ErrorPage(templates.ErrorPageProps{
					Error:   "Internal Error",
					Message: "Failed to save the session.",
				}))
				c.Abort()
				return
			}
		}

		c.Set(services.SessionNonce, nonce)

		if c.Request.Method == http.MethodPost ||
			c.Request.Method == http.MethodPut ||
			c.Request.Method == http.MethodDelete ||
			c.Request.Method == http.MethodPatch {
			if c.PostForm(nonceFormField) != nonce {
				templates.RenderTempl(c, http.StatusForbidden, templates.ErrorPage(templates.ErrorPageProps{
					Error:   "Forbidden",
					Message: "Session validation failed. Please refresh the page and try again.",
				}))
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// GetNonce retrieves the session nonce placed on the context by
// NonceMiddleware.
func GetNonce(c *gin.Context) string {
	if nonce, exists := c.Get(services.SessionNonce); exists {
		if s, ok := nonce.(string); ok {
			return s
		}
	}
	return ""
}
