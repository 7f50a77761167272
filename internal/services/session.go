package services

import (
	"context"
	"log"
	"time"

	"github.com/HackRU/CTFd/internal/cache"
	"github.com/HackRU/CTFd/internal/metrics"
	"github.com/HackRU/CTFd/internal/models"
	"github.com/HackRU/CTFd/internal/store"
	"github.com/HackRU/CTFd/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session keys
const (
	SessionUserID = "user_id"
	SessionNonce  = "nonce"
)

// sessionCacheTTL bounds how long a stale user/team record can be served
// after a direct DB update that bypassed invalidation.
const sessionCacheTTL = 5 * time.Minute

// SessionService owns authenticated session state: the per-browser cookie
// session and the server-side user/team caches keyed by id.
type SessionService struct {
	store     *store.Store
	userCache cache.Cache[models.User]
	teamCache cache.Cache[models.Team]
	metrics   metrics.Recorder
}

func NewSessionService(
	s *store.Store,
	userCache cache.Cache[models.User],
	teamCache cache.Cache[models.Team],
	m metrics.Recorder,
) *SessionService {
	return &SessionService{
		store:     s,
		userCache: userCache,
		teamCache: teamCache,
		metrics:   m,
	}
}

// GetUser returns the user for id through the session cache.
func (s *SessionService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := cache.GetWithFetch(ctx, s.userCache, id, sessionCacheTTL,
		func(ctx context.Context, key string) (models.User, error) {
			u, err := s.store.GetUserByID(key)
			if err != nil {
				return models.User{}, err
			}
			return *u, nil
		})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetTeam returns the team for id through the session cache.
func (s *SessionService) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	team, err := cache.GetWithFetch(ctx, s.teamCache, id, sessionCacheTTL,
		func(ctx context.Context, key string) (models.Team, error) {
			t, err := s.store.GetTeamByID(key)
			if err != nil {
				return models.Team{}, err
			}
			return *t, nil
		})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// ClearUserSession drops the cached record for a user whose row changed
// (verification, password reset, oauth linking).
func (s *SessionService) ClearUserSession(ctx context.Context, userID string) {
	if err := s.userCache.Delete(ctx, userID); err != nil {
		log.Printf("[Session] Failed to clear cached user %s: %v", userID, err)
	}
	s.metrics.RecordSessionInvalidated("user")
}

// ClearTeamSession drops the cached record for a team.
func (s *SessionService) ClearTeamSession(ctx context.Context, teamID string) {
	if err := s.teamCache.Delete(ctx, teamID); err != nil {
		log.Printf("[Session] Failed to clear cached team %s: %v", teamID, err)
	}
	s.metrics.RecordSessionInvalidated("team")
}

// LoginUser authenticates the browser session for the user. The session is
// regenerated (cleared and reissued with a fresh nonce) to prevent fixation.
func (s *SessionService) LoginUser(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Clear()

	nonce, err := util.CryptoRandomString(32)
	if err != nil {
		return err
	}
	session.Set(SessionNonce, nonce)
	session.Set(SessionUserID, user.ID)
	return session.Save()
}

// LogoutUser tears down the authenticated session.
func (s *SessionService) LogoutUser(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		return err
	}
	s.metrics.RecordLogout()
	return nil
}

// Authed reports whether the browser session is authenticated.
func (s *SessionService) Authed(c *gin.Context) bool {
	return s.CurrentUserID(c) != ""
}

// CurrentUserID returns the authenticated user id, or "" if anonymous.
func (s *SessionService) CurrentUserID(c *gin.Context) string {
	session := sessions.Default(c)
	if id, ok := session.Get(SessionUserID).(string); ok {
		return id
	}
	return ""
}
