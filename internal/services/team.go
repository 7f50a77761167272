package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/HackRU/CTFd/internal/models"
	"github.com/HackRU/CTFd/internal/store"

	"github.com/google/uuid"
)

// TeamSizeError is returned when joining would push the team past the
// configured member limit.
type TeamSizeError struct {
	Limit int
}

func (e *TeamSizeError) Error() string {
	return fmt.Sprintf("team limit of %d members has been reached", e.Limit)
}

// TeamService resolves OAuth team references onto local teams.
type TeamService struct {
	store    *store.Store
	sessions *SessionService
}

func NewTeamService(s *store.Store, sessions *SessionService) *TeamService {
	return &TeamService{
		store:    s,
		sessions: sessions,
	}
}

// ResolveTeam finds or lazily creates the local team for an external team
// id and attaches the user to it. The first user to reference an unseen
// team becomes its captain. sizeLimit of 0 means unlimited.
//
// A team created here is not rolled back when the subsequent join is
// blocked by the size limit; the next member under the limit fills it.
func (s *TeamService) ResolveTeam(
	ctx context.Context,
	oauthTeamID, teamName string,
	user *models.User,
	sizeLimit int,
) (*models.Team, error) {
	team, err := s.store.GetTeamByOAuthID(oauthTeamID)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			return nil, err
		}
		team = &models.Team{
			ID:        uuid.New().String(),
			Name:      teamName,
			OAuthID:   oauthTeamID,
			CaptainID: user.ID,
		}
		if err := s.store.CreateTeam(team); err != nil {
			if errors.Is(err, store.ErrOAuthIDConflict) {
				// Concurrent creation; pick up the winner's row.
				team, err = s.store.GetTeamByOAuthID(oauthTeamID)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		} else {
			log.Printf("[Team] Created team %s for %s", team.Name, user.Email)
			s.sessions.ClearTeamSession(ctx, team.ID)
		}
	}

	// Already a member: nothing to do, and the size limit does not apply.
	if user.TeamID == team.ID {
		return team, nil
	}

	if sizeLimit > 0 {
		count, err := s.store.CountTeamMembers(team.ID)
		if err != nil {
			return nil, err
		}
		if count >= sizeLimit {
			return nil, &TeamSizeError{Limit: sizeLimit}
		}
	}

	if err := s.store.AddTeamMember(team.ID, user.ID); err != nil {
		return nil, err
	}
	user.TeamID = team.ID
	s.sessions.ClearUserSession(ctx, user.ID)
	s.sessions.ClearTeamSession(ctx, team.ID)
	return team, nil
}
