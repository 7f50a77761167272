package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/HackRU/CTFd/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTeamCreatesLazily(t *testing.T) {
	s := newTestStore(t)
	svc := NewTeamService(s, newTestSessions(t, s))

	user := &models.User{ID: uuid.New().String(), Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, s.CreateUser(user))

	team, err := svc.ResolveTeam(context.Background(), "777", "Side Channels", user, 0)
	require.NoError(t, err)

	assert.Equal(t, "Side Channels", team.Name)
	assert.Equal(t, "777", team.OAuthID)
	assert.Equal(t, user.ID, team.CaptainID)
	assert.Equal(t, team.ID, user.TeamID)
}

func TestResolveTeamReusesExisting(t *testing.T) {
	s := newTestStore(t)
	svc := NewTeamService(s, newTestSessions(t, s))

	captain := &models.User{ID: uuid.New().String(), Name: "Ada", Email: "ada@example.com"}
	joiner := &models.User{ID: uuid.New().String(), Name: "Grace", Email: "grace@example.com"}
	require.NoError(t, s.CreateUser(captain))
	require.NoError(t, s.CreateUser(joiner))

	first, err := svc.ResolveTeam(context.Background(), "777", "Side Channels", captain, 0)
	require.NoError(t, err)

	second, err := svc.ResolveTeam(context.Background(), "777", "Side Channels", joiner, 0)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, captain.ID, second.CaptainID)

	count, err := s.CountTeamMembers(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestResolveTeamIdempotentForMember(t *testing.T) {
	s := newTestStore(t)
	svc := NewTeamService(s, newTestSessions(t, s))

	user := &models.User{ID: uuid.New().String(), Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, s.CreateUser(user))

	team, err := svc.ResolveTeam(context.Background(), "777", "Side Channels", user, 1)
	require.NoError(t, err)

	// Second login of the same member must not trip the size limit.
	again, err := svc.ResolveTeam(context.Background(), "777", "Side Channels", user, 1)
	require.NoError(t, err)
	assert.Equal(t, team.ID, again.ID)
}

func TestResolveTeamEnforcesSizeLimit(t *testing.T) {
	s := newTestStore(t)
	svc := NewTeamService(s, newTestSessions(t, s))

	limit := 2
	for i := 0; i < limit; i++ {
		member := &models.User{
			ID:    uuid.New().String(),
			Name:  fmt.Sprintf("Member %d", i),
			Email: fmt.Sprintf("member%d@example.com", i),
		}
		require.NoError(t, s.CreateUser(member))
		_, err := svc.ResolveTeam(context.Background(), "777", "Side Channels", member, limit)
		require.NoError(t, err)
	}

	late := &models.User{ID: uuid.New().String(), Name: "Late", Email: "late@example.com"}
	require.NoError(t, s.CreateUser(late))

	_, err := svc.ResolveTeam(context.Background(), "777", "Side Channels", late, limit)
	var sizeErr *TeamSizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, limit, sizeErr.Limit)
	assert.Empty(t, late.TeamID)
}
