package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/HackRU/CTFd/internal/auth"
	"github.com/HackRU/CTFd/internal/metrics"
	"github.com/HackRU/CTFd/internal/models"
	"github.com/HackRU/CTFd/internal/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials covers both user-not-found and wrong-password
	// at the registration API; callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrRegistrationBlocked is returned when OAuth provisioning would
	// create an account while public registration is disabled.
	ErrRegistrationBlocked = errors.New("public registration is disabled")

	// ErrOAuthLinkedAccount is returned when a password operation targets
	// an account that authenticates through the OAuth provider.
	ErrOAuthLinkedAccount = errors.New("account is registered via an authentication provider")
)

// UnconfirmedRegistrationError is returned when the external registration
// exists but has not been completed; Status carries the provider's
// registration_status for the user-visible message.
type UnconfirmedRegistrationError struct {
	Status string
}

func (e *UnconfirmedRegistrationError) Error() string {
	return fmt.Sprintf("registration status is %q, not confirmed", e.Status)
}

// UserService orchestrates account provisioning and mutation for the auth
// flows. All methods return typed errors; handlers decide messaging.
type UserService struct {
	store    *store.Store
	regAPI   *auth.RegistrationClient
	sessions *SessionService
	metrics  metrics.Recorder
}

func NewUserService(
	s *store.Store,
	regAPI *auth.RegistrationClient,
	sessions *SessionService,
	m metrics.Recorder,
) *UserService {
	return &UserService{
		store:    s,
		regAPI:   regAPI,
		sessions: sessions,
		metrics:  m,
	}
}

func (s *UserService) GetByEmail(email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(id string) (*models.User, error) {
	user, err := s.store.GetUserByID(id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ExternalLogin delegates credential verification to the registration API
// and returns the local account, provisioning it on first login. The
// created flag reports whether this call provisioned the account.
//
// The sequence is: authorize, read the registration record, gate on the
// confirmed status, then an explicit existence pre-check before insert.
// A unique-constraint conflict after a passed pre-check means a concurrent
// first login; the lookup is retried once and any further failure is hard.
func (s *UserService) ExternalLogin(ctx context.Context, email, password string) (*models.User, bool, error) {
	start := time.Now()
	apiToken, err := s.regAPI.Authorize(ctx, email, password)
	s.metrics.RecordExternalAPICall("authorize", time.Since(start))
	if err != nil {
		if errors.Is(err, auth.ErrAuthRejected) {
			return nil, false, ErrInvalidCredentials
		}
		return nil, false, err
	}

	start = time.Now()
	registration, err := s.regAPI.Read(ctx, email, apiToken)
	s.metrics.RecordExternalAPICall("read", time.Since(start))
	if err != nil {
		return nil, false, err
	}

	if !registration.Confirmed() {
		return nil, false, &UnconfirmedRegistrationError{Status: registration.RegistrationStatus}
	}

	exists, err := s.store.ExistsUserByEmail(email)
	if err != nil {
		return nil, false, err
	}
	if exists {
		user, err := s.GetByEmail(email)
		return user, false, err
	}

	user, err := s.provisionExternalUser(email, password, registration)
	if err == nil {
		log.Printf("[Auth] Registered %s with %s", user.Name, user.Email)
		return user, true, nil
	}

	// Pre-check passed but the insert still conflicted: another request
	// provisioned the row concurrently. Retry the lookup once, then fail.
	if errors.Is(err, store.ErrEmailConflict) {
		if existing, lookupErr := s.GetByEmail(email); lookupErr == nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("user creation conflicted but lookup failed: %w", err)
	}
	return nil, false, err
}

func (s *UserService) provisionExternalUser(
	email, password string,
	registration *auth.Registration,
) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:          uuid.New().String(),
		Name:        registration.Name(),
		Email:       email,
		Password:    string(hash),
		Affiliation: registration.School,
	}
	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResolveOAuthUser returns the local account for an OAuth profile, creating
// it when registration is permitted. Accounts provisioned through OAuth are
// verified from the start and carry no local password.
func (s *UserService) ResolveOAuthUser(
	ctx context.Context,
	info *auth.MLCUserInfo,
	allowRegistration bool,
) (*models.User, error) {
	user, err := s.GetByEmail(info.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if !allowRegistration {
		return nil, ErrRegistrationBlocked
	}

	user = &models.User{
		ID:       uuid.New().String(),
		Name:     info.Name,
		Email:    info.Email,
		OAuthID:  fmt.Sprintf("%d", info.ID),
		Verified: true,
	}
	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrEmailConflict) {
			return s.GetByEmail(info.Email)
		}
		return nil, err
	}
	return user, nil
}

// LinkOAuth records the provider id on an email-matched pre-existing
// account the first time an OAuth login succeeds for it. No-op when the
// account is already linked.
func (s *UserService) LinkOAuth(ctx context.Context, user *models.User, oauthID string) error {
	if user.OAuthID != "" {
		return nil
	}
	if err := s.store.LinkOAuth(user.ID, oauthID); err != nil {
		return err
	}
	user.OAuthID = oauthID
	user.Verified = true
	s.sessions.ClearUserSession(ctx, user.ID)
	return nil
}

// MarkVerified confirms the user's email address and invalidates the
// cached session so the change is visible immediately.
func (s *UserService) MarkVerified(ctx context.Context, user *models.User) error {
	if err := s.store.SetVerified(user.ID, true); err != nil {
		return err
	}
	user.Verified = true
	s.sessions.ClearUserSession(ctx, user.ID)
	return nil
}

// SetPassword replaces the user's password. OAuth-linked accounts have no
// local password and are rejected.
func (s *UserService) SetPassword(ctx context.Context, user *models.User, password string) error {
	if user.IsOAuthLinked() {
		return ErrOAuthLinkedAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.SetPassword(user.ID, string(hash)); err != nil {
		return err
	}
	s.sessions.ClearUserSession(ctx, user.ID)
	return nil
}
