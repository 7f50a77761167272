package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HackRU/CTFd/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Config{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Health pings the underlying database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// isUniqueViolation detects a unique-constraint failure across the supported
// drivers. GORM surfaces ErrDuplicatedKey for postgres; the sqlite driver
// reports constraint failures as plain errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// User operations

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ExistsUserByEmail reports whether a user row with the email exists.
// Flow code uses this as an explicit pre-check before inserting, instead of
// relying on the insert failure to mean "already registered".
func (s *Store) ExistsUserByEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateUser inserts a new user row. A unique-constraint failure on the
// email column is mapped to ErrEmailConflict so callers can distinguish a
// concurrent registration from a hard database error.
func (s *Store) CreateUser(user *models.User) error {
	if err := s.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrEmailConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// SetVerified marks the user's email address as confirmed
func (s *Store) SetVerified(userID string, verified bool) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("verified", verified).Error
}

// SetPassword replaces the user's password hash
func (s *Store) SetPassword(userID, passwordHash string) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", passwordHash).Error
}

// LinkOAuth records the external provider id on an email-matched account the
// first time an OAuth login succeeds for it, and marks the account verified.
func (s *Store) LinkOAuth(userID, oauthID string) error {
	err := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"oauth_id": oauthID,
			"verified": true,
		}).Error
	if err != nil && isUniqueViolation(err) {
		return ErrOAuthIDConflict
	}
	return err
}

// Team operations

func (s *Store) GetTeamByID(id string) (*models.Team, error) {
	var team models.Team
	if err := s.db.Where("id = ?", id).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &team, nil
}

// GetTeamByOAuthID finds a team by the external provider's team id
func (s *Store) GetTeamByOAuthID(oauthID string) (*models.Team, error) {
	var team models.Team
	if err := s.db.Where("oauth_id = ?", oauthID).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &team, nil
}

func (s *Store) CreateTeam(team *models.Team) error {
	if err := s.db.Create(team).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrOAuthIDConflict
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// CountTeamMembers returns the current member count for the team
func (s *Store) CountTeamMembers(teamID string) (int, error) {
	var count int64
	err := s.db.Model(&models.User{}).Where("team_id = ?", teamID).Count(&count).Error
	return int(count), err
}

// AddTeamMember attaches the user to the team
func (s *Store) AddTeamMember(teamID, userID string) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("team_id", teamID).Error
}

// Config store operations

// GetConfig returns the value for key from the DB config store.
// ErrRecordNotFound means the key has never been set.
func (s *Store) GetConfig(key string) (string, error) {
	var row models.Config
	if err := s.db.Where("key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrRecordNotFound
		}
		return "", err
	}
	return row.Value, nil
}

// SetConfig upserts a config store row
func (s *Store) SetConfig(key, value string) error {
	row := models.Config{Key: key, Value: value}
	return s.db.Save(&row).Error
}
