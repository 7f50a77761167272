package models

import (
	"time"
)

// User is a local identity record. Accounts are provisioned either from the
// external registration API on first credential login, or from the OAuth
// callback. They are never hard-deleted by the auth flows.
type User struct {
	ID       string `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	Password string // bcrypt hash; empty for OAuth-linked accounts

	// OAuthID is the external identity provider's user id. A user with
	// OAuthID set was provisioned or linked through the OAuth path; a user
	// without it must have a password for credential login.
	OAuthID  string `gorm:"column:oauth_id;uniqueIndex;default:null"`
	Verified bool   `gorm:"not null;default:false"`

	// Optional profile fields
	Website     string
	Affiliation string
	Country     string

	TeamID string `gorm:"index;default:null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOAuthLinked reports whether the account was registered or linked via
// the OAuth provider. Such accounts have no local password.
func (u *User) IsOAuthLinked() bool {
	return u.OAuthID != ""
}
