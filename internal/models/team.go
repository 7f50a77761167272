package models

import (
	"time"
)

// Team groups users under teams mode. Teams are created lazily on the first
// OAuth login that references an unseen external team id.
type Team struct {
	ID      string `gorm:"primaryKey"`
	Name    string `gorm:"not null"`
	OAuthID string `gorm:"column:oauth_id;uniqueIndex;not null"` // external team identifier

	// CaptainID is the user that triggered the lazy creation of the team.
	CaptainID string `gorm:"index"`

	Members []User `gorm:"foreignKey:TeamID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
