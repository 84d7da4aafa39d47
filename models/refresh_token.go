package models

import "time"

// RefreshToken stores a sha256 hash of an issued refresh token. The raw
// token never touches the database.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    string    `gorm:"type:uuid;index;not null"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Revoked   bool      `gorm:"default:false;not null"`
}
