package models

import (
	"time"
)

// User model. The ledger only ever reads users (existence checks); account
// state lives entirely in statements.
type User struct {
	ID             string      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	DeletedAt      *time.Time  `gorm:"index" json:"-"`
	Name           string      `gorm:"size:255;not null" json:"name"`
	Email          string      `gorm:"size:255;not null;unique" json:"email"`
	HashedPassword []byte      `gorm:"not null" json:"-"`
	Statements     []Statement `gorm:"foreignKey:UserID" json:"-"`
}
