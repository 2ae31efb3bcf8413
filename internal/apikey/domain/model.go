package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIKey authenticates the admin surface. Only the keyed hash is stored;
// the raw secret is shown once at creation time.
type APIKey struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	KeyHash   string       `gorm:"type:text;not null;uniqueIndex" json:"-"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (APIKey) TableName() string { return "api_keys" }
