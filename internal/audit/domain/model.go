package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered a lifecycle event.
type ActorType string

const (
	ActorTypeAdmin    ActorType = "admin"
	ActorTypeReviewer ActorType = "reviewer"
	ActorTypeSigner   ActorType = "signer"
	ActorTypeSystem   ActorType = "system"
)

// Lifecycle event types. Each successful state machine transition appends
// exactly one entry with the matching type.
const (
	EventCreated        = "created"
	EventSentToReviewer = "sent_to_reviewer"
	EventSentToSigner   = "sent_to_signer"
	EventReviewed       = "reviewed"
	EventApproved       = "approved"
	EventViewed         = "viewed"
	EventSigned         = "signed"
	EventCancelled      = "cancelled"
)

// ContractAuditEntry is an immutable record of one contract lifecycle
// event. Entries are owned by their contract and only ever removed as
// part of a whole-contract delete.
type ContractAuditEntry struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ContractID snowflake.ID      `gorm:"not null;index" json:"contract_id"`
	EventType  string            `gorm:"type:text;not null;index" json:"event_type"`
	ActorType  string            `gorm:"type:text;not null" json:"actor_type"`
	ActorEmail *string           `gorm:"type:text" json:"actor_email,omitempty"`
	ActorIP    *string           `gorm:"type:text" json:"actor_ip,omitempty"`
	UserAgent  *string           `gorm:"type:text" json:"user_agent,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (ContractAuditEntry) TableName() string { return "contract_audit_entries" }
