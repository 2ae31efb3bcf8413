package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *ContractAuditEntry) error
	ListByContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID) ([]ContractAuditEntry, error)
	// DeleteByContract removes a contract's whole trail. Only valid as
	// part of an admin whole-contract delete.
	DeleteByContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID) error
}

// Recorder appends one audit entry for a lifecycle event, stamping actor
// identity and request metadata from the context.
type Recorder interface {
	Record(ctx context.Context, tx *gorm.DB, contractID snowflake.ID, eventType string, actorType ActorType, metadata map[string]any) error
}
