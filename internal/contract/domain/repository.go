package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/crescendohq/crescendo/pkg/db/pagination"
	"gorm.io/gorm"
)

// TokenGrant carries a freshly issued token pair for a send operation.
type TokenGrant struct {
	Token     string
	ExpiresAt time.Time
}

// SignatureRecord carries the payload persisted by a successful sign.
type SignatureRecord struct {
	SignerName     string
	SignerTitle    *string
	SignatureImage string
	SignedAt       time.Time
}

// Repository is the durable store for contracts. Every state transition
// is an atomic conditional update: the WHERE clause re-checks the token
// column and status, and the implementation reports ErrStaleTransition
// when zero rows were touched so concurrent callers race safely.
type Repository interface {
	Create(ctx context.Context, db *gorm.DB, contract *Contract) error
	GetByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Contract, error)
	List(ctx context.Context, db *gorm.DB, page pagination.PageRequest) ([]Contract, int64, error)

	// UpdateDraft persists edited commercial terms and parties. Allowed
	// only while the contract is in draft.
	UpdateDraft(ctx context.Context, db *gorm.DB, contract *Contract) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	FindByReviewerToken(ctx context.Context, db *gorm.DB, token string) (*Contract, error)
	FindBySigningToken(ctx context.Context, db *gorm.DB, token string) (*Contract, error)

	// SetReviewerToken moves the contract to sent_to_reviewer, storing a
	// fresh reviewer token and clearing any signing token.
	SetReviewerToken(ctx context.Context, db *gorm.DB, id snowflake.ID, from Status, grant TokenGrant) error

	// SetSigningToken moves the contract to sent, storing a fresh
	// signing token and clearing any reviewer token.
	SetSigningToken(ctx context.Context, db *gorm.DB, id snowflake.ID, from Status, grant TokenGrant) error

	// MarkReviewed advances sent_to_reviewer to reviewed, keyed on the
	// reviewer token still matching. Already-reviewed rows are a no-op
	// success so repeated views stay idempotent.
	MarkReviewed(ctx context.Context, db *gorm.DB, id snowflake.ID, reviewerToken string) (bool, error)

	// Handoff atomically retires the reviewer token and mints the
	// signing token in one conditional write keyed on the old reviewer
	// token. Exactly one of two concurrent approvals can win.
	Handoff(ctx context.Context, db *gorm.DB, id snowflake.ID, reviewerToken string, grant TokenGrant) error

	// MarkViewed advances sent to viewed, keyed on the signing token.
	// Already-viewed rows are a no-op success.
	MarkViewed(ctx context.Context, db *gorm.DB, id snowflake.ID, signingToken string) (bool, error)

	// Sign records the signature and nulls the signing token in one
	// conditional write. The losing side of a concurrent sign observes
	// ErrStaleTransition and must never overwrite the winner's record.
	Sign(ctx context.Context, db *gorm.DB, id snowflake.ID, signingToken string, record SignatureRecord) error

	// Cancel moves any non-terminal contract to cancelled and clears
	// both token columns so outstanding links die immediately.
	Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
