package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, key *APIKey) error
	FindActiveByHash(ctx context.Context, db *gorm.DB, keyHash string) (*APIKey, error)
	CountActive(ctx context.Context, db *gorm.DB) (int64, error)
}

// Service verifies admin credentials and mints bootstrap keys.
type Service interface {
	Create(ctx context.Context, name string, secret string) (*APIKey, error)
	Verify(ctx context.Context, secret string) (*APIKey, error)
}
