package repository

import (
	"context"
	"errors"

	apikeydomain "github.com/crescendohq/crescendo/internal/apikey/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) apikeydomain.Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(db *gorm.DB) *gorm.DB {
	if db != nil {
		return db
	}
	return r.db
}

func (r *Repository) Insert(ctx context.Context, db *gorm.DB, key *apikeydomain.APIKey) error {
	return r.conn(db).WithContext(ctx).Create(key).Error
}

func (r *Repository) FindActiveByHash(ctx context.Context, db *gorm.DB, keyHash string) (*apikeydomain.APIKey, error) {
	var key apikeydomain.APIKey
	err := r.conn(db).WithContext(ctx).
		First(&key, "key_hash = ? AND is_active = ?", keyHash, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apikeydomain.ErrInvalidKey
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *Repository) CountActive(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := r.conn(db).WithContext(ctx).
		Model(&apikeydomain.APIKey{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}
