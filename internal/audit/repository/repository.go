package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/crescendohq/crescendo/internal/audit/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) auditdomain.Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(db *gorm.DB) *gorm.DB {
	if db != nil {
		return db
	}
	return r.db
}

func (r *Repository) Insert(ctx context.Context, db *gorm.DB, entry *auditdomain.ContractAuditEntry) error {
	return r.conn(db).WithContext(ctx).Create(entry).Error
}

func (r *Repository) ListByContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID) ([]auditdomain.ContractAuditEntry, error) {
	var entries []auditdomain.ContractAuditEntry
	err := r.conn(db).WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repository) DeleteByContract(ctx context.Context, db *gorm.DB, contractID snowflake.ID) error {
	return r.conn(db).WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&auditdomain.ContractAuditEntry{}).Error
}
