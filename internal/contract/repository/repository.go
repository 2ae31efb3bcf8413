package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/crescendohq/crescendo/internal/contract/domain"
	"github.com/crescendohq/crescendo/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) contractdomain.Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(db *gorm.DB) *gorm.DB {
	if db != nil {
		return db
	}
	return r.db
}

func (r *Repository) Create(ctx context.Context, db *gorm.DB, contract *contractdomain.Contract) error {
	return r.conn(db).WithContext(ctx).Create(contract).Error
}

func (r *Repository) GetByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*contractdomain.Contract, error) {
	var contract contractdomain.Contract
	err := r.conn(db).WithContext(ctx).First(&contract, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contractdomain.ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *Repository) List(ctx context.Context, db *gorm.DB, page pagination.PageRequest) ([]contractdomain.Contract, int64, error) {
	conn := r.conn(db).WithContext(ctx)

	var total int64
	if err := conn.Model(&contractdomain.Contract{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contracts []contractdomain.Contract
	err := conn.
		Scopes(pagination.Scope(page)).
		Order("created_at DESC, id DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}

func (r *Repository) UpdateDraft(ctx context.Context, db *gorm.DB, contract *contractdomain.Contract) error {
	result := r.conn(db).WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ? AND status = ?", contract.ID, contractdomain.StatusDraft).
		Updates(map[string]any{
			"tier":             contract.Tier,
			"annual_price":     contract.AnnualPrice,
			"currency":         contract.Currency,
			"billing_interval": contract.BillingInterval,
			"vat_rate_percent": contract.VATRatePercent,
			"start_date":       contract.StartDate,
			"duration_months":  contract.DurationMonths,
			"signer_name":      contract.SignerName,
			"signer_email":     contract.SignerEmail,
			"signer_title":     contract.SignerTitle,
			"reviewer_name":    contract.ReviewerName,
			"reviewer_email":   contract.ReviewerEmail,
			"reviewer_title":   contract.ReviewerTitle,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contractdomain.ErrContractNotDraft
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	result := r.conn(db).WithContext(ctx).
		Where("id = ?", id).
		Delete(&contractdomain.Contract{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contractdomain.ErrContractNotFound
	}
	return nil
}

func (r *Repository) FindByReviewerToken(ctx context.Context, db *gorm.DB, token string) (*contractdomain.Contract, error) {
	return r.findByToken(ctx, db, "reviewer_token = ?", token)
}

func (r *Repository) FindBySigningToken(ctx context.Context, db *gorm.DB, token string) (*contractdomain.Contract, error) {
	return r.findByToken(ctx, db, "signing_token = ?", token)
}

func (r *Repository) findByToken(ctx context.Context, db *gorm.DB, cond string, token string) (*contractdomain.Contract, error) {
	if token == "" {
		return nil, contractdomain.ErrContractNotFound
	}
	var contract contractdomain.Contract
	err := r.conn(db).WithContext(ctx).First(&contract, cond, token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contractdomain.ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *Repository) SetReviewerToken(ctx context.Context, db *gorm.DB, id snowflake.ID, from contractdomain.Status, grant contractdomain.TokenGrant) error {
	result := r.conn(db).WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":                    contractdomain.StatusSentToReviewer,
			"reviewer_token":            grant.Token,
			"reviewer_token_expires_at": grant.ExpiresAt,
			"signing_token":             nil,
			"token_expires_at":          nil,
		})
	return staleUnlessAffected(result)
}

func (r *Repository) SetSigningToken(ctx context.Context, db *gorm.DB, id snowflake.ID, from contractdomain.Status, grant contractdomain.TokenGrant) error {
	result := r.conn(db).WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":                    contractdomain.StatusSent,
			"signing_token":             grant.Token,
			"token_expires_at":          grant.ExpiresAt,
			"reviewer_token":            nil,
			"reviewer_token_expires_at": nil,
		})
	return staleUnlessAffected(result)
}

func (r *Repository) MarkReviewed(ctx context.Context, db *gorm.DB, id snowflake.ID, reviewerToken string) (bool, error) {
	result := r.conn(db).WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ? AND reviewer_token = ? AND status = ?",
			id, reviewerToken, contractdomain.StatusSentToReviewer).
		Update("status", contractdomain.StatusReviewed)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// Zero rows is fine when the contract already advanced; repeated
	// views are idempotent and must not regress status.
	current, err := r.findByToken(ctx, db, "reviewer_token = ?", reviewerToken)
	if err != nil {
		return false, err
	}
	if current.ID != id || current.Status != contractdomain.StatusReviewed {
		return false, contractdomain.ErrStaleTransition
	}
	return false, nil
}

func (r *Repository) Handoff(ctx context.Context, db *gorm.DB, id snowflake.ID, reviewerToken string, grant contractdomain.TokenGrant) error {
	result := r.conn(db).WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ? AND reviewer_token = ? AND status IN ?",
			id, reviewerToken,
			[]contractdomain.Status{contractdomain.StatusSentToReviewer, contractdomain.StatusReviewed}).
		Updates(map[string]any{
			"status":                    contractdomain.StatusSent,
			"signing_token":             grant.Token,
			"token_expires_at":          grant.ExpiresAt,
			"reviewer_token":            nil,
			"reviewer_token_expires_at": nil,
		})
	return staleUnlessAffected(result)
}

func (r *Repository) MarkViewed(ctx context.Context, db *gorm.DB, id snowflake.ID, signingToken string) (bool, error) {
	result := r.conn(db).WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ? AND signing_token = ? AND status = ?",
			id, signingToken, contractdomain.StatusSent).
		Update("status", contractdomain.StatusViewed)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	current, err := r.findByToken(ctx, db, "signing_token = ?", signingToken)
	if err != nil {
		return false, err
	}
	if current.ID != id || current.Status != contractdomain.StatusViewed {
		return false, contractdomain.ErrStaleTransition
	}
	return false, nil
}

func (r *Repository) Sign(ctx context.Context, db *gorm.DB, id snowflake.ID, signingToken string, record contractdomain.SignatureRecord) error {
	result := r.conn(db).WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ? AND signing_token = ? AND status NOT IN ?",
			id, signingToken,
			[]contractdomain.Status{contractdomain.StatusSigned, contractdomain.StatusCancelled}).
		Updates(map[string]any{
			"status":           contractdomain.StatusSigned,
			"signer_name":      record.SignerName,
			"signer_title":     record.SignerTitle,
			"signed_at":        record.SignedAt,
			"signature_image":  record.SignatureImage,
			"signing_token":    nil,
			"token_expires_at": nil,
		})
	return staleUnlessAffected(result)
}

func (r *Repository) Cancel(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	result := r.conn(db).WithContext(ctx).
		Model(&contractdomain.Contract{}).
		Where("id = ? AND status NOT IN ?",
			id,
			[]contractdomain.Status{contractdomain.StatusSigned, contractdomain.StatusCancelled}).
		Updates(map[string]any{
			"status":                    contractdomain.StatusCancelled,
			"reviewer_token":            nil,
			"reviewer_token_expires_at": nil,
			"signing_token":             nil,
			"token_expires_at":          nil,
		})
	return staleUnlessAffected(result)
}

func staleUnlessAffected(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contractdomain.ErrStaleTransition
	}
	return nil
}
