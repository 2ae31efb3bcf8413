package domain

import (
	"context"
	"errors"
	"time"

	auditdomain "github.com/crescendohq/crescendo/internal/audit/domain"
	"github.com/crescendohq/crescendo/pkg/db/pagination"
)

type CreateContractRequest struct {
	Tier            string          `json:"tier"`
	AnnualPrice     int64           `json:"annual_price"`
	Currency        string          `json:"currency"`
	BillingInterval BillingInterval `json:"billing_interval"`
	VATRatePercent  float64         `json:"vat_rate_percent"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	DurationMonths  int             `json:"duration_months"`

	SignerName    string  `json:"signer_name"`
	SignerEmail   string  `json:"signer_email"`
	SignerTitle   *string `json:"signer_title,omitempty"`
	ReviewerName  *string `json:"reviewer_name,omitempty"`
	ReviewerEmail *string `json:"reviewer_email,omitempty"`
	ReviewerTitle *string `json:"reviewer_title,omitempty"`
}

type UpdateContractRequest struct {
	CreateContractRequest
	ID string `json:"-"`
}

type ListContractsRequest struct {
	pagination.PageRequest
}

type ListContractsResponse struct {
	pagination.PageInfo
	Contracts []Contract `json:"contracts"`
}

// ContractWithTrail is the admin detail view.
type ContractWithTrail struct {
	Contract Contract                         `json:"contract"`
	Audit    []auditdomain.ContractAuditEntry `json:"audit"`
}

// SendResult reports where a contract was routed. The raw token value is
// returned to the caller exactly once so the link can be delivered; it is
// never readable again through the API.
type SendResult struct {
	Status    Status    `json:"status"`
	SentTo    string    `json:"sent_to"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service is the authenticated admin surface of the contract lifecycle.
type Service interface {
	Create(ctx context.Context, req CreateContractRequest) (*Contract, error)
	Update(ctx context.Context, req UpdateContractRequest) (*Contract, error)
	List(ctx context.Context, req ListContractsRequest) (ListContractsResponse, error)
	Get(ctx context.Context, id string) (*ContractWithTrail, error)
	SendToReviewer(ctx context.Context, id string) (*SendResult, error)
	SendToSigner(ctx context.Context, id string) (*SendResult, error)
	Cancel(ctx context.Context, id string) (*Contract, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidContractID  = errors.New("invalid_contract_id")
	ErrContractNotFound   = errors.New("contract_not_found")
	ErrContractNotDraft   = errors.New("contract_not_draft")
	ErrContractTerminal   = errors.New("contract_terminal")
	ErrInvalidTransition  = errors.New("invalid_transition")
	ErrStaleTransition    = errors.New("stale_transition")
	ErrMissingSigner      = errors.New("missing_signer")
	ErrMissingReviewer    = errors.New("missing_reviewer")
	ErrInvalidTier        = errors.New("invalid_tier")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrInvalidDuration    = errors.New("invalid_duration")
	ErrInvalidVATRate     = errors.New("invalid_vat_rate")
	ErrInvalidBillingTerm = errors.New("invalid_billing_interval")
)
