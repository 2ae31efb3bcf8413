package domain

import (
	"context"
	"errors"
	"time"
)

// ContractProjection is the external-safe view returned to token
// holders. It carries the commercial terms and party names only; token
// values, internal references and the signature blob stay server-side.
type ContractProjection struct {
	Status          string     `json:"status"`
	Tier            string     `json:"tier"`
	AnnualPrice     int64      `json:"annual_price"`
	Currency        string     `json:"currency"`
	BillingInterval string     `json:"billing_interval"`
	VATRatePercent  float64    `json:"vat_rate_percent"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	DurationMonths  int        `json:"duration_months"`
	SignerName      string     `json:"signer_name"`
	SignerTitle     *string    `json:"signer_title,omitempty"`
	ReviewerName    *string    `json:"reviewer_name,omitempty"`
	SignedAt        *time.Time `json:"signed_at,omitempty"`
}

// ApprovalReceipt confirms a reviewer approval and names the address the
// signing link was forwarded to.
type ApprovalReceipt struct {
	ForwardedTo string `json:"forwarded_to"`
}

type SignRequest struct {
	SignerName     string  `json:"signer_name"`
	SignerTitle    *string `json:"signer_title,omitempty"`
	SignatureImage string  `json:"signature_image"`
}

type SignReceipt struct {
	SignedAt time.Time `json:"signed_at"`
}

// ReviewFlow serves the reviewer-facing endpoint: a reviewer token holder
// may view the contract and approve it onward to the signer.
type ReviewFlow interface {
	View(ctx context.Context, reviewerToken string) (*ContractProjection, error)
	Approve(ctx context.Context, reviewerToken string) (*ApprovalReceipt, error)
}

// SignFlow serves the signer-facing endpoint: a signing token holder may
// view the contract and sign it.
type SignFlow interface {
	View(ctx context.Context, signingToken string) (*ContractProjection, error)
	Sign(ctx context.Context, signingToken string, req SignRequest) (*SignReceipt, error)
}

var (
	// ErrTokenNotFound covers never-existed, mistyped and
	// already-consumed tokens alike, so responses never reveal which
	// tokens once existed.
	ErrTokenNotFound = errors.New("token_not_found")
	// ErrTokenExpired is distinct so the holder of a stale link knows to
	// request a fresh one instead of second-guessing the value.
	ErrTokenExpired = errors.New("token_expired")

	ErrInvalidSignerName = errors.New("invalid_signer_name")
	ErrInvalidSignature  = errors.New("invalid_signature_image")
)
