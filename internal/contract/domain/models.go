package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the contract lifecycle status.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusSentToReviewer Status = "sent_to_reviewer"
	StatusReviewed       Status = "reviewed"
	StatusSent           Status = "sent"
	StatusViewed         Status = "viewed"
	StatusSigned         Status = "signed"
	StatusCancelled      Status = "cancelled"
	// StatusExpired is reserved for deployments that promote lazy expiry
	// to a stored status. The core never writes it; expiry is reported
	// from the token timestamps at read time.
	StatusExpired Status = "expired"
)

// IsTerminal reports whether no further transitions are valid.
func (s Status) IsTerminal() bool {
	return s == StatusSigned || s == StatusCancelled || s == StatusExpired
}

// BillingInterval for subscription contracts.
type BillingInterval string

const (
	BillingMonthly   BillingInterval = "monthly"
	BillingQuarterly BillingInterval = "quarterly"
	BillingAnnual    BillingInterval = "annual"
)

// Contract is one signable agreement instance. Commercial terms are
// editable only while the contract is in draft.
type Contract struct {
	ID snowflake.ID `gorm:"primaryKey" json:"id"`

	// Commercial terms.
	Tier            string          `gorm:"type:text;not null" json:"tier"`
	AnnualPrice     int64           `gorm:"not null" json:"annual_price"`
	Currency        string          `gorm:"type:text;not null" json:"currency"`
	BillingInterval BillingInterval `gorm:"type:text;not null" json:"billing_interval"`
	VATRatePercent  float64         `gorm:"not null" json:"vat_rate_percent"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	DurationMonths  int             `gorm:"not null" json:"duration_months"`

	// Parties.
	SignerName    string  `gorm:"type:text;not null" json:"signer_name"`
	SignerEmail   string  `gorm:"type:text;not null" json:"signer_email"`
	SignerTitle   *string `gorm:"type:text" json:"signer_title,omitempty"`
	ReviewerName  *string `gorm:"type:text" json:"reviewer_name,omitempty"`
	ReviewerEmail *string `gorm:"type:text" json:"reviewer_email,omitempty"`
	ReviewerTitle *string `gorm:"type:text" json:"reviewer_title,omitempty"`

	// Lifecycle. At most one of the two token columns is populated
	// outside the review-to-sign handoff; a consumed token is nulled so
	// the link dies permanently.
	Status                 Status     `gorm:"type:text;not null;index" json:"status"`
	ReviewerToken          *string    `gorm:"type:text;uniqueIndex" json:"-"`
	ReviewerTokenExpiresAt *time.Time `json:"-"`
	SigningToken           *string    `gorm:"type:text;uniqueIndex" json:"-"`
	TokenExpiresAt         *time.Time `json:"-"`
	SignedAt               *time.Time `json:"signed_at,omitempty"`
	SignatureImage         *string    `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

// HasReviewer reports whether reviewer details are complete enough to
// route the contract through a review step.
func (c *Contract) HasReviewer() bool {
	return c.ReviewerEmail != nil && *c.ReviewerEmail != "" &&
		c.ReviewerName != nil && *c.ReviewerName != ""
}
