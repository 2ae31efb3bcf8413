package render

import "time"

// RenderInput is the deterministic input used for contract document
// rendering. The surrounding system feeds the rendered HTML to its PDF
// pipeline; this package never touches PDF itself.
type RenderInput struct {
	Contract  ContractView
	Signer    PartyView
	Reviewer  *PartyView
	Signature *SignatureView
}

type ContractView struct {
	ID              string
	Tier            string
	AnnualPrice     int64
	Currency        string
	BillingInterval string
	VATRatePercent  float64
	StartDate       *time.Time
	DurationMonths  int
	Status          string
}

type PartyView struct {
	Name  string
	Email string
	Title string
}

type SignatureView struct {
	SignerName string
	SignedAt   time.Time
	ImageData  string
}

type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}
