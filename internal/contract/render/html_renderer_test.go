package render

import (
	"strings"
	"testing"
	"time"
)

func TestRenderUnsignedContract(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	html, err := r.RenderHTML(RenderInput{
		Contract: ContractView{
			ID:              "1234",
			Tier:            "ensemble",
			AnnualPrice:     129900,
			Currency:        "EUR",
			BillingInterval: "annual",
			VATRatePercent:  19,
			DurationMonths:  12,
			Status:          "sent",
		},
		Signer: PartyView{Name: "Ada Signer", Email: "ada@example.com", Title: "Director"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{"ensemble", "EUR 1,299.00", "Ada Signer", "12 months"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected rendered HTML to contain %q", want)
		}
	}
	if strings.Contains(html, "Signed</div>") {
		t.Fatalf("unsigned contract must not carry the signed watermark")
	}
}

func TestRenderSignedContractIncludesSignature(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	signedAt := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	html, err := r.RenderHTML(RenderInput{
		Contract: ContractView{
			ID:              "1234",
			Tier:            "solo",
			AnnualPrice:     49900,
			Currency:        "EUR",
			BillingInterval: "monthly",
			DurationMonths:  24,
			Status:          "signed",
		},
		Signer: PartyView{Name: "Ada Signer", Email: "ada@example.com"},
		Signature: &SignatureView{
			SignerName: "Ada Signer",
			SignedAt:   signedAt,
			ImageData:  "data:image/png;base64,AAAA",
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(html, "data:image/png;base64,AAAA") {
		t.Fatalf("expected signature image in rendered HTML")
	}
	if !strings.Contains(html, "4 May 2026") {
		t.Fatalf("expected signed timestamp in rendered HTML")
	}
}

func TestFormatAmountGrouping(t *testing.T) {
	cases := []struct {
		minor    int64
		currency string
		want     string
	}{
		{0, "eur", "EUR 0.00"},
		{100, "EUR", "EUR 1.00"},
		{123456789, "USD", "USD 1,234,567.89"},
		{-5000, "GBP", "GBP -50.00"},
	}
	for _, tc := range cases {
		if got := formatAmount(tc.minor, tc.currency); got != tc.want {
			t.Fatalf("formatAmount(%d, %q) = %q, want %q", tc.minor, tc.currency, got, tc.want)
		}
	}
}
