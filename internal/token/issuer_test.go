package token

import (
	"testing"
	"time"

	"github.com/crescendohq/crescendo/internal/config"
)

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

func TestIssueTokenLengthAndUniqueness(t *testing.T) {
	iss := NewIssuer(config.Config{}, fixedClock{now: time.Now()})

	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		tok, err := iss.IssueSigningToken()
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if len(tok.Value) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(tok.Value))
		}
		if seen[tok.Value] {
			t.Fatalf("duplicate token issued: %s", tok.Value)
		}
		seen[tok.Value] = true
	}
}

func TestIssueTokenExpiryUsesTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := config.Config{}
	cfg.Token.TTL = 48 * time.Hour

	iss := NewIssuer(cfg, fixedClock{now: now})
	tok, err := iss.IssueReviewerToken()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := now.Add(48 * time.Hour); !tok.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, tok.ExpiresAt)
	}
}

func TestIssueTokenDefaultTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer(config.Config{}, fixedClock{now: now})
	tok, err := iss.IssueSigningToken()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := now.Add(30 * 24 * time.Hour); !tok.ExpiresAt.Equal(want) {
		t.Fatalf("expected 30 day expiry %v, got %v", want, tok.ExpiresAt)
	}
}
