package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/crescendohq/crescendo/internal/clock"
	"github.com/crescendohq/crescendo/internal/config"
)

// tokenBytes yields 256 bits of entropy, rendered as 64 hex characters.
const tokenBytes = 32

// Token is a bearer credential together with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Issuer mints reviewer and signing tokens. It generates values only;
// persisting them against a contract is the caller's job.
type Issuer interface {
	IssueReviewerToken() (Token, error)
	IssueSigningToken() (Token, error)
}

type issuer struct {
	ttl   time.Duration
	clock clock.Clock
}

func NewIssuer(cfg config.Config, clk clock.Clock) Issuer {
	ttl := cfg.Token.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &issuer{ttl: ttl, clock: clk}
}

func (i *issuer) IssueReviewerToken() (Token, error) { return i.issue() }

func (i *issuer) IssueSigningToken() (Token, error) { return i.issue() }

func (i *issuer) issue() (Token, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, fmt.Errorf("generate token: %w", err)
	}
	return Token{
		Value:     hex.EncodeToString(buf),
		ExpiresAt: i.clock.Now().Add(i.ttl).UTC(),
	}, nil
}
