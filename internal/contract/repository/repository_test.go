package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	contractdomain "github.com/crescendohq/crescendo/internal/contract/domain"
	"github.com/crescendohq/crescendo/internal/migration"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

func seedContract(t *testing.T, db *gorm.DB, status contractdomain.Status) *contractdomain.Contract {
	t.Helper()
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	now := time.Now().UTC()
	contract := &contractdomain.Contract{
		ID:              node.Generate(),
		Tier:            "standard",
		AnnualPrice:     50000,
		Currency:        "EUR",
		BillingInterval: contractdomain.BillingMonthly,
		DurationMonths:  12,
		SignerName:      "Noa Lindt",
		SignerEmail:     "noa@example.test",
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	return contract
}

func grant(token string) contractdomain.TokenGrant {
	expires := time.Now().Add(time.Hour).UTC()
	return contractdomain.TokenGrant{Token: token, ExpiresAt: expires}
}

func TestSetReviewerTokenGuardsStatus(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)
	ctx := context.Background()
	contract := seedContract(t, db, contractdomain.StatusDraft)

	if err := repo.SetReviewerToken(ctx, nil, contract.ID, contractdomain.StatusDraft, grant("rev-1")); err != nil {
		t.Fatalf("set reviewer token: %v", err)
	}

	// A second writer that still believes the contract is a draft loses.
	err := repo.SetReviewerToken(ctx, nil, contract.ID, contractdomain.StatusDraft, grant("rev-2"))
	if !errors.Is(err, contractdomain.ErrStaleTransition) {
		t.Fatalf("stale set = %v, want ErrStaleTransition", err)
	}

	found, err := repo.FindByReviewerToken(ctx, nil, "rev-1")
	if err != nil {
		t.Fatalf("find by token: %v", err)
	}
	if found.Status != contractdomain.StatusSentToReviewer {
		t.Fatalf("status = %s, want sent_to_reviewer", found.Status)
	}
}

func TestMarkReviewedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)
	ctx := context.Background()
	contract := seedContract(t, db, contractdomain.StatusDraft)

	if err := repo.SetReviewerToken(ctx, nil, contract.ID, contractdomain.StatusDraft, grant("rev-tok")); err != nil {
		t.Fatalf("set reviewer token: %v", err)
	}

	advanced, err := repo.MarkReviewed(ctx, nil, contract.ID, "rev-tok")
	if err != nil {
		t.Fatalf("first mark reviewed: %v", err)
	}
	if !advanced {
		t.Fatal("first view should advance the status")
	}

	advanced, err = repo.MarkReviewed(ctx, nil, contract.ID, "rev-tok")
	if err != nil {
		t.Fatalf("second mark reviewed: %v", err)
	}
	if advanced {
		t.Fatal("repeat view must not report an advance")
	}

	// A wrong token never verifies against someone else's contract.
	if _, err := repo.MarkReviewed(ctx, nil, contract.ID, "other-tok"); !errors.Is(err, contractdomain.ErrContractNotFound) {
		t.Fatalf("wrong token = %v, want ErrContractNotFound", err)
	}
}

func TestHandoffRetiresReviewerToken(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)
	ctx := context.Background()
	contract := seedContract(t, db, contractdomain.StatusDraft)

	if err := repo.SetReviewerToken(ctx, nil, contract.ID, contractdomain.StatusDraft, grant("rev-tok")); err != nil {
		t.Fatalf("set reviewer token: %v", err)
	}
	if err := repo.Handoff(ctx, nil, contract.ID, "rev-tok", grant("sign-tok")); err != nil {
		t.Fatalf("handoff: %v", err)
	}

	// Only one of two racing approvals can win.
	if err := repo.Handoff(ctx, nil, contract.ID, "rev-tok", grant("sign-tok-2")); !errors.Is(err, contractdomain.ErrStaleTransition) {
		t.Fatalf("repeat handoff = %v, want ErrStaleTransition", err)
	}

	if _, err := repo.FindByReviewerToken(ctx, nil, "rev-tok"); !errors.Is(err, contractdomain.ErrContractNotFound) {
		t.Fatalf("reviewer token after handoff = %v, want ErrContractNotFound", err)
	}
	found, err := repo.FindBySigningToken(ctx, nil, "sign-tok")
	if err != nil {
		t.Fatalf("signing token after handoff: %v", err)
	}
	if found.Status != contractdomain.StatusSent {
		t.Fatalf("status = %s, want sent", found.Status)
	}
}

func TestSignConsumesToken(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)
	ctx := context.Background()
	contract := seedContract(t, db, contractdomain.StatusDraft)

	if err := repo.SetSigningToken(ctx, nil, contract.ID, contractdomain.StatusDraft, grant("sign-tok")); err != nil {
		t.Fatalf("set signing token: %v", err)
	}

	record := contractdomain.SignatureRecord{
		SignerName:     "Noa Lindt",
		SignatureImage: strings.Repeat("A", 128),
		SignedAt:       time.Now().UTC(),
	}
	if err := repo.Sign(ctx, nil, contract.ID, "sign-tok", record); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := repo.Sign(ctx, nil, contract.ID, "sign-tok", record); !errors.Is(err, contractdomain.ErrStaleTransition) {
		t.Fatalf("repeat sign = %v, want ErrStaleTransition", err)
	}

	reloaded, err := repo.GetByID(ctx, nil, contract.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != contractdomain.StatusSigned {
		t.Fatalf("status = %s, want signed", reloaded.Status)
	}
	if reloaded.SigningToken != nil || reloaded.TokenExpiresAt != nil {
		t.Fatal("signing token must be nulled on sign")
	}
	if reloaded.SignedAt == nil || reloaded.SignatureImage == nil {
		t.Fatal("signature record not persisted")
	}
}

func TestCancelNullsAllTokens(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)
	ctx := context.Background()
	contract := seedContract(t, db, contractdomain.StatusDraft)

	if err := repo.SetSigningToken(ctx, nil, contract.ID, contractdomain.StatusDraft, grant("sign-tok")); err != nil {
		t.Fatalf("set signing token: %v", err)
	}
	if err := repo.Cancel(ctx, nil, contract.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := repo.Cancel(ctx, nil, contract.ID); !errors.Is(err, contractdomain.ErrStaleTransition) {
		t.Fatalf("repeat cancel = %v, want ErrStaleTransition", err)
	}

	reloaded, err := repo.GetByID(ctx, nil, contract.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != contractdomain.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", reloaded.Status)
	}
	if reloaded.SigningToken != nil || reloaded.ReviewerToken != nil {
		t.Fatal("cancel must null both token columns")
	}
}

func TestUpdateDraftOnlyTouchesDrafts(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)
	ctx := context.Background()
	contract := seedContract(t, db, contractdomain.StatusDraft)

	contract.Tier = "premium"
	if err := repo.UpdateDraft(ctx, nil, contract); err != nil {
		t.Fatalf("update draft: %v", err)
	}

	if err := repo.SetSigningToken(ctx, nil, contract.ID, contractdomain.StatusDraft, grant("sign-tok")); err != nil {
		t.Fatalf("set signing token: %v", err)
	}
	contract.Tier = "enterprise"
	if err := repo.UpdateDraft(ctx, nil, contract); !errors.Is(err, contractdomain.ErrContractNotDraft) {
		t.Fatalf("update sent contract = %v, want ErrContractNotDraft", err)
	}

	reloaded, err := repo.GetByID(ctx, nil, contract.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Tier != "premium" {
		t.Fatalf("tier = %s, want premium", reloaded.Tier)
	}
}
