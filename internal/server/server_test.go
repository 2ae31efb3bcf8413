package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeyrepository "github.com/crescendohq/crescendo/internal/apikey/repository"
	apikeyservice "github.com/crescendohq/crescendo/internal/apikey/service"
	auditrepository "github.com/crescendohq/crescendo/internal/audit/repository"
	auditservice "github.com/crescendohq/crescendo/internal/audit/service"
	"github.com/crescendohq/crescendo/internal/config"
	contractdomain "github.com/crescendohq/crescendo/internal/contract/domain"
	"github.com/crescendohq/crescendo/internal/contract/render"
	contractrepository "github.com/crescendohq/crescendo/internal/contract/repository"
	contractservice "github.com/crescendohq/crescendo/internal/contract/service"
	"github.com/crescendohq/crescendo/internal/events"
	"github.com/crescendohq/crescendo/internal/migration"
	"github.com/crescendohq/crescendo/internal/notification"
	signingservice "github.com/crescendohq/crescendo/internal/signing/service"
	"github.com/crescendohq/crescendo/internal/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testAPIKey = "crsc_test_admin_key"

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	clk    *testClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	clk := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cfg := config.Config{
		Environment: "test",
		Token:       config.TokenConfig{TTL: 30 * 24 * time.Hour},
		Signing: config.SigningConfig{
			MinSignatureLength: 100,
			PublicRateLimit:    1000,
			PublicRateWindow:   time.Minute,
		},
		Telemetry: config.TelemetryConfig{ServiceName: "crescendo-test"},
	}

	log := zap.NewNop()
	issuer := token.NewIssuer(cfg, clk)
	outbox := events.NewOutbox(db, node)
	dispatcher := notification.NewLogDispatcher(log)

	auditRepo := auditrepository.Provide(db)
	recorder := auditservice.NewRecorder(auditservice.RecorderParam{
		DB: db, Log: log, GenID: node, Repo: auditRepo, Clock: clk,
	})
	repo := contractrepository.Provide(db)
	contractSvc := contractservice.NewService(contractservice.ServiceParam{
		DB: db, Log: log, GenID: node,
		Repo: repo, AuditRepo: auditRepo, Recorder: recorder,
		Issuer: issuer, Outbox: outbox, Dispatcher: dispatcher, Clock: clk,
	})
	signingSvc := signingservice.New(signingservice.ServiceParam{
		Config: cfg, DB: db, Log: log,
		Repo: repo, Recorder: recorder,
		Issuer: issuer, Outbox: outbox, Dispatcher: dispatcher, Clock: clk,
	})
	renderer, err := render.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	apiKeySvc := apikeyservice.New(apikeyservice.ServiceParam{
		DB: db, Log: log, GenID: node,
		Repo: apikeyrepository.Provide(db), Clock: clk,
	})
	if _, err := apiKeySvc.Create(context.Background(), "test-admin", testAPIKey); err != nil {
		t.Fatalf("create api key: %v", err)
	}

	engine := NewEngine(cfg, nil)
	srv := NewServer(ServerParam{
		Config:      cfg,
		DB:          db,
		Log:         log,
		ContractSvc: contractSvc,
		ReviewFlow:  signingservice.NewReviewFlow(signingSvc),
		SignFlow:    signingservice.NewSignFlow(signingSvc),
		Renderer:    renderer,
		APIKeySvc:   apiKeySvc,
	}, engine)
	srv.RegisterRoutes()

	return &testServer{engine: engine, db: db, clk: clk}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func createPayload(withReviewer bool) map[string]any {
	payload := map[string]any{
		"tier":             "professional",
		"annual_price":     129900,
		"currency":         "EUR",
		"billing_interval": "annual",
		"vat_rate_percent": 19,
		"duration_months":  12,
		"signer_name":      "Ada Moreau",
		"signer_email":     "ada@ensemble.example",
	}
	if withReviewer {
		payload["reviewer_name"] = "Jules Bern"
		payload["reviewer_email"] = "jules@ensemble.example"
	}
	return payload
}

func (ts *testServer) createContract(t *testing.T, withReviewer bool) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/admin/contracts", createPayload(withReviewer), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create contract status = %d, body %s", rec.Code, rec.Body.String())
	}
	id, _ := decode(t, rec)["id"].(string)
	if id == "" {
		t.Fatalf("create response has no id: %s", rec.Body.String())
	}
	return id
}

func (ts *testServer) signingTokenFor(t *testing.T, id string) string {
	t.Helper()
	sid, err := snowflake.ParseString(id)
	if err != nil {
		t.Fatalf("parse contract id: %v", err)
	}
	var contract contractdomain.Contract
	if err := ts.db.First(&contract, "id = ?", sid).Error; err != nil {
		t.Fatalf("load contract: %v", err)
	}
	if contract.SigningToken == nil {
		t.Fatal("contract has no signing token")
	}
	return *contract.SigningToken
}

func TestAdminAuthentication(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/admin/contracts", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/contracts", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	recWrong := httptest.NewRecorder()
	ts.engine.ServeHTTP(recWrong, req)
	if recWrong.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key status = %d, want 401", recWrong.Code)
	}

	recOK := ts.do(t, http.MethodGet, "/admin/contracts", nil, true)
	if recOK.Code != http.StatusOK {
		t.Fatalf("valid key status = %d, want 200", recOK.Code)
	}
}

func TestFullLifecycleWithReviewer(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createContract(t, true)

	rec := ts.do(t, http.MethodPost, "/admin/contracts/"+id+"/send_to_reviewer", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("send_to_reviewer status = %d, body %s", rec.Code, rec.Body.String())
	}
	sendResult := decode(t, rec)
	reviewerToken, _ := sendResult["token"].(string)
	if len(reviewerToken) != 64 {
		t.Fatalf("reviewer token length = %d, want 64", len(reviewerToken))
	}
	if sendResult["sent_to"] != "jules@ensemble.example" {
		t.Fatalf("sent_to = %v", sendResult["sent_to"])
	}

	rec = ts.do(t, http.MethodGet, "/contracts/review/"+reviewerToken, nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("review view status = %d, body %s", rec.Code, rec.Body.String())
	}
	view := decode(t, rec)
	if view["status"] != "reviewed" {
		t.Fatalf("projection status = %v, want reviewed", view["status"])
	}
	if _, leaked := view["signature_image"]; leaked {
		t.Fatal("projection must not carry the signature image")
	}

	rec = ts.do(t, http.MethodPost, "/contracts/review/"+reviewerToken, nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", rec.Code, rec.Body.String())
	}
	approval := decode(t, rec)
	if approval["success"] != true || approval["forwarded_to"] != "ada@ensemble.example" {
		t.Fatalf("approve response = %v", approval)
	}

	// The reviewer link is consumed: gone means 404, not 410.
	rec = ts.do(t, http.MethodGet, "/contracts/review/"+reviewerToken, nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("consumed reviewer link status = %d, want 404", rec.Code)
	}

	signingToken := ts.signingTokenFor(t, id)
	rec = ts.do(t, http.MethodGet, "/contracts/sign/"+signingToken, nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("sign view status = %d, body %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["status"] != "viewed" {
		t.Fatal("signer view should advance the status to viewed")
	}

	rec = ts.do(t, http.MethodPost, "/contracts/sign/"+signingToken, map[string]any{
		"signer_name":     "Ada Moreau",
		"signer_title":    "Managing Director",
		"signature_image": "data:image/png;base64," + strings.Repeat("A", 120),
	}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("sign status = %d, body %s", rec.Code, rec.Body.String())
	}
	signed := decode(t, rec)
	if signed["success"] != true || signed["signed_at"] == nil {
		t.Fatalf("sign response = %v", signed)
	}

	// Signing consumes the link.
	rec = ts.do(t, http.MethodGet, "/contracts/sign/"+signingToken, nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("consumed signing link status = %d, want 404", rec.Code)
	}

	// The admin detail carries the complete trail.
	rec = ts.do(t, http.MethodGet, "/admin/contracts/"+id, nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin get status = %d", rec.Code)
	}
	detail := decode(t, rec)
	audit, _ := detail["audit"].([]any)
	if len(audit) != 6 {
		t.Fatalf("audit trail length = %d, want 6 (created, sent_to_reviewer, reviewed, approved, viewed, signed)", len(audit))
	}
}

func TestExpiredLinkReturnsGone(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createContract(t, false)

	rec := ts.do(t, http.MethodPost, "/admin/contracts/"+id+"/send_to_signer", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("send_to_signer status = %d", rec.Code)
	}
	signingToken, _ := decode(t, rec)["token"].(string)

	ts.clk.now = ts.clk.now.Add(31 * 24 * time.Hour)

	rec = ts.do(t, http.MethodGet, "/contracts/sign/"+signingToken, nil, false)
	if rec.Code != http.StatusGone {
		t.Fatalf("expired link status = %d, want 410", rec.Code)
	}
}

func TestSignValidationOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createContract(t, false)

	rec := ts.do(t, http.MethodPost, "/admin/contracts/"+id+"/send_to_signer", nil, true)
	signingToken, _ := decode(t, rec)["token"].(string)

	rec = ts.do(t, http.MethodPost, "/contracts/sign/"+signingToken, map[string]any{
		"signer_name":     "",
		"signature_image": strings.Repeat("A", 120),
	}, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name status = %d, want 400", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/contracts/sign/"+signingToken, map[string]any{
		"signer_name":     "Ada Moreau",
		"signature_image": strings.Repeat("A", 99),
	}, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short signature status = %d, want 400", rec.Code)
	}

	// Failed attempts leave the link usable.
	rec = ts.do(t, http.MethodGet, "/contracts/sign/"+signingToken, nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("link after rejected sign status = %d, want 200", rec.Code)
	}
}

func TestDraftGuards(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createContract(t, false)

	// Invalid terms are rejected up front.
	bad := createPayload(false)
	bad["annual_price"] = -5
	rec := ts.do(t, http.MethodPost, "/admin/contracts", bad, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative price status = %d, want 400", rec.Code)
	}

	// Once sent, the draft is frozen.
	if rec := ts.do(t, http.MethodPost, "/admin/contracts/"+id+"/send_to_signer", nil, true); rec.Code != http.StatusOK {
		t.Fatalf("send status = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodPut, "/admin/contracts/"+id, createPayload(false), true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("update sent contract status = %d, want 409", rec.Code)
	}
}

func TestCancelAndLinkRevocation(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createContract(t, false)

	rec := ts.do(t, http.MethodPost, "/admin/contracts/"+id+"/send_to_signer", nil, true)
	signingToken, _ := decode(t, rec)["token"].(string)

	rec = ts.do(t, http.MethodPost, "/admin/contracts/"+id+"/cancel", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["status"] != "cancelled" {
		t.Fatal("cancel should report cancelled status")
	}

	rec = ts.do(t, http.MethodGet, "/contracts/sign/"+signingToken, nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("link after cancel status = %d, want 404", rec.Code)
	}

	// Cancelling twice is a conflict, not a success.
	rec = ts.do(t, http.MethodPost, "/admin/contracts/"+id+"/cancel", nil, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat cancel status = %d, want 409", rec.Code)
	}
}

func TestDeleteContract(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createContract(t, false)

	rec := ts.do(t, http.MethodDelete, "/admin/contracts/"+id, nil, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, "/admin/contracts/"+id, nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestContractDocument(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createContract(t, false)

	rec := ts.do(t, http.MethodGet, "/admin/contracts/"+id+"/document", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("document status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q, want text/html", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ada Moreau") || !strings.Contains(body, "professional") {
		t.Fatal("document should include party and terms")
	}
}

func TestUnknownTokenIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/contracts/review/"+strings.Repeat("f", 64), nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown reviewer token status = %d, want 404", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, "/contracts/sign/"+strings.Repeat("0", 64), nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown signing token status = %d, want 404", rec.Code)
	}
}
