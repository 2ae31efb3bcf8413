package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/crescendohq/crescendo/internal/observability/tracing"
	"go.uber.org/zap"
)

// WebhookDispatcher POSTs invites to an external notification endpoint,
// typically the mailer bridge. Token values ride in the payload so the
// bridge can build the signing links; the payload must therefore only
// travel to the configured trusted endpoint.
type WebhookDispatcher struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewWebhookDispatcher(url string, log *zap.Logger) Dispatcher {
	return &WebhookDispatcher{
		url:    url,
		client: tracing.WrapHTTPClient(&http.Client{Timeout: 10 * time.Second}),
		log:    log.Named("notification.webhook"),
	}
}

func (d *WebhookDispatcher) DispatchReviewInvite(ctx context.Context, invite ReviewInvite) error {
	return d.post(ctx, "review_invite", map[string]any{
		"contract_id":   invite.ContractID,
		"recipient":     invite.Recipient,
		"reviewer_name": invite.ReviewerName,
		"token":         invite.Token,
	})
}

func (d *WebhookDispatcher) DispatchSigningInvite(ctx context.Context, invite SigningInvite) error {
	return d.post(ctx, "signing_invite", map[string]any{
		"contract_id": invite.ContractID,
		"recipient":   invite.Recipient,
		"signer_name": invite.SignerName,
		"token":       invite.Token,
	})
}

func (d *WebhookDispatcher) post(ctx context.Context, kind string, payload map[string]any) error {
	body, err := json.Marshal(map[string]any{
		"type": kind,
		"data": payload,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("deliver %s: endpoint returned %d", kind, resp.StatusCode)
	}
	d.log.Info("invite delivered",
		zap.String("type", kind),
		zap.String("contract_id", fmt.Sprint(payload["contract_id"])),
	)
	return nil
}
