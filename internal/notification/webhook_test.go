package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestWebhookDispatcherDelivers(t *testing.T) {
	var received map[string]any
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer endpoint.Close()

	d := NewWebhookDispatcher(endpoint.URL, zap.NewNop())
	err := d.DispatchSigningInvite(context.Background(), SigningInvite{
		ContractID: "42",
		Recipient:  "ada@ensemble.example",
		SignerName: "Ada Moreau",
		Token:      "tok",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if received["type"] != "signing_invite" {
		t.Fatalf("type = %v", received["type"])
	}
	data, _ := received["data"].(map[string]any)
	if data["recipient"] != "ada@ensemble.example" || data["token"] != "tok" {
		t.Fatalf("data = %v", data)
	}
}

func TestWebhookDispatcherErrorStatus(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer endpoint.Close()

	d := NewWebhookDispatcher(endpoint.URL, zap.NewNop())
	err := d.DispatchReviewInvite(context.Background(), ReviewInvite{ContractID: "7"})
	if err == nil {
		t.Fatal("5xx from the endpoint should surface as an error")
	}
}
