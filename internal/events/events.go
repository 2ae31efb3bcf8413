package events

// Contract lifecycle event types consumed by the surrounding system
// (document generation, outbound email, reporting).
const (
	EventContractSent      = "contract.sent"
	EventContractReviewed  = "contract.reviewed"
	EventContractApproved  = "contract.approved"
	EventContractSigned    = "contract.signed"
	EventContractCancelled = "contract.cancelled"
)

// ContractPayload captures the minimal data consumers need to pick up a
// lifecycle event.
type ContractPayload struct {
	ContractID  string `json:"contract_id"`
	Status      string `json:"status"`
	SignerEmail string `json:"signer_email,omitempty"`
	SignedAt    string `json:"signed_at,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p ContractPayload) ToMap() map[string]any {
	payload := map[string]any{
		"contract_id": p.ContractID,
		"status":      p.Status,
	}
	if p.SignerEmail != "" {
		payload["signer_email"] = p.SignerEmail
	}
	if p.SignedAt != "" {
		payload["signed_at"] = p.SignedAt
	}
	return payload
}
