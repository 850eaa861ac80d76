package radar

import (
	"errors"

	"github.com/google/uuid"
)

// PurchaseResult is the response shape of the remote purchase operation.
// Every field is untrusted until Validate has passed.
type PurchaseResult struct {
	Success        bool   `json:"success"`
	UsedQuota      bool   `json:"used_quota,omitempty"`
	PurchaseID     string `json:"purchase_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

var (
	// ErrInvalidPurchaseResult marks a purchase response whose shape could
	// not be trusted. It is always treated as a failure, never as success.
	ErrInvalidPurchaseResult = errors.New("invalid purchase response")
)

// Validate checks the response shape. A successful result must carry a
// well-formed purchase id; optional ids must parse when present.
func (r *PurchaseResult) Validate() error {
	if r == nil {
		return ErrInvalidPurchaseResult
	}
	if r.Success {
		if r.PurchaseID == "" {
			return ErrInvalidPurchaseResult
		}
		if _, err := uuid.Parse(r.PurchaseID); err != nil {
			return ErrInvalidPurchaseResult
		}
	}
	if r.ConversationID != "" {
		if _, err := uuid.Parse(r.ConversationID); err != nil {
			return ErrInvalidPurchaseResult
		}
	}
	return nil
}
