package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/repositories"
	"github.com/maihouses/leadradar-go/internal/infrastructure/messaging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// Purchase outcome codes. Rejections that mean "this lead is gone" must stay
// distinct from transport failures: the first removes the bubble, the second
// leaves it and asks the user to retry.
const (
	PurchaseOK             = "ok"
	PurchaseInFlight       = "purchase_in_flight"
	PurchaseLeadUnavail    = "lead_unavailable"
	PurchaseQuotaExhausted = "quota_exhausted"
	PurchaseNoPoints       = "insufficient_points"
	PurchaseNetworkError   = "network_error"
	PurchaseRejected       = "rejected"
)

// PurchaseOutcome is what the orchestrator reports back to the handler.
type PurchaseOutcome struct {
	Success  bool                  `json:"success"`
	Code     string                `json:"code"`
	Error    string                `json:"error,omitempty"`
	Lead     *radar.Lead           `json:"lead,omitempty"`
	Result   *radar.PurchaseResult `json:"result,omitempty"`
	Snapshot *radar.AppData        `json:"snapshot,omitempty"`
}

// PurchaseService orchestrates lead purchases: local validation, optimistic
// snapshot mutation, the remote call, and commit or rollback.
type PurchaseService struct {
	snapshots    *SnapshotService
	gateways     map[string]repositories.PurchaseGateway
	mode         *ModeService
	broadcaster  *messaging.SSEBroadcaster
	notification *NotificationService
	logger       *logging.ChanneledLogger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewPurchaseService creates a new purchase service.
func NewPurchaseService(snapshots *SnapshotService, gateways map[string]repositories.PurchaseGateway, mode *ModeService, broadcaster *messaging.SSEBroadcaster, notification *NotificationService, logger *logging.ChanneledLogger) *PurchaseService {
	return &PurchaseService{
		snapshots:    snapshots,
		gateways:     gateways,
		mode:         mode,
		broadcaster:  broadcaster,
		notification: notification,
		logger:       logger,
		inFlight:     make(map[string]bool),
	}
}

// BuyLead purchases the given lead for the identity. One purchase per
// identity runs at a time; a second call while the first is pending is
// rejected rather than queued.
func (s *PurchaseService) BuyLead(ctx context.Context, identity, leadID string) (*PurchaseOutcome, error) {
	if !s.acquire(identity) {
		s.logger.Purchase().Warn("Concurrent purchase rejected", "identity", identity, "leadId", leadID)
		return &PurchaseOutcome{Code: PurchaseInFlight, Error: "a purchase is already in progress"}, nil
	}
	defer s.release(identity)

	start := time.Now()
	mode := s.mode.Get()

	snapshot, err := s.snapshots.LoadSnapshot(ctx, identity, false)
	if err != nil {
		return nil, err
	}

	lead := snapshot.FindLead(leadID)
	if lead == nil || !lead.IsUnpurchased() {
		s.logger.Purchase().Info("Purchase rejected, lead not purchasable", "identity", identity, "leadId", leadID)
		return &PurchaseOutcome{Code: PurchaseLeadUnavail, Error: "lead unavailable"}, nil
	}

	if validation := radar.ValidateQuota(lead, &snapshot.User); !validation.Valid {
		s.logger.Purchase().Info("Purchase rejected by quota check", "identity", identity, "leadId", leadID, "grade", lead.Grade, "detail", validation.Err)
		return &PurchaseOutcome{Code: PurchaseQuotaExhausted, Error: validation.Err}, nil
	}

	// Every purchase costs points; quota-limited grades consume a quota
	// counter on top of the price, never instead of it.
	price := radar.PriceOf(lead.Grade)
	usesQuota := radar.IsQuotaLimited(lead.Grade)
	if snapshot.User.Points < price {
		s.logger.Purchase().Info("Purchase rejected, insufficient points", "identity", identity, "leadId", leadID, "points", snapshot.User.Points, "price", price)
		return &PurchaseOutcome{Code: PurchaseNoPoints, Error: "insufficient points"}, nil
	}

	// The prior snapshot is retained untouched; it is the rollback target.
	prior := snapshot
	optimistic := prior.Clone()
	applyOptimisticPurchase(optimistic, leadID, price, usesQuota)
	s.snapshots.ReplaceSnapshot(identity, mode, optimistic)

	gateway, ok := s.gateways[mode]
	if !ok {
		s.snapshots.ReplaceSnapshot(identity, mode, prior)
		return nil, fmt.Errorf("no purchase gateway for mode %q", mode)
	}

	callCtx, cancel := context.WithTimeout(ctx, config.PurchaseCallTimeout)
	defer cancel()

	sessionID := lead.SessionID
	if sessionID == "" {
		sessionID = lead.ID
	}

	result, err := gateway.PurchaseLead(callCtx, identity, sessionID, price, lead.Grade)
	if err != nil {
		s.snapshots.ReplaceSnapshot(identity, mode, prior)
		s.logger.Purchase().Error("Purchase call failed, rolled back", "error", err.Error(), "identity", identity, "leadId", leadID, "duration", time.Since(start))
		return &PurchaseOutcome{Code: PurchaseNetworkError, Error: "purchase call failed, please retry"}, nil
	}

	if verr := result.Validate(); verr != nil {
		s.snapshots.ReplaceSnapshot(identity, mode, prior)
		s.logger.Purchase().Error("Purchase response failed validation, rolled back", "error", verr.Error(), "identity", identity, "leadId", leadID)
		return &PurchaseOutcome{Code: PurchaseNetworkError, Error: "purchase response invalid, please retry"}, nil
	}

	if !result.Success {
		s.snapshots.ReplaceSnapshot(identity, mode, prior)
		code := classifyRejection(result.Error)
		s.logger.Purchase().Info("Purchase rejected by backend, rolled back", "identity", identity, "leadId", leadID, "code", code, "detail", result.Error)
		return &PurchaseOutcome{Code: code, Error: result.Error, Result: result}, nil
	}

	// Commit: rewrite the optimistic lead with the authoritative ids and the
	// backend's quota decision, then install the final snapshot.
	final := optimistic.Clone()
	finalizePurchase(final, leadID, result, usesQuota)
	s.snapshots.ReplaceSnapshot(identity, mode, final)

	purchased := final.FindLead(result.PurchaseID)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastLeadPurchased(identity, sessionID, result.PurchaseID)
		s.broadcaster.BroadcastSnapshotUpdated(identity, "purchase")
	}
	if s.notification != nil && purchased != nil {
		go s.notification.NotifyPurchase(identity, purchased.Clone(), result)
	}

	s.logger.Purchase().Info("Purchase completed", "identity", identity, "leadId", leadID, "purchaseId", result.PurchaseID, "usedQuota", result.UsedQuota, "duration", time.Since(start))
	s.logger.Economy().Info("Balance changed", "identity", identity, "points", final.User.Points, "quotaS", final.User.Quota.S, "quotaA", final.User.Quota.A)

	return &PurchaseOutcome{
		Success:  true,
		Code:     PurchaseOK,
		Lead:     purchased,
		Result:   result,
		Snapshot: final,
	}, nil
}

func (s *PurchaseService) acquire(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[identity] {
		return false
	}
	s.inFlight[identity] = true
	return true
}

func (s *PurchaseService) release(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, identity)
}

// applyOptimisticPurchase mutates the snapshot as if the purchase already
// succeeded: status flip, full protection window, balance deduction.
func applyOptimisticPurchase(data *radar.AppData, leadID string, price float64, usesQuota bool) {
	lead := data.FindLead(leadID)
	if lead == nil {
		return
	}

	now := time.Now().UTC()
	hours := radar.ProtectionHoursOf(lead.Grade)
	lead.Status = radar.StatusPurchased
	lead.PurchasedAt = &now
	lead.RemainingHours = &hours
	lead.NotificationStatus = radar.NotificationPending

	data.User.Points -= price
	if usesQuota {
		switch lead.Grade {
		case radar.GradeS:
			data.User.Quota.S--
		case radar.GradeA:
			data.User.Quota.A--
		}
	}
}

// finalizePurchase reconciles the optimistic state with the backend result.
// The lead's id becomes the purchase id. Points are spent on every purchase,
// so only the quota counter can disagree with the optimistic guess.
func finalizePurchase(data *radar.AppData, leadID string, result *radar.PurchaseResult, guessedQuota bool) {
	lead := data.FindLead(leadID)
	if lead == nil {
		return
	}

	lead.ID = result.PurchaseID
	lead.ConversationID = result.ConversationID

	if result.UsedQuota != guessedQuota {
		if result.UsedQuota {
			switch lead.Grade {
			case radar.GradeS:
				data.User.Quota.S--
			case radar.GradeA:
				data.User.Quota.A--
			}
		} else {
			switch lead.Grade {
			case radar.GradeS:
				data.User.Quota.S++
			case radar.GradeA:
				data.User.Quota.A++
			}
		}
	}
}

// classifyRejection maps a backend rejection message onto an outcome code.
func classifyRejection(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "unavailable"), strings.Contains(lower, "not found"), strings.Contains(lower, "already"):
		return PurchaseLeadUnavail
	case strings.Contains(lower, "point"), strings.Contains(lower, "balance"):
		return PurchaseNoPoints
	case strings.Contains(lower, "quota"):
		return PurchaseQuotaExhausted
	default:
		return PurchaseRejected
	}
}
