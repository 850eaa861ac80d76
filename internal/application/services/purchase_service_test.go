package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/repositories"
)

func newPurchaseEnv(t *testing.T, source *stubSource, gateway *stubGateway) (*PurchaseService, *SnapshotService) {
	t.Helper()
	snapshots, mode, _ := newSnapshotEnv(t, source)
	logger := newTestLogger(t)
	svc := NewPurchaseService(snapshots, map[string]repositories.PurchaseGateway{
		ModeMock: gateway,
	}, mode, nil, nil, logger)
	return svc, snapshots
}

func successResult(usedQuota bool) *radar.PurchaseResult {
	return &radar.PurchaseResult{
		Success:        true,
		UsedQuota:      usedQuota,
		PurchaseID:     uuid.NewString(),
		ConversationID: uuid.NewString(),
	}
}

func TestBuyLeadSuccessWithQuota(t *testing.T) {
	source := defaultStubSource()
	source.user.Points = radar.PriceOf(radar.GradeS)
	gateway := &stubGateway{result: successResult(true)}
	svc, _ := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-s")
	require.NoError(t, err)
	require.True(t, outcome.Success)
	assert.Equal(t, PurchaseOK, outcome.Code)
	assert.Equal(t, 1, gateway.callCount())
	assert.Equal(t, radar.PriceOf(radar.GradeS), gateway.sentCost())

	// Points cover the price and the quota counter is consumed on top.
	assert.Equal(t, 0, outcome.Snapshot.User.Quota.S)
	assert.Equal(t, 0.0, outcome.Snapshot.User.Points)

	purchased := outcome.Snapshot.FindLead(gateway.result.PurchaseID)
	require.NotNil(t, purchased, "lead id should be rewritten to the purchase id")
	assert.Equal(t, radar.StatusPurchased, purchased.Status)
	assert.Equal(t, "sess-s", purchased.SessionID)
	assert.Equal(t, gateway.result.ConversationID, purchased.ConversationID)
	require.NotNil(t, purchased.RemainingHours)
	assert.Equal(t, radar.ProtectionHoursOf(radar.GradeS), *purchased.RemainingHours)
}

func TestBuyLeadSuccessWithPoints(t *testing.T) {
	source := defaultStubSource()
	gateway := &stubGateway{result: successResult(false)}
	svc, _ := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-b")
	require.NoError(t, err)
	require.True(t, outcome.Success)

	assert.Equal(t, 25.0-radar.PriceOf(radar.GradeB), outcome.Snapshot.User.Points)
	assert.Equal(t, 1, outcome.Snapshot.User.Quota.S, "non-exclusive grades leave quota alone")
	assert.Equal(t, radar.PriceOf(radar.GradeB), gateway.sentCost())
}

func TestBuyLeadUnavailable(t *testing.T) {
	source := defaultStubSource()
	gateway := &stubGateway{result: successResult(true)}
	svc, _ := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "no-such-lead")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, PurchaseLeadUnavail, outcome.Code)
	assert.Equal(t, 0, gateway.callCount())
}

func TestBuyLeadQuotaExhausted(t *testing.T) {
	source := defaultStubSource()
	source.user.QuotaS = 0
	gateway := &stubGateway{result: successResult(true)}
	svc, _ := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-s")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, PurchaseQuotaExhausted, outcome.Code)
	assert.Equal(t, 0, gateway.callCount(), "rejection must happen before the remote call")
}

func TestBuyLeadInsufficientPoints(t *testing.T) {
	source := defaultStubSource()
	source.user.Points = 1
	gateway := &stubGateway{result: successResult(false)}
	svc, _ := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-b")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, PurchaseNoPoints, outcome.Code)
	assert.Equal(t, 0, gateway.callCount())
}

func TestBuyLeadRequiresPointsEvenWithQuota(t *testing.T) {
	// Quota grants access to exclusive grades but never replaces the price.
	source := defaultStubSource()
	source.user.Points = radar.PriceOf(radar.GradeS) - 1
	gateway := &stubGateway{result: successResult(true)}
	svc, _ := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-s")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, PurchaseNoPoints, outcome.Code)
	assert.Equal(t, 0, gateway.callCount())
}

func TestBuyLeadRollsBackOnGatewayError(t *testing.T) {
	source := defaultStubSource()
	gateway := &stubGateway{err: errors.New("connection refused")}
	svc, snapshots := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-b")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, PurchaseNetworkError, outcome.Code)

	restored, err := snapshots.LoadSnapshot(context.Background(), "agent-1", false)
	require.NoError(t, err)
	assert.Equal(t, 25.0, restored.User.Points, "optimistic deduction must be rolled back")
	lead := restored.FindLead("sess-b")
	require.NotNil(t, lead)
	assert.Equal(t, radar.StatusNew, lead.Status)
}

func TestBuyLeadRollsBackOnBackendRejection(t *testing.T) {
	source := defaultStubSource()
	gateway := &stubGateway{result: &radar.PurchaseResult{Success: false, Error: "lead unavailable"}}
	svc, snapshots := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-s")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, PurchaseLeadUnavail, outcome.Code)

	restored, err := snapshots.LoadSnapshot(context.Background(), "agent-1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.User.Quota.S, "quota must be restored after rejection")
	assert.Equal(t, 25.0, restored.User.Points, "points must be restored after rejection")
}

func TestBuyLeadRejectsInvalidBackendResponse(t *testing.T) {
	source := defaultStubSource()
	gateway := &stubGateway{result: &radar.PurchaseResult{Success: true, PurchaseID: "not-a-uuid"}}
	svc, snapshots := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-s")
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, PurchaseNetworkError, outcome.Code)

	restored, err := snapshots.LoadSnapshot(context.Background(), "agent-1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.User.Quota.S)
}

func TestBuyLeadReconcilesQuotaMismatch(t *testing.T) {
	// The orchestrator consumes quota for an S-grade lead but the backend
	// reports it did not; the counter is given back while the points stay
	// spent.
	source := defaultStubSource()
	gateway := &stubGateway{result: successResult(false)}
	svc, _ := newPurchaseEnv(t, source, gateway)

	outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-s")
	require.NoError(t, err)
	require.True(t, outcome.Success)

	assert.Equal(t, 1, outcome.Snapshot.User.Quota.S, "quota restored")
	assert.Equal(t, 25.0-radar.PriceOf(radar.GradeS), outcome.Snapshot.User.Points)
}

func TestBuyLeadRejectsConcurrentPurchase(t *testing.T) {
	source := defaultStubSource()
	gateway := &stubGateway{result: successResult(true), delay: 150 * time.Millisecond}
	svc, _ := newPurchaseEnv(t, source, gateway)

	var wg sync.WaitGroup
	outcomes := make([]*PurchaseOutcome, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := svc.BuyLead(context.Background(), "agent-1", "sess-s")
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	codes := map[string]int{}
	for _, o := range outcomes {
		require.NotNil(t, o)
		codes[o.Code]++
	}
	assert.Equal(t, 1, codes[PurchaseOK], "exactly one purchase should complete")
	assert.Equal(t, 1, codes[PurchaseInFlight], "the concurrent attempt should be rejected")
	assert.Equal(t, 1, gateway.callCount())
}
