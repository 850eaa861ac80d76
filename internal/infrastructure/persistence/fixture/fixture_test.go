package fixture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/infrastructure/security"
)

func TestFixtureSeedsState(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	user, err := store.FetchUser(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 25.0, user.Points)
	assert.Equal(t, 1, user.QuotaS)
	assert.Equal(t, 2, user.QuotaA)

	sessions, err := store.FetchSessions(ctx, "agent-1", 50)
	require.NoError(t, err)
	assert.Len(t, sessions, 8)
	for _, s := range sessions {
		assert.Equal(t, string(radar.StatusNew), s.Status)
		assert.NotEmpty(t, s.ID)
	}
}

func findSessionByGrade(t *testing.T, store *Store, identity, grade string) string {
	t.Helper()
	sessions, err := store.FetchSessions(context.Background(), identity, 50)
	require.NoError(t, err)
	for _, s := range sessions {
		if s.Grade == grade {
			return s.ID
		}
	}
	t.Fatalf("no %s-grade session in fixture seed", grade)
	return ""
}

func TestFixturePurchaseSettlesPointsAndQuota(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	sGrade := findSessionByGrade(t, store, "agent-1", "S")

	result, err := store.PurchaseLead(ctx, "agent-1", sGrade, radar.PriceOf(radar.GradeS), radar.GradeS)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.True(t, result.UsedQuota)
	assert.NotEmpty(t, result.PurchaseID)
	require.NoError(t, result.Validate())

	// Both sides of the balance move: points pay the price and the quota
	// counter is consumed on top.
	user, err := store.FetchUser(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 0, user.QuotaS)
	assert.Equal(t, 25.0-radar.PriceOf(radar.GradeS), user.Points)

	// The session is gone from the unpurchased list and shows as a purchase.
	remaining, err := store.FetchSessions(ctx, "agent-1", 50)
	require.NoError(t, err)
	assert.Len(t, remaining, 7)

	purchases, err := store.FetchPurchases(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, result.PurchaseID, purchases[0].ID)
	assert.Equal(t, sGrade, purchases[0].SessionID)
}

func TestFixturePurchaseSpendsPointsOnly(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	bGrade := findSessionByGrade(t, store, "agent-1", "B")

	result, err := store.PurchaseLead(ctx, "agent-1", bGrade, radar.PriceOf(radar.GradeB), radar.GradeB)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.False(t, result.UsedQuota)

	user, err := store.FetchUser(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 25.0-radar.PriceOf(radar.GradeB), user.Points)
	assert.Equal(t, 1, user.QuotaS)
	assert.Equal(t, 2, user.QuotaA)
}

func TestFixturePurchaseRejectsExhaustedQuota(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	sGrade := findSessionByGrade(t, store, "agent-1", "S")

	store.mu.Lock()
	store.states["agent-1"].quotaS = 0
	store.mu.Unlock()

	result, err := store.PurchaseLead(ctx, "agent-1", sGrade, radar.PriceOf(radar.GradeS), radar.GradeS)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "quota exhausted", result.Error)

	user, err := store.FetchUser(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 25.0, user.Points, "a rejected purchase moves no points")
}

func TestFixturePurchaseRejectsInsufficientPoints(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	bGrade := findSessionByGrade(t, store, "agent-1", "B")

	store.mu.Lock()
	store.states["agent-1"].points = 1
	store.mu.Unlock()

	result, err := store.PurchaseLead(ctx, "agent-1", bGrade, radar.PriceOf(radar.GradeB), radar.GradeB)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "insufficient points", result.Error)
}

func TestFixturePurchaseRejectsPriceMismatch(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	bGrade := findSessionByGrade(t, store, "agent-1", "B")

	result, err := store.PurchaseLead(ctx, "agent-1", bGrade, 999, radar.GradeB)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "price mismatch", result.Error)

	user, err := store.FetchUser(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 25.0, user.Points)
}

func TestFixturePurchaseRejectsDoubleBuy(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	sessions, err := store.FetchSessions(ctx, "agent-1", 50)
	require.NoError(t, err)
	target := sessions[0].ID
	grade := radar.Grade(sessions[0].Grade)

	first, err := store.PurchaseLead(ctx, "agent-1", target, radar.PriceOf(grade), grade)
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := store.PurchaseLead(ctx, "agent-1", target, radar.PriceOf(grade), grade)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, "lead unavailable", second.Error)
}

func TestFixturePurchaseUnknownSession(t *testing.T) {
	store := NewStore(nil)

	result, err := store.PurchaseLead(context.Background(), "agent-1", "no-such-session", radar.PriceOf(radar.GradeB), radar.GradeB)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "lead unavailable", result.Error)
}

func TestFixtureStateIsPerIdentity(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	sessions, err := store.FetchSessions(ctx, "agent-1", 50)
	require.NoError(t, err)
	grade := radar.Grade(sessions[0].Grade)
	_, err = store.PurchaseLead(ctx, "agent-1", sessions[0].ID, radar.PriceOf(grade), grade)
	require.NoError(t, err)

	other, err := store.FetchSessions(ctx, "agent-2", 50)
	require.NoError(t, err)
	assert.Len(t, other, 8, "another identity's seed is unaffected")
}

func TestFixtureFindAccount(t *testing.T) {
	store := NewStore(nil)

	account, err := store.FindAccount(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "agent-1", account.ID)
	assert.Equal(t, "agent", account.Role)
	assert.True(t, security.CheckPassword(account.PasswordHash, DemoPassword))
	assert.False(t, security.CheckPassword(account.PasswordHash, "wrong"))
}

func TestFixtureEvents(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	events, err := store.FetchEvents(ctx, "agent-1", time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	for _, e := range events {
		assert.NotEmpty(t, e.SessionID)
		assert.NotEmpty(t, e.Verb)
	}
}
