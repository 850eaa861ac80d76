// Package repositories defines the data source interfaces for the radar.
// They abstract persistence so the services stay decoupled from whichever
// backend (live database or fixture) is active for the current mode.
package repositories

import (
	"context"
	"time"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
)

// SnapshotSource fetches the raw rows that make up one agent's snapshot.
// Implementations return untrusted rows; validation happens in the schema
// layer, not here.
type SnapshotSource interface {
	FetchUser(ctx context.Context, identity string) (*radar.RawUserRow, error)
	FetchSessions(ctx context.Context, identity string, limit int) ([]radar.RawLead, error)
	FetchPurchases(ctx context.Context, identity string) ([]radar.RawLead, error)
	FetchListings(ctx context.Context, identity string) ([]radar.RawListing, error)
	FetchFeed(ctx context.Context, identity string, limit int) ([]radar.RawFeedPost, error)
}

// PurchaseGateway executes the remote purchase operation. The call is atomic
// on the backend side: point deduction, quota consumption, lead ownership
// transfer, and conversation creation succeed or fail together. The cost is
// the price the caller validated against; the backend treats its stored
// grade and price as authoritative and rejects on mismatch.
type PurchaseGateway interface {
	PurchaseLead(ctx context.Context, identity, sessionID string, cost float64, grade radar.Grade) (*radar.PurchaseResult, error)
}

// EventRow is one raw engagement event used for traffic statistics.
type EventRow struct {
	SessionID  string
	PropertyID string
	Verb       string
	CreatedAt  time.Time
}

// StatsSource reads engagement events for the ops statistics aggregation.
type StatsSource interface {
	FetchEvents(ctx context.Context, identity string, since time.Time) ([]EventRow, error)
}

// UserAccountRow is the credential row used by token issuance.
type UserAccountRow struct {
	ID           string
	PasswordHash string
	Role         string
}

// AccountSource reads agent accounts for authentication.
type AccountSource interface {
	FindAccount(ctx context.Context, identity string) (*UserAccountRow, error)
}
