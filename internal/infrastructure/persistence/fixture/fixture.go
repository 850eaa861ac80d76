// Package fixture provides the in-memory data source used in mock mode. It
// behaves like the live backend, including purchase bookkeeping, so the rest
// of the engine cannot tell which mode is active.
package fixture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/repositories"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/security"
)

// Interface assertions.
var (
	_ repositories.SnapshotSource  = (*Store)(nil)
	_ repositories.PurchaseGateway = (*Store)(nil)
	_ repositories.StatsSource     = (*Store)(nil)
	_ repositories.AccountSource   = (*Store)(nil)
)

// DemoPassword is the fixture account password accepted in mock mode.
const DemoPassword = "demo"

type identityState struct {
	points    float64
	quotaS    int
	quotaA    int
	sessions  []sessionRow
	purchases []purchaseRow
}

type sessionRow struct {
	id        string
	grade     radar.Grade
	visit     int
	prop      string
	createdAt time.Time
	purchased bool
}

type purchaseRow struct {
	id             string
	sessionID      string
	grade          radar.Grade
	price          float64
	usedQuota      bool
	conversationID string
	purchasedAt    time.Time
}

// Store is the in-memory fixture backend. State is seeded lazily per identity
// and survives for the process lifetime, so a purchase in mock mode is still
// visible on the next snapshot fetch.
type Store struct {
	mu           sync.Mutex
	states       map[string]*identityState
	demoHash     string
	demoHashOnce sync.Once
	logger       *logging.ChanneledLogger
}

// NewStore creates the fixture backend.
func NewStore(logger *logging.ChanneledLogger) *Store {
	if logger != nil {
		logger.System().Info("Initializing fixture data source")
	}
	return &Store{
		states: make(map[string]*identityState),
		logger: logger,
	}
}

var seedGrades = []radar.Grade{
	radar.GradeS, radar.GradeA, radar.GradeA, radar.GradeB,
	radar.GradeB, radar.GradeC, radar.GradeC, radar.GradeF,
}

var seedProps = []string{
	"Maple Grove Townhouse",
	"Riverside Loft 2B",
	"Sunset Hills Bungalow",
	"Cedar Court Duplex",
}

func (s *Store) state(identity string) *identityState {
	if st, ok := s.states[identity]; ok {
		return st
	}

	st := &identityState{
		points: 25,
		quotaS: 1,
		quotaA: 2,
	}
	now := time.Now().UTC()
	for i, g := range seedGrades {
		st.sessions = append(st.sessions, sessionRow{
			id:        security.GenerateULID(),
			grade:     g,
			visit:     1 + (i % 4),
			prop:      seedProps[i%len(seedProps)],
			createdAt: now.Add(-time.Duration(i*37) * time.Minute),
		})
	}
	s.states[identity] = st

	if s.logger != nil {
		s.logger.System().Debug("Seeded fixture state", "identity", identity, "sessions", len(st.sessions))
	}
	return st
}

// FetchUser returns the identity's fixture balance.
func (s *Store) FetchUser(ctx context.Context, identity string) (*radar.RawUserRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(identity)
	return &radar.RawUserRow{Points: st.points, QuotaS: st.quotaS, QuotaA: st.quotaA}, nil
}

// FetchSessions returns unpurchased fixture sessions.
func (s *Store) FetchSessions(ctx context.Context, identity string, limit int) ([]radar.RawLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(identity)
	var leads []radar.RawLead
	for _, row := range st.sessions {
		if row.purchased || len(leads) >= limit {
			continue
		}
		created := row.createdAt
		leads = append(leads, radar.RawLead{
			ID:        row.id,
			Grade:     string(row.grade),
			Visit:     row.visit,
			Prop:      row.prop,
			Status:    string(radar.StatusNew),
			SessionID: row.id,
			CreatedAt: &created,
		})
	}
	return leads, nil
}

// FetchPurchases returns the identity's fixture purchases.
func (s *Store) FetchPurchases(ctx context.Context, identity string) ([]radar.RawLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(identity)
	var leads []radar.RawLead
	for _, pur := range st.purchases {
		var session *sessionRow
		for i := range st.sessions {
			if st.sessions[i].id == pur.sessionID {
				session = &st.sessions[i]
				break
			}
		}
		if session == nil {
			continue
		}
		purchasedAt := pur.purchasedAt
		leads = append(leads, radar.RawLead{
			ID:                 pur.id,
			Grade:              string(pur.grade),
			Visit:              session.visit,
			Prop:               session.prop,
			Price:              pur.price,
			Status:             string(radar.StatusPurchased),
			PurchasedAt:        &purchasedAt,
			SessionID:          pur.sessionID,
			NotificationStatus: string(radar.NotificationSkipped),
			ConversationID:     pur.conversationID,
		})
	}
	return leads, nil
}

// FetchListings returns static fixture listings.
func (s *Store) FetchListings(ctx context.Context, identity string) ([]radar.RawListing, error) {
	now := time.Now().UTC()
	earlier := now.Add(-9 * 24 * time.Hour)
	return []radar.RawListing{
		{
			PublicID:  "fx-listing-1",
			Title:     "Maple Grove Townhouse",
			Tags:      []string{"3bd", "garden"},
			View:      142,
			Click:     38,
			Fav:       11,
			CreatedAt: &earlier,
		},
		{
			PublicID:  "fx-listing-2",
			Title:     "Riverside Loft 2B",
			Tags:      []string{"2bd", "river view"},
			View:      96,
			Click:     21,
			Fav:       7,
			CreatedAt: &now,
		},
	}, nil
}

// FetchFeed returns static fixture community posts.
func (s *Store) FetchFeed(ctx context.Context, identity string, limit int) ([]radar.RawFeedPost, error) {
	now := time.Now().UTC()
	posts := []radar.RawFeedPost{
		{
			ID:            "fx-post-1",
			Title:         "Open house this Saturday at Maple Grove",
			Meta:          "Riverside",
			Body:          "Doors open 10am, coffee provided.",
			CommunityName: "Riverside",
			LikesCount:    12,
			CommentsCount: 4,
			CreatedAt:     &now,
		},
		{
			ID:            "fx-post-2",
			Title:         "Market update: inventory up 8% this month",
			Meta:          "Riverside",
			Body:          "More listings are hitting the market than any month this year.",
			CommunityName: "Riverside",
			LikesCount:    31,
			CommentsCount: 9,
			CreatedAt:     &now,
		},
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// purchaseDelay simulates the latency of the live purchase RPC.
const purchaseDelay = 120 * time.Millisecond

// PurchaseLead mirrors the live gateway's semantics against fixture state.
func (s *Store) PurchaseLead(ctx context.Context, identity, sessionID string, cost float64, grade radar.Grade) (*radar.PurchaseResult, error) {
	select {
	case <-time.After(purchaseDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(identity)

	var session *sessionRow
	for i := range st.sessions {
		if st.sessions[i].id == sessionID {
			session = &st.sessions[i]
			break
		}
	}
	if session == nil || session.purchased {
		if s.logger != nil {
			s.logger.Purchase().Info("Fixture purchase rejected, lead unavailable", "identity", identity, "sessionId", sessionID)
		}
		return &radar.PurchaseResult{Success: false, Error: "lead unavailable"}, nil
	}

	// The stored grade is authoritative; a caller quoting a stale price is
	// rejected rather than silently re-priced.
	price := radar.PriceOf(session.grade)
	if cost != price {
		if s.logger != nil {
			s.logger.Purchase().Info("Fixture purchase rejected, price mismatch", "identity", identity, "sessionId", sessionID, "cost", cost, "price", price)
		}
		return &radar.PurchaseResult{Success: false, Error: "price mismatch"}, nil
	}

	switch session.grade {
	case radar.GradeS:
		if st.quotaS <= 0 {
			return &radar.PurchaseResult{Success: false, Error: "quota exhausted"}, nil
		}
	case radar.GradeA:
		if st.quotaA <= 0 {
			return &radar.PurchaseResult{Success: false, Error: "quota exhausted"}, nil
		}
	}
	if st.points < price {
		return &radar.PurchaseResult{Success: false, Error: "insufficient points"}, nil
	}

	// Points are always spent; quota-limited grades consume their counter
	// on top of the price.
	st.points -= price
	usedQuota := false
	switch session.grade {
	case radar.GradeS:
		st.quotaS--
		usedQuota = true
	case radar.GradeA:
		st.quotaA--
		usedQuota = true
	}

	session.purchased = true
	pur := purchaseRow{
		id:             uuid.NewString(),
		sessionID:      sessionID,
		grade:          session.grade,
		price:          price,
		usedQuota:      usedQuota,
		conversationID: uuid.NewString(),
		purchasedAt:    time.Now().UTC(),
	}
	st.purchases = append(st.purchases, pur)

	if s.logger != nil {
		s.logger.Purchase().Info("Fixture purchase committed", "identity", identity, "sessionId", sessionID, "purchaseId", pur.id, "usedQuota", usedQuota)
	}

	return &radar.PurchaseResult{
		Success:        true,
		UsedQuota:      usedQuota,
		PurchaseID:     pur.id,
		ConversationID: pur.conversationID,
	}, nil
}

// FindAccount accepts any identity with the demo password in mock mode.
func (s *Store) FindAccount(ctx context.Context, identity string) (*repositories.UserAccountRow, error) {
	s.demoHashOnce.Do(func() {
		hash, err := security.HashPassword(DemoPassword)
		if err != nil {
			if s.logger != nil {
				s.logger.Auth().Error("Failed to hash demo password", "error", err.Error())
			}
			return
		}
		s.demoHash = hash
	})
	if s.demoHash == "" {
		return nil, fmt.Errorf("fixture account unavailable")
	}
	return &repositories.UserAccountRow{
		ID:           identity,
		PasswordHash: s.demoHash,
		Role:         "agent",
	}, nil
}

// FetchEvents synthesizes engagement events from the fixture sessions.
func (s *Store) FetchEvents(ctx context.Context, identity string, since time.Time) ([]repositories.EventRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(identity)
	var events []repositories.EventRow
	for i, row := range st.sessions {
		if row.createdAt.Before(since) {
			continue
		}
		verb := "PAGEVIEWED"
		if i%3 == 0 {
			verb = "CLICKED"
		}
		events = append(events, repositories.EventRow{
			SessionID:  row.id,
			PropertyID: fmt.Sprintf("fx-listing-%d", 1+i%2),
			Verb:       verb,
			CreatedAt:  row.createdAt,
		})
	}
	return events, nil
}
