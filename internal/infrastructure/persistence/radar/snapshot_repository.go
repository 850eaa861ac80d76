// Package radar provides the concrete SQL-based implementations of the
// radar data sources (snapshot rows, purchases, accounts, events).
package radar

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/repositories"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/persistence/database"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// Interface assertions.
var (
	_ repositories.SnapshotSource = (*SQLSnapshotSource)(nil)
	_ repositories.StatsSource    = (*SQLSnapshotSource)(nil)
	_ repositories.AccountSource  = (*SQLSnapshotSource)(nil)
)

// SQLSnapshotSource is the SQL-based implementation of the snapshot sources.
type SQLSnapshotSource struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLSnapshotSource creates a new instance of the source.
func NewSQLSnapshotSource(db *database.DB, logger *logging.ChanneledLogger) *SQLSnapshotSource {
	return &SQLSnapshotSource{
		db:     db,
		logger: logger,
	}
}

// FetchUser retrieves the balance row for one agent.
func (r *SQLSnapshotSource) FetchUser(ctx context.Context, identity string) (*radar.RawUserRow, error) {
	const query = `
		SELECT points, quota_s, quota_a
		FROM users
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading user balance row", "identity", identity)

	var row radar.RawUserRow
	err := r.db.QueryRowContext(ctx, query, identity).Scan(&row.Points, &row.QuotaS, &row.QuotaA)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Database().Debug("User not found", "identity", identity)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load user balance row", "error", err.Error(), "identity", identity)
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, identity)
	}
	return &row, nil
}

// FetchSessions retrieves unpurchased visitor sessions for one agent's
// properties, newest first.
func (r *SQLSnapshotSource) FetchSessions(ctx context.Context, identity string, limit int) ([]radar.RawLead, error) {
	const query = `
		SELECT s.id, s.grade, s.visit_count, s.property_id, s.created_at, p.title
		FROM uag_sessions s
		LEFT JOIN properties p ON p.id = s.property_id
		WHERE s.owner_id = ? AND s.purchased = 0
		  AND s.grade IN ('S', 'A', 'B', 'C', 'F')
		ORDER BY s.created_at DESC
		LIMIT ?`

	start := time.Now()
	r.logger.Database().Debug("Loading visitor sessions", "identity", identity, "limit", limit)

	rows, err := r.db.QueryContext(ctx, query, identity, limit)
	if err != nil {
		r.logger.Database().Error("Failed to load visitor sessions", "error", err.Error(), "identity", identity)
		return nil, err
	}
	defer rows.Close()

	var leads []radar.RawLead
	for rows.Next() {
		var lead radar.RawLead
		var propertyID, propTitle sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&lead.ID, &lead.Grade, &lead.Visit, &propertyID, &createdAt, &propTitle); err != nil {
			r.logger.Database().Error("Failed to scan session row", "error", err.Error(), "identity", identity)
			return nil, err
		}
		lead.Status = string(radar.StatusNew)
		lead.SessionID = lead.ID
		lead.PropertyID = propertyID.String
		lead.Prop = propTitle.String
		lead.CreatedAt = &createdAt
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Visitor sessions loaded", "identity", identity, "count", len(leads), "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, identity)
	}
	return leads, nil
}

// FetchPurchases retrieves the agent's purchased leads with their session context.
func (r *SQLSnapshotSource) FetchPurchases(ctx context.Context, identity string) ([]radar.RawLead, error) {
	const query = `
		SELECT pur.id, pur.session_id, pur.grade, pur.price, pur.conversation_id,
		       pur.notification_status, pur.purchased_at, s.visit_count, s.property_id, p.title
		FROM uag_lead_purchases pur
		JOIN uag_sessions s ON s.id = pur.session_id
		LEFT JOIN properties p ON p.id = s.property_id
		WHERE pur.buyer_id = ?
		ORDER BY pur.purchased_at DESC`

	start := time.Now()
	r.logger.Database().Debug("Loading purchased leads", "identity", identity)

	rows, err := r.db.QueryContext(ctx, query, identity)
	if err != nil {
		r.logger.Database().Error("Failed to load purchased leads", "error", err.Error(), "identity", identity)
		return nil, err
	}
	defer rows.Close()

	var leads []radar.RawLead
	for rows.Next() {
		var lead radar.RawLead
		var conversationID, notificationStatus, propertyID, propTitle sql.NullString
		var purchasedAt time.Time
		if err := rows.Scan(&lead.ID, &lead.SessionID, &lead.Grade, &lead.Price, &conversationID,
			&notificationStatus, &purchasedAt, &lead.Visit, &propertyID, &propTitle); err != nil {
			r.logger.Database().Error("Failed to scan purchase row", "error", err.Error(), "identity", identity)
			return nil, err
		}
		lead.Status = string(radar.StatusPurchased)
		lead.PurchasedAt = &purchasedAt
		lead.ConversationID = conversationID.String
		lead.NotificationStatus = notificationStatus.String
		lead.PropertyID = propertyID.String
		lead.Prop = propTitle.String
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	r.logger.Database().Info("Purchased leads loaded", "identity", identity, "count", len(leads), "duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, identity)
	}
	return leads, nil
}

// FetchListings retrieves the agent's property listings with engagement counters.
func (r *SQLSnapshotSource) FetchListings(ctx context.Context, identity string) ([]radar.RawListing, error) {
	const query = `
		SELECT public_id, title, thumbnail, images, tags, community_id,
		       view_count, click_count, fav_count, created_at
		FROM properties
		WHERE owner_id = ?
		ORDER BY created_at DESC`

	start := time.Now()
	r.logger.Database().Debug("Loading listings", "identity", identity)

	rows, err := r.db.QueryContext(ctx, query, identity)
	if err != nil {
		r.logger.Database().Error("Failed to load listings", "error", err.Error(), "identity", identity)
		return nil, err
	}
	defer rows.Close()

	var listings []radar.RawListing
	for rows.Next() {
		var listing radar.RawListing
		var thumbnail, images, tags, communityID sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&listing.PublicID, &listing.Title, &thumbnail, &images, &tags, &communityID,
			&listing.View, &listing.Click, &listing.Fav, &createdAt); err != nil {
			r.logger.Database().Error("Failed to scan listing row", "error", err.Error(), "identity", identity)
			return nil, err
		}
		listing.Thumbnail = thumbnail.String
		listing.CommunityID = communityID.String
		listing.CreatedAt = &createdAt

		// Images and tags are stored as JSON arrays; a malformed value
		// degrades to empty rather than failing the fetch.
		if images.Valid && images.String != "" {
			if err := json.Unmarshal([]byte(images.String), &listing.Images); err != nil {
				r.logger.Database().Debug("Malformed images payload", "publicId", listing.PublicID)
			}
		}
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &listing.Tags); err != nil {
				r.logger.Database().Debug("Malformed tags payload", "publicId", listing.PublicID)
			}
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, identity)
	}
	return listings, nil
}

// FetchFeed retrieves the most recent community posts across the agent's communities.
func (r *SQLSnapshotSource) FetchFeed(ctx context.Context, identity string, limit int) ([]radar.RawFeedPost, error) {
	const query = `
		SELECT cp.id, cp.title, cp.body, cp.community_id, c.name,
		       cp.likes_count, cp.comments_count, cp.created_at
		FROM community_posts cp
		JOIN communities c ON c.id = cp.community_id
		WHERE cp.community_id IN (
			SELECT DISTINCT community_id FROM properties WHERE owner_id = ? AND community_id IS NOT NULL
		)
		ORDER BY cp.created_at DESC
		LIMIT ?`

	start := time.Now()
	r.logger.Database().Debug("Loading community feed", "identity", identity, "limit", limit)

	rows, err := r.db.QueryContext(ctx, query, identity, limit)
	if err != nil {
		r.logger.Database().Error("Failed to load community feed", "error", err.Error(), "identity", identity)
		return nil, err
	}
	defer rows.Close()

	var posts []radar.RawFeedPost
	for rows.Next() {
		var post radar.RawFeedPost
		var body sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&post.ID, &post.Title, &body, &post.CommunityID, &post.CommunityName,
			&post.LikesCount, &post.CommentsCount, &createdAt); err != nil {
			r.logger.Database().Error("Failed to scan feed row", "error", err.Error(), "identity", identity)
			return nil, err
		}
		post.Body = body.String
		post.Meta = post.CommunityName
		post.CreatedAt = &createdAt
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, identity)
	}
	return posts, nil
}

// FetchEvents retrieves raw engagement events since the given time.
func (r *SQLSnapshotSource) FetchEvents(ctx context.Context, identity string, since time.Time) ([]repositories.EventRow, error) {
	const query = `
		SELECT session_id, property_id, verb, created_at
		FROM uag_events
		WHERE owner_id = ? AND created_at >= ?
		ORDER BY created_at ASC`

	start := time.Now()
	r.logger.Database().Debug("Loading engagement events", "identity", identity, "since", since)

	rows, err := r.db.QueryContext(ctx, query, identity, since)
	if err != nil {
		r.logger.Database().Error("Failed to load engagement events", "error", err.Error(), "identity", identity)
		return nil, err
	}
	defer rows.Close()

	var events []repositories.EventRow
	for rows.Next() {
		var event repositories.EventRow
		var propertyID sql.NullString
		if err := rows.Scan(&event.SessionID, &propertyID, &event.Verb, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.PropertyID = propertyID.String
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, identity)
	}
	return events, nil
}

// FindAccount retrieves the credential row for token issuance. Lookup works
// by id or email so agents can sign in with either.
func (r *SQLSnapshotSource) FindAccount(ctx context.Context, identity string) (*repositories.UserAccountRow, error) {
	const query = `
		SELECT id, password_hash, role
		FROM users
		WHERE id = ? OR email = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading account", "identity", identity)

	var account repositories.UserAccountRow
	err := r.db.QueryRowContext(ctx, query, identity, identity).Scan(&account.ID, &account.PasswordHash, &account.Role)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Database().Debug("Account not found", "identity", identity)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load account", "error", err.Error(), "identity", identity)
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, identity)
	}
	return &account, nil
}
