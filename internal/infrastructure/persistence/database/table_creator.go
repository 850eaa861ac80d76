// Package database provides schema instantiation
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/maihouses/leadradar-go/internal/infrastructure/security"
)

// TableCreator handles the creation of the radar database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedInitialContent adds the default rows required for a fresh install to
// function: one demo community so feed posts have a home.
func (tc *TableCreator) SeedInitialContent(db *sql.DB) error {
	var communityID string
	err := db.QueryRow("SELECT id FROM communities WHERE slug = 'riverside'").Scan(&communityID)
	if err == sql.ErrNoRows {
		communityID = security.GenerateULID()
		_, err = db.Exec(`INSERT INTO communities (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
			communityID, "Riverside", "riverside", time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to insert default community: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check for default community: %w", err)
	}

	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL, role TEXT NOT NULL DEFAULT 'agent', points REAL NOT NULL DEFAULT 0, quota_s INTEGER NOT NULL DEFAULT 0, quota_a INTEGER NOT NULL DEFAULT 0, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS communities (id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT NOT NULL UNIQUE, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS properties (id TEXT PRIMARY KEY, public_id TEXT NOT NULL UNIQUE, owner_id TEXT NOT NULL REFERENCES users(id), title TEXT NOT NULL, thumbnail TEXT, images TEXT, tags TEXT, community_id TEXT REFERENCES communities(id), view_count INTEGER NOT NULL DEFAULT 0, click_count INTEGER NOT NULL DEFAULT 0, fav_count INTEGER NOT NULL DEFAULT 0, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS uag_sessions (id TEXT PRIMARY KEY, owner_id TEXT NOT NULL REFERENCES users(id), property_id TEXT REFERENCES properties(id), grade TEXT NOT NULL, intent_score INTEGER, visit_count INTEGER NOT NULL DEFAULT 1, purchased INTEGER NOT NULL DEFAULT 0, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS uag_lead_purchases (id TEXT PRIMARY KEY, buyer_id TEXT NOT NULL REFERENCES users(id), session_id TEXT NOT NULL REFERENCES uag_sessions(id), grade TEXT NOT NULL, price REAL NOT NULL, used_quota INTEGER NOT NULL DEFAULT 0, conversation_id TEXT, notification_status TEXT NOT NULL DEFAULT 'pending', purchased_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, UNIQUE(session_id))`,
	`CREATE TABLE IF NOT EXISTS community_posts (id TEXT PRIMARY KEY, community_id TEXT NOT NULL REFERENCES communities(id), author_id TEXT REFERENCES users(id), title TEXT NOT NULL, body TEXT, likes_count INTEGER NOT NULL DEFAULT 0, comments_count INTEGER NOT NULL DEFAULT 0, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS uag_events (id TEXT PRIMARY KEY, session_id TEXT NOT NULL, property_id TEXT, owner_id TEXT NOT NULL REFERENCES users(id), verb TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_owner_id ON properties(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_community_id ON properties(community_id)`,
	`CREATE INDEX IF NOT EXISTS idx_uag_sessions_owner_id ON uag_sessions(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_uag_sessions_purchased ON uag_sessions(owner_id, purchased)`,
	`CREATE INDEX IF NOT EXISTS idx_uag_lead_purchases_buyer_id ON uag_lead_purchases(buyer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_uag_lead_purchases_session_id ON uag_lead_purchases(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_community_posts_community_id ON community_posts(community_id)`,
	`CREATE INDEX IF NOT EXISTS idx_community_posts_created_at ON community_posts(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_uag_events_owner_id ON uag_events(owner_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_uag_events_session_id ON uag_events(session_id)`,
}
