package radar

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	entities "github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/domain/repositories"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/internal/infrastructure/persistence/database"
	"github.com/maihouses/leadradar-go/pkg/config"
)

var _ repositories.PurchaseGateway = (*SQLPurchaseGateway)(nil)

// SQLPurchaseGateway executes the purchase operation as a single transaction.
// Balance deduction, quota consumption, ownership transfer, and conversation
// creation commit together or not at all.
type SQLPurchaseGateway struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLPurchaseGateway creates a new instance of the gateway.
func NewSQLPurchaseGateway(db *database.DB, logger *logging.ChanneledLogger) *SQLPurchaseGateway {
	return &SQLPurchaseGateway{
		db:     db,
		logger: logger,
	}
}

// PurchaseLead atomically buys the session for the given buyer. Business
// rejections (already sold, insufficient balance) come back as an unsuccessful
// result with a nil error; only infrastructure failures return an error.
func (g *SQLPurchaseGateway) PurchaseLead(ctx context.Context, identity, sessionID string, cost float64, grade entities.Grade) (*entities.PurchaseResult, error) {
	start := time.Now()
	g.logger.Purchase().Debug("Executing purchase transaction", "identity", identity, "sessionId", sessionID, "grade", grade)

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		g.logger.Purchase().Error("Failed to begin purchase transaction", "error", err.Error(), "identity", identity)
		return nil, err
	}
	defer tx.Rollback()

	// The session row is authoritative for grade and availability; the
	// caller's grade is only a hint.
	var dbGrade string
	var purchased int
	err = tx.QueryRowContext(ctx,
		`SELECT grade, purchased FROM uag_sessions WHERE id = ? AND owner_id = ?`,
		sessionID, identity).Scan(&dbGrade, &purchased)
	if err == sql.ErrNoRows {
		g.logger.Purchase().Info("Purchase rejected, session not found", "identity", identity, "sessionId", sessionID)
		return &entities.PurchaseResult{Success: false, Error: "lead unavailable"}, nil
	}
	if err != nil {
		return nil, err
	}
	if purchased != 0 {
		g.logger.Purchase().Info("Purchase rejected, already sold", "identity", identity, "sessionId", sessionID)
		return &entities.PurchaseResult{Success: false, Error: "lead unavailable"}, nil
	}

	var points float64
	var quotaS, quotaA int
	err = tx.QueryRowContext(ctx,
		`SELECT points, quota_s, quota_a FROM users WHERE id = ?`,
		identity).Scan(&points, &quotaS, &quotaA)
	if err == sql.ErrNoRows {
		return &entities.PurchaseResult{Success: false, Error: "buyer account not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	// The session row's grade sets the price; a caller quoting a different
	// cost is working from stale data.
	effectiveGrade := entities.Grade(dbGrade)
	price := entities.PriceOf(effectiveGrade)
	if cost != price {
		g.logger.Purchase().Info("Purchase rejected, price mismatch", "identity", identity, "sessionId", sessionID, "cost", cost, "price", price)
		return &entities.PurchaseResult{Success: false, Error: "price mismatch"}, nil
	}

	if effectiveGrade == entities.GradeS && quotaS <= 0 || effectiveGrade == entities.GradeA && quotaA <= 0 {
		g.logger.Purchase().Info("Purchase rejected, quota exhausted", "identity", identity, "sessionId", sessionID, "grade", dbGrade)
		return &entities.PurchaseResult{Success: false, Error: "quota exhausted"}, nil
	}
	if points < price {
		g.logger.Purchase().Info("Purchase rejected, insufficient points", "identity", identity, "sessionId", sessionID, "points", points, "price", price)
		return &entities.PurchaseResult{Success: false, Error: "insufficient points"}, nil
	}

	// Points are spent on every purchase; S and A grades consume their quota
	// counter on top of the price.
	usedQuota := false
	switch effectiveGrade {
	case entities.GradeS:
		usedQuota = true
		_, err = tx.ExecContext(ctx, `UPDATE users SET points = points - ?, quota_s = quota_s - 1 WHERE id = ?`, price, identity)
	case entities.GradeA:
		usedQuota = true
		_, err = tx.ExecContext(ctx, `UPDATE users SET points = points - ?, quota_a = quota_a - 1 WHERE id = ?`, price, identity)
	default:
		_, err = tx.ExecContext(ctx, `UPDATE users SET points = points - ? WHERE id = ?`, price, identity)
	}
	if err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE uag_sessions SET purchased = 1 WHERE id = ?`, sessionID); err != nil {
		return nil, err
	}

	purchaseID := uuid.NewString()
	conversationID := uuid.NewString()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO uag_lead_purchases (id, buyer_id, session_id, grade, price, used_quota, conversation_id, notification_status, purchased_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		purchaseID, identity, sessionID, dbGrade, price, boolToInt(usedQuota), conversationID,
		string(entities.NotificationPending), time.Now().UTC()); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		g.logger.Purchase().Error("Purchase commit failed", "error", err.Error(), "identity", identity, "sessionId", sessionID)
		return nil, err
	}

	duration := time.Since(start)
	g.logger.Purchase().Info("Purchase transaction committed", "identity", identity, "sessionId", sessionID, "purchaseId", purchaseID, "usedQuota", usedQuota, "duration", duration)
	if duration > config.SlowQueryThreshold {
		g.logger.LogSlowQuery("PURCHASE_TRANSACTION", duration, identity)
	}

	return &entities.PurchaseResult{
		Success:        true,
		UsedQuota:      usedQuota,
		PurchaseID:     purchaseID,
		ConversationID: conversationID,
	}, nil
}

// MarkNotification records the post-purchase outreach outcome.
func (g *SQLPurchaseGateway) MarkNotification(ctx context.Context, purchaseID string, status entities.NotificationStatus) error {
	start := time.Now()
	_, err := g.db.ExecContext(ctx,
		`UPDATE uag_lead_purchases SET notification_status = ? WHERE id = ?`,
		string(status), purchaseID)
	if err != nil {
		g.logger.Database().Error("Failed to mark notification status", "error", err.Error(), "purchaseId", purchaseID)
		return err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		g.logger.LogSlowQuery("UPDATE uag_lead_purchases SET notification_status", duration, "system")
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
