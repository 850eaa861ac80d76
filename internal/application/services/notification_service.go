package services

import (
	"context"
	"time"

	"github.com/maihouses/leadradar-go/internal/domain/entities/radar"
	"github.com/maihouses/leadradar-go/internal/infrastructure/email"
	"github.com/maihouses/leadradar-go/internal/infrastructure/email/templates"
	"github.com/maihouses/leadradar-go/internal/infrastructure/observability/logging"
	"github.com/maihouses/leadradar-go/pkg/config"
)

// NotificationMarker records the delivery outcome against the purchase row.
// The live gateway implements it; the fixture does not need to.
type NotificationMarker interface {
	MarkNotification(ctx context.Context, purchaseID string, status radar.NotificationStatus) error
}

// NotificationService sends the post-purchase receipt email. Delivery is best
// effort and never blocks or fails a purchase.
type NotificationService struct {
	emails email.Service
	marker NotificationMarker
	logger *logging.ChanneledLogger
}

// NewNotificationService creates a new notification service. The email
// service may be nil when notifications are disabled.
func NewNotificationService(emails email.Service, marker NotificationMarker, logger *logging.ChanneledLogger) *NotificationService {
	return &NotificationService{
		emails: emails,
		marker: marker,
		logger: logger,
	}
}

// NotifyPurchase sends the receipt for a completed purchase and records the
// outcome. Intended to run in its own goroutine.
func (s *NotificationService) NotifyPurchase(identity string, lead *radar.Lead, result *radar.PurchaseResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if !config.NotificationsEnabled || s.emails == nil || config.NotificationInbox == "" {
		s.markStatus(ctx, result.PurchaseID, radar.NotificationSkipped)
		return
	}

	props := templates.PurchaseReceiptProps{
		AgentName:      identity,
		Grade:          string(lead.Grade),
		Property:       lead.Prop,
		Price:          lead.Price,
		UsedQuota:      result.UsedQuota,
		ProtectedHours: radar.ProtectionHoursOf(lead.Grade),
	}

	if err := s.emails.SendPurchaseReceipt(config.NotificationInbox, props); err != nil {
		s.logger.System().Error("Purchase receipt delivery failed", "error", err.Error(), "identity", identity, "purchaseId", result.PurchaseID)
		s.markStatus(ctx, result.PurchaseID, radar.NotificationFailed)
		return
	}

	s.logger.System().Info("Purchase receipt sent", "identity", identity, "purchaseId", result.PurchaseID)
	s.markStatus(ctx, result.PurchaseID, radar.NotificationSent)
}

func (s *NotificationService) markStatus(ctx context.Context, purchaseID string, status radar.NotificationStatus) {
	if s.marker == nil {
		return
	}
	if err := s.marker.MarkNotification(ctx, purchaseID, status); err != nil {
		s.logger.System().Error("Failed to record notification status", "error", err.Error(), "purchaseId", purchaseID, "status", status)
	}
}
