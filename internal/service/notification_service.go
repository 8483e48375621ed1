package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/shiftmarket/suspension-service/internal/config"
	"github.com/shiftmarket/suspension-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Delivery is fire-and-forget: failures are logged and never fail the
// suspension or appeal state change that triggered them.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSuspensionIssued, n.handleSuspensionIssued)
	n.dispatcher.Subscribe(events.EventSuspensionLifted, n.handleSuspensionLifted)
	n.dispatcher.Subscribe(events.EventSuspensionExpired, n.handleSuspensionExpired)
	n.dispatcher.Subscribe(events.EventStrikesReset, n.handleStrikesReset)
	n.dispatcher.Subscribe(events.EventAppealSubmitted, n.handleAppealSubmitted)
	n.dispatcher.Subscribe(events.EventAppealReviewStarted, n.handleAppealReviewStarted)
	n.dispatcher.Subscribe(events.EventAppealDecided, n.handleAppealDecided)
}

func (n *NotificationService) handleSuspensionIssued(ctx context.Context, event events.Event) error {
	n.logger.Info("SuspensionIssued", zap.String("worker_id", event.WorkerID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSuspensionLifted(ctx context.Context, event events.Event) error {
	n.logger.Info("SuspensionLifted", zap.String("worker_id", event.WorkerID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSuspensionExpired(ctx context.Context, event events.Event) error {
	n.logger.Info("SuspensionExpired", zap.String("worker_id", event.WorkerID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStrikesReset(ctx context.Context, event events.Event) error {
	n.logger.Info("StrikesReset", zap.String("worker_id", event.WorkerID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAppealSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("AppealSubmitted", zap.String("worker_id", event.WorkerID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAppealReviewStarted(ctx context.Context, event events.Event) error {
	n.logger.Info("AppealReviewStarted", zap.String("worker_id", event.WorkerID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAppealDecided(ctx context.Context, event events.Event) error {
	n.logger.Info("AppealDecided", zap.String("worker_id", event.WorkerID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("worker_id", event.WorkerID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("worker_id", event.WorkerID),
		zap.String("event_type", string(event.Type)))
}
