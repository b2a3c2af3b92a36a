package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-tracker/internal/config"
	"github.com/spec-kit/sla-tracker/internal/domain"
	"github.com/spec-kit/sla-tracker/internal/events"
)

// NotificationService handles emitting notifications for SLA events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	roster     *domain.Roster
}

// NewNotificationService creates the service. The roster resolves display names
// for breach notifications and may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, roster *domain.Roster) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		roster:     roster,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSLABreached, n.handleBreached)
	n.dispatcher.Subscribe(events.EventSnapshotRecorded, n.handleSnapshotRecorded)
}

func (n *NotificationService) handleBreached(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("snapshot_id", event.SnapshotID)}
	if p, ok := event.Payload.(events.SLABreachedPayload); ok {
		fields = append(fields,
			zap.String("ticket_key", p.TicketKey),
			zap.String("pathway", string(p.Pathway)),
			zap.String("responsible", p.Responsible),
			zap.String("responsible_name", n.roster.DisplayName(p.Responsible)),
			zap.Stringer("status", p.Status),
			zap.Int("business_minutes", p.BusinessMinutes),
			zap.Int("goal_minutes", p.GoalMinutes))
	}
	n.logger.Info("SLABreached", fields...)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSnapshotRecorded(ctx context.Context, event events.Event) error {
	n.logger.Info("SnapshotRecorded", zap.String("snapshot_id", event.SnapshotID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("snapshot_id", event.SnapshotID),
		zap.String("event_type", string(event.Type)))
}
