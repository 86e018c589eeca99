package safezones

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/config"
	"github.com/tidepool-org/caretrack/ledger"
	"github.com/tidepool-org/caretrack/push"
)

type Handler struct {
	zones      ZoneRepository
	ledger     ledger.Ledger
	dispatcher push.Dispatcher
	cooldown   time.Duration
	logger     *zap.SugaredLogger
	now        func() time.Time
}

type HandlerParams struct {
	fx.In

	Zones      ZoneRepository
	Ledger     ledger.Ledger
	Dispatcher push.Dispatcher
	Config     *config.Config
	Logger     *zap.SugaredLogger
	Now        func() time.Time `optional:"true"`
}

func NewHandler(p HandlerParams) *Handler {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		zones:      p.Zones,
		ledger:     p.Ledger,
		dispatcher: p.Dispatcher,
		cooldown:   p.Config.SafeZoneCooldown,
		logger:     p.Logger,
		now:        now,
	}
}

func (h *Handler) Handle(ctx context.Context, raw bson.Raw) error {
	var event Event
	if err := bson.Unmarshal(raw, &event); err != nil {
		h.logger.Warnw("malformed safe zone event", zap.Error(err))
		return nil
	}
	if event.UserId == "" || event.PatientId == "" {
		h.logger.Warnw("safe zone event without patient", "eventId", event.Id)
		return nil
	}

	logger := h.logger.With("userId", event.UserId, "patientId", event.PatientId, "eventId", event.Id, "safeZoneId", event.SafeZoneId)
	scope := ledger.Scope{UserId: event.UserId, PatientId: event.PatientId}
	_, err := h.ledger.Once(ctx, scope, "safezone_"+event.Id, func(ctx context.Context) error {
		cooldownId := fmt.Sprintf("safezone_cooldown_%s_%s", event.SafeZoneId, event.EventType)
		lastSent, err := h.ledger.LastProcessed(ctx, scope, cooldownId)
		if err != nil {
			return err
		}
		if lastSent != nil && h.now().Sub(*lastSent) < h.cooldown {
			logger.Infow("safe zone notification suppressed (cooldown)")
			return nil
		}

		sent := h.dispatcher.SendToUser(ctx, event.UserId, NewNotification(event, h.zoneName(ctx, event)))
		logger.Infow("safe zone push sent", "sent", sent)

		return h.ledger.MarkProcessed(ctx, scope, cooldownId)
	})
	return err
}

func (h *Handler) zoneName(ctx context.Context, event Event) string {
	zone, err := h.zones.Get(ctx, event.UserId, event.PatientId, event.SafeZoneId)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Warnw("failed to resolve zone name", "safeZoneId", event.SafeZoneId, zap.Error(err))
		}
		return UnknownZoneName
	}
	if zone.Name == "" {
		return UnknownZoneName
	}
	return zone.Name
}

func NewNotification(event Event, zoneName string) push.Notification {
	notification := push.Notification{
		Title: "Safe Zone Update",
		Body:  fmt.Sprintf(`Patient has entered the safe zone "%s"`, zoneName),
		Data: map[string]string{
			"type":      "safe_zone_" + event.EventType,
			"patientId": event.PatientId,
			"eventId":   event.Id,
			"screen":    "activity",
			"channelId": push.ChannelSafeZoneAlerts,
		},
	}
	if event.IsExit() {
		notification.Title = "Safe Zone Alert"
		notification.Body = fmt.Sprintf(`Patient has left the safe zone "%s"`, zoneName)
	}
	return notification
}
