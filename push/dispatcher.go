package push

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/devices"
)

type dispatcher struct {
	devices devices.Repository
	sender  Sender
	logger  *zap.SugaredLogger
}

var _ Dispatcher = &dispatcher{}

func NewDispatcher(devicesRepo devices.Repository, sender Sender, logger *zap.SugaredLogger) Dispatcher {
	return &dispatcher{
		devices: devicesRepo,
		sender:  sender,
		logger:  logger,
	}
}

func (d *dispatcher) SendToUser(ctx context.Context, userId string, notification Notification) int {
	logger := d.logger.With("userId", userId, "type", notification.Data["type"])

	devs, err := d.devices.ListByUser(ctx, userId)
	if err != nil {
		logger.Errorw("unable to list devices", zap.Error(err))
		return 0
	}
	if len(devs) == 0 {
		logger.Infow("no devices registered")
		return 0
	}

	sent := 0
	for _, device := range devs {
		if device.FcmToken == "" {
			continue
		}

		messageId, err := d.sender.Send(ctx, device.FcmToken, notification)
		if err == nil {
			logger.Infow("notification sent", "deviceId", device.Id, "messageId", messageId)
			sent++
			continue
		}

		if !IsPermanentFailure(err) {
			logger.Warnw("unable to send notification", "deviceId", device.Id, zap.Error(err))
			continue
		}

		logger.Infow("removing device with invalid token", "deviceId", device.Id, zap.Error(err))
		if err := d.devices.Delete(ctx, device, reason(err)); err != nil && !errors.Is(err, devices.ErrNotFound) {
			logger.Errorw("unable to remove device", "deviceId", device.Id, zap.Error(err))
		}
	}

	return sent
}

func reason(err error) string {
	if errors.Is(err, ErrTokenNotRegistered) {
		return ErrTokenNotRegistered.Error()
	}
	return ErrInvalidToken.Error()
}
