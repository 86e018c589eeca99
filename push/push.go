// Package push delivers notifications to every registered device of a user.
package push

import (
	"context"
	"errors"
)

const (
	DefaultChannelId = "safe_zone_alerts"

	ChannelSafeZoneAlerts  = "safe_zone_alerts"
	ChannelWatchStatus     = "watch_status"
	ChannelMemoryReminders = "memory_reminders"
	ChannelDailyReport     = "daily_report"
)

var (
	// ErrTokenNotRegistered is returned by senders when the token was unregistered by the device
	ErrTokenNotRegistered = errors.New("registration-token-not-registered")
	// ErrInvalidToken is returned by senders when the token is malformed
	ErrInvalidToken = errors.New("invalid-registration-token")
)

type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

func (n Notification) ChannelId() string {
	if channelId := n.Data["channelId"]; channelId != "" {
		return channelId
	}
	return DefaultChannelId
}

//go:generate mockgen --build_flags=--mod=mod -source=./push.go -destination=./test/mock_push.go -package test

type Sender interface {
	// Send delivers the notification to a single device token and returns the message id
	Send(ctx context.Context, token string, notification Notification) (string, error)
}

type Dispatcher interface {
	// SendToUser returns the number of devices the notification was delivered to. Delivery
	// failures are logged and never returned.
	SendToUser(ctx context.Context, userId string, notification Notification) int
}

// IsPermanentFailure is true for errors after which the token will never be accepted again
func IsPermanentFailure(err error) bool {
	return errors.Is(err, ErrTokenNotRegistered) || errors.Is(err, ErrInvalidToken)
}
