package push

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
)

type fcmSender struct {
	client *messaging.Client
}

var _ Sender = &fcmSender{}

func NewFCMSender(app *firebase.App) (Sender, error) {
	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error initializing messaging client: %w", err)
	}
	return &fcmSender{client: client}, nil
}

func (f *fcmSender) Send(ctx context.Context, token string, notification Notification) (string, error) {
	messageId, err := f.client.Send(ctx, NewMessage(token, notification))
	if err == nil {
		return messageId, nil
	}

	return "", ClassifyError(err, errorCode(err))
}

// FCM error codes relevant to device cleanup
const (
	ErrorCodeTokenNotRegistered = "registration-token-not-registered"
	ErrorCodeInvalidArgument    = "invalid-argument"
)

func errorCode(err error) string {
	switch {
	case messaging.IsRegistrationTokenNotRegistered(err):
		return ErrorCodeTokenNotRegistered
	case messaging.IsInvalidArgument(err):
		return ErrorCodeInvalidArgument
	default:
		return ""
	}
}

// ClassifyError maps a failed send with the given FCM error code to the token errors. FCM also
// reports invalid payloads (e.g. oversized messages) as invalid arguments, only those naming
// the registration token invalidate the device.
func ClassifyError(err error, code string) error {
	switch {
	case code == ErrorCodeTokenNotRegistered:
		return fmt.Errorf("%w: %s", ErrTokenNotRegistered, err.Error())
	case code == ErrorCodeInvalidArgument && strings.Contains(strings.ToLower(err.Error()), "registration token"):
		return fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	default:
		return err
	}
}

func NewMessage(token string, notification Notification) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: notification.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: notification.ChannelId(),
			},
		},
	}
}
