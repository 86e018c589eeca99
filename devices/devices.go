// Package devices stores the push notification registrations of users.
package devices

import (
	"context"
	"errors"
	"time"
)

const CollectionName = "devices"

var ErrNotFound = errors.New("device not found")

type Device struct {
	Id          string     `bson:"_id"`
	UserId      string     `bson:"userId"`
	FcmToken    string     `bson:"fcmToken"`
	Platform    string     `bson:"platform,omitempty"`
	UpdatedTime *time.Time `bson:"updatedTime,omitempty"`
}

type Repository interface {
	ListByUser(ctx context.Context, userId string) ([]Device, error)
	// Delete removes the device and archives it with the given reason
	Delete(ctx context.Context, device Device, reason string) error
}
