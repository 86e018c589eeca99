package test

import (
	"context"
	"sync"

	"github.com/tidepool-org/caretrack/push"
)

type Sent struct {
	UserId       string
	Notification push.Notification
}

// Dispatcher records notifications instead of delivering them
type Dispatcher struct {
	mu   sync.Mutex
	sent []Sent
}

var _ push.Dispatcher = &Dispatcher{}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) SendToUser(_ context.Context, userId string, notification push.Notification) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, Sent{UserId: userId, Notification: notification})
	return 1
}

func (d *Dispatcher) Sent() []Sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Sent(nil), d.sent...)
}
