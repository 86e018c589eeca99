package watch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/config"
	"github.com/tidepool-org/caretrack/push"
)

type Handler struct {
	states     StateRepository
	dispatcher push.Dispatcher
	machine    Machine
	logger     *zap.SugaredLogger
	now        func() time.Time
}

type HandlerParams struct {
	fx.In

	States     StateRepository
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
		states:     p.States,
		dispatcher: p.Dispatcher,
		machine:    NewMachine(p.Config.BatteryThresholds, p.Config.WatchDisconnectThreshold),
		logger:     p.Logger,
		now:        now,
	}
}

// Handle reacts to a write of the watch status document. before is empty for inserts and
// after is empty for deletes.
func (h *Handler) Handle(ctx context.Context, before bson.Raw, after bson.Raw) error {
	if len(after) == 0 {
		return nil
	}

	var current Status
	if err := bson.Unmarshal(after, &current); err != nil {
		h.logger.Warnw("malformed watch status", zap.Error(err))
		return nil
	}
	var previous *Status
	if len(before) > 0 {
		previous = &Status{}
		if err := bson.Unmarshal(before, previous); err != nil {
			h.logger.Warnw("malformed previous watch status", zap.Error(err))
			previous = nil
		}
	}

	if current.UserId == "" || current.PatientId == "" {
		h.logger.Warnw("watch status without patient")
		return nil
	}

	logger := h.logger.With("userId", current.UserId, "patientId", current.PatientId)
	var alerts []Alert
	err := h.states.Update(ctx, current.UserId, current.PatientId, func(state *State) error {
		from := state.Connection
		now := h.now()
		// The transaction may be retried
		alerts = h.machine.Transition(state, previous, current, now)
		state.UpdatedTime = now
		if from != state.Connection {
			logger.Infow("watch connection state changed", "from", from, "to", state.Connection)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, alert := range alerts {
		sent := h.dispatcher.SendToUser(ctx, current.UserId, NewNotification(current.PatientId, alert, h.machine.disconnectThreshold))
		logger.Infow("watch alert sent", "kind", alert.Kind, "threshold", alert.Threshold, "sent", sent)
	}
	return nil
}

func NewNotification(patientId string, alert Alert, disconnectThreshold time.Duration) push.Notification {
	if alert.Kind == AlertDisconnected {
		return push.Notification{
			Title: "Watch Disconnected",
			Body:  fmt.Sprintf("The paired watch has been disconnected for over %d minutes.", int(disconnectThreshold.Minutes())),
			Data: map[string]string{
				"type":      string(AlertDisconnected),
				"patientId": patientId,
				"screen":    "activity",
				"channelId": push.ChannelWatchStatus,
			},
		}
	}

	level := strconv.FormatFloat(alert.BatteryLevel, 'f', -1, 64)
	return push.Notification{
		Title: "Watch Battery Low",
		Body:  fmt.Sprintf("Watch battery is at %s%%. Please charge soon.", level),
		Data: map[string]string{
			"type":         string(AlertLowBattery),
			"patientId":    patientId,
			"batteryLevel": level,
			"channelId":    push.ChannelWatchStatus,
		},
	}
}
