package reminders

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/ledger"
	"github.com/tidepool-org/caretrack/push"
)

type Handler struct {
	reminders  Repository
	ledger     ledger.Ledger
	dispatcher push.Dispatcher
	logger     *zap.SugaredLogger
}

func NewHandler(reminders Repository, lgr ledger.Ledger, dispatcher push.Dispatcher, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		reminders:  reminders,
		ledger:     lgr,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *Handler) Handle(ctx context.Context, raw bson.Raw) error {
	record, err := activity.Decode(raw)
	if err != nil || record.GetEventType() != activity.EventTypeReminderTriggered {
		return nil
	}
	if record.GetPatientId() == "" {
		return nil
	}

	userId, patientId := record.UserId, record.GetPatientId()
	metadata, err := DecodeMetadata(record.Metadata)
	if err != nil {
		h.logger.Warnw("unable to decode reminder metadata", "recordId", record.Id, zap.Error(err))
	}

	scope := ledger.Scope{UserId: userId, PatientId: patientId}
	_, err = h.ledger.Once(ctx, scope, "reminder_push_"+record.Id, func(ctx context.Context) error {
		title := h.title(ctx, userId, patientId, metadata.ReminderId)
		sent := h.dispatcher.SendToUser(ctx, userId, NewNotification(patientId, metadata.ReminderId, title))
		h.logger.Infow("reminder push sent", "userId", userId, "patientId", patientId, "recordId", record.Id, "reminderId", metadata.ReminderId, "sent", sent)
		return nil
	})
	return err
}

func (h *Handler) title(ctx context.Context, userId string, patientId string, reminderId string) string {
	if reminderId == "" {
		return DefaultTitle
	}

	reminder, err := h.reminders.Get(ctx, userId, patientId, reminderId)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Warnw("failed to resolve reminder", "reminderId", reminderId, zap.Error(err))
		}
		return DefaultTitle
	}
	if reminder.Title == "" {
		return DefaultTitle
	}
	return reminder.Title
}

func NewNotification(patientId string, reminderId string, title string) push.Notification {
	return push.Notification{
		Title: DefaultTitle,
		Body:  title,
		Data: map[string]string{
			"type":       activity.EventTypeReminderTriggered,
			"patientId":  patientId,
			"reminderId": reminderId,
			"screen":     "memory_details",
			"channelId":  push.ChannelMemoryReminders,
		},
	}
}
