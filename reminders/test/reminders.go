package test

import (
	"context"

	"github.com/tidepool-org/caretrack/reminders"
)

type Repository struct {
	Reminders map[string]reminders.Reminder
	Err       error
}

var _ reminders.Repository = &Repository{}

func NewRepository(items ...reminders.Reminder) *Repository {
	r := &Repository{Reminders: make(map[string]reminders.Reminder)}
	for _, item := range items {
		r.Reminders[item.Id] = item
	}
	return r
}

func (r *Repository) Get(_ context.Context, userId string, patientId string, reminderId string) (*reminders.Reminder, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	reminder, ok := r.Reminders[reminderId]
	if !ok || reminder.UserId != userId || reminder.PatientId != patientId {
		return nil, reminders.ErrNotFound
	}
	return &reminder, nil
}
