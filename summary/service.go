package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/errors"
)

type RebuildRequest struct {
	PatientId string `json:"patientId"`
	// Date is optional and defaults to today
	Date string `json:"date,omitempty"`
}

type RebuildResult struct {
	Success            bool `json:"success"`
	TotalEvents        int  `json:"totalEvents"`
	SafeZoneExits      int  `json:"safeZoneExits"`
	RemindersTriggered int  `json:"remindersTriggered"`
}

type Service interface {
	// Rebuild recounts the event counters of a day from the stored activity records
	Rebuild(ctx context.Context, userId string, request RebuildRequest) (*RebuildResult, error)
}

type service struct {
	repo     Repository
	records  activity.Repository
	location *time.Location
	logger   *zap.SugaredLogger
	now      func() time.Time
}

var _ Service = &service{}

type ServiceParams struct {
	fx.In

	Repository Repository
	Records    activity.Repository
	Location   *time.Location
	Logger     *zap.SugaredLogger
	Now        func() time.Time `optional:"true"`
}

func NewService(p ServiceParams) Service {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     p.Repository,
		records:  p.Records,
		location: p.Location,
		logger:   p.Logger,
		now:      now,
	}
}

func (s *service) Rebuild(ctx context.Context, userId string, request RebuildRequest) (*RebuildResult, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: must be authenticated", errors.Unauthenticated)
	}
	patientId := strings.TrimSpace(request.PatientId)
	if patientId == "" {
		return nil, fmt.Errorf("%w: patientId is required", errors.InvalidArgument)
	}

	now := s.now()
	date := request.Date
	if date == "" {
		date = DateKey(now, s.location)
	}
	start, end, err := DayRange(date, s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be formatted as yyyy-MM-dd", errors.InvalidArgument)
	}

	tally, err := s.records.Tally(ctx, userId, patientId, start, end)
	if err != nil {
		return nil, err
	}

	key := Key{UserId: userId, PatientId: patientId, Date: date}
	if err := s.repo.Rebuild(ctx, key, tally, now); err != nil {
		return nil, err
	}

	s.logger.Infow("manual summary rebuild", "userId", userId, "patientId", patientId, "date", date, "totalEvents", tally.TotalEvents)
	return &RebuildResult{
		Success:            true,
		TotalEvents:        tally.TotalEvents,
		SafeZoneExits:      tally.SafeZoneExits,
		RemindersTriggered: tally.RemindersTriggered,
	}, nil
}
