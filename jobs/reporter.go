package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/config"
	"github.com/tidepool-org/caretrack/patients"
	"github.com/tidepool-org/caretrack/push"
	"github.com/tidepool-org/caretrack/summary"
)

// Reporter sends caregivers a digest of today's summary of each patient
type Reporter struct {
	patients   patients.Repository
	summaries  summary.Repository
	dispatcher push.Dispatcher
	location   *time.Location
	timeout    time.Duration
	logger     *zap.SugaredLogger
	now        func() time.Time
}

var _ Job = &Reporter{}

type ReporterParams struct {
	fx.In

	Patients   patients.Repository
	Summaries  summary.Repository
	Dispatcher push.Dispatcher
	Location   *time.Location
	Config     *config.Config
	Logger     *zap.SugaredLogger
	Now        func() time.Time `optional:"true"`
}

func NewReporter(p ReporterParams) *Reporter {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Reporter{
		patients:   p.Patients,
		summaries:  p.Summaries,
		dispatcher: p.Dispatcher,
		location:   p.Location,
		timeout:    p.Config.JobTimeout,
		logger:     p.Logger,
		now:        now,
	}
}

func (r *Reporter) Name() string {
	return "report"
}

func (r *Reporter) Run(ctx context.Context) (Result, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	today := summary.DateKey(r.now(), r.location)
	r.logger.Infow("daily report notification started", "date", today)

	result := Result{Date: today}
	err := sweep(ctx, r.patients, &result, func(ctx context.Context, patient patients.Patient) (outcome, error) {
		return r.report(ctx, patient, today)
	}, func(patient patients.Patient, err error) {
		r.logger.Errorw("daily report push failed", "userId", patient.UserId, "patientId", patient.PatientId, zap.Error(err))
	})
	if err != nil {
		r.logger.Errorw("daily report notifications aborted", "date", today, zap.Error(err))
		return result, err
	}

	r.logger.Infow("daily report notifications completed", "date", today, "patients", result.Patients, "reported", result.Updated, "failed", result.Failed)
	return result, nil
}

func (r *Reporter) report(ctx context.Context, patient patients.Patient, date string) (outcome, error) {
	key := summary.Key{UserId: patient.UserId, PatientId: patient.PatientId, Date: date}
	s, err := r.summaries.Get(ctx, key)
	if errors.Is(err, summary.ErrNotFound) {
		return outcomeSkipped, nil
	} else if err != nil {
		return outcomeSkipped, err
	}

	sent := r.dispatcher.SendToUser(ctx, patient.UserId, NewReportNotification(patient, s))
	r.logger.Debugw("daily report sent", "userId", patient.UserId, "patientId", patient.PatientId, "sent", sent)
	return outcomeUpdated, nil
}

func NewReportNotification(patient patients.Patient, s *summary.DailySummary) push.Notification {
	return push.Notification{
		Title: "Daily Activity Report",
		Body: fmt.Sprintf("%s: %d events, %d zone exits, %dm traveled today.",
			patient.DisplayName(), s.TotalEvents, s.SafeZoneExits, int64(math.Round(s.DistanceMeters))),
		Data: map[string]string{
			"type":      "daily_report",
			"patientId": patient.PatientId,
			"screen":    "activity",
			"channelId": push.ChannelDailyReport,
		},
	}
}
