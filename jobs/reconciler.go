package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/config"
	"github.com/tidepool-org/caretrack/patients"
	"github.com/tidepool-org/caretrack/summary"
)

// maxDrift is the difference between counted and stored events tolerated without a correction
const maxDrift = 1

// Reconciler corrects the total event count of today's summaries from the activity records
type Reconciler struct {
	patients  patients.Repository
	records   activity.Repository
	summaries summary.Repository
	location  *time.Location
	timeout   time.Duration
	logger    *zap.SugaredLogger
	now       func() time.Time
}

var _ Job = &Reconciler{}

type ReconcilerParams struct {
	fx.In

	Patients  patients.Repository
	Records   activity.Repository
	Summaries summary.Repository
	Location  *time.Location
	Config    *config.Config
	Logger    *zap.SugaredLogger
	Now       func() time.Time `optional:"true"`
}

func NewReconciler(p ReconcilerParams) *Reconciler {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		patients:  p.Patients,
		records:   p.Records,
		summaries: p.Summaries,
		location:  p.Location,
		timeout:   p.Config.JobTimeout,
		logger:    p.Logger,
		now:       now,
	}
}

func (r *Reconciler) Name() string {
	return "reconcile"
}

func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	today := summary.DateKey(r.now(), r.location)
	start, end, err := summary.DayRange(today, r.location)
	if err != nil {
		return Result{}, err
	}

	r.logger.Infow("daily summary rollup started", "date", today)
	result := Result{Date: today}
	err = sweep(ctx, r.patients, &result, func(ctx context.Context, patient patients.Patient) (outcome, error) {
		return r.reconcile(ctx, patient, today, start, end)
	}, func(patient patients.Patient, err error) {
		r.logger.Errorw("rollup failed for patient", "userId", patient.UserId, "patientId", patient.PatientId, zap.Error(err))
	})
	if err != nil {
		r.logger.Errorw("daily summary rollup aborted", "date", today, zap.Error(err))
		return result, err
	}

	r.logger.Infow("daily summary rollup completed", "date", today, "patients", result.Patients, "reconciled", result.Updated, "failed", result.Failed)
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, patient patients.Patient, date string, start time.Time, end time.Time) (outcome, error) {
	tally, err := r.records.Tally(ctx, patient.UserId, patient.PatientId, start, end)
	if err != nil {
		return outcomeSkipped, err
	}
	if tally.TotalEvents == 0 {
		return outcomeSkipped, nil
	}

	key := summary.Key{UserId: patient.UserId, PatientId: patient.PatientId, Date: date}
	stored := 0
	existing, err := r.summaries.Get(ctx, key)
	if err == nil {
		stored = existing.TotalEvents
	} else if !errors.Is(err, summary.ErrNotFound) {
		return outcomeSkipped, err
	}

	drift := tally.TotalEvents - stored
	if drift <= maxDrift && drift >= -maxDrift {
		return outcomeSkipped, nil
	}

	r.logger.Warnw("summary drift detected, reconciling", "userId", patient.UserId, "patientId", patient.PatientId, "actualTotal", tally.TotalEvents, "storedTotal", stored)
	if err := r.summaries.Reconcile(ctx, key, tally.TotalEvents, r.now()); err != nil {
		return outcomeSkipped, err
	}
	return outcomeUpdated, nil
}
