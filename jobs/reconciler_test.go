package jobs_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/activity"
	activityTest "github.com/tidepool-org/caretrack/activity/test"
	"github.com/tidepool-org/caretrack/config"
	"github.com/tidepool-org/caretrack/jobs"
	"github.com/tidepool-org/caretrack/patients"
	patientsTest "github.com/tidepool-org/caretrack/patients/test"
	"github.com/tidepool-org/caretrack/summary"
	summaryTest "github.com/tidepool-org/caretrack/summary/test"
	"github.com/tidepool-org/caretrack/test"
)

// expiringRecords ends the job context on the first tally
type expiringRecords struct {
	activity.Repository
	expire context.CancelFunc
}

func (e expiringRecords) Tally(ctx context.Context, userId string, patientId string, start time.Time, end time.Time) (activity.Tally, error) {
	e.expire()
	return e.Repository.Tally(ctx, userId, patientId, start, end)
}

var _ = Describe("Reconciler", func() {
	var reconciler *jobs.Reconciler
	var patientsRepo *patientsTest.Repository
	var records *activityTest.Repository
	var summaries *summaryTest.Repository
	var clock *test.Clock
	var patient patients.Patient
	var key summary.Key

	BeforeEach(func() {
		clock = test.NewClock(time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC))
		patient = patientsTest.RandomPatient()
		patientsRepo = patientsTest.NewRepository(patient)
		records = activityTest.NewRepository()
		summaries = summaryTest.NewRepository()
		reconciler = jobs.NewReconciler(jobs.ReconcilerParams{
			Patients:  patientsRepo,
			Records:   records,
			Summaries: summaries,
			Location:  time.UTC,
			Config:    &config.Config{JobTimeout: time.Minute},
			Logger:    zap.NewNop().Sugar(),
			Now:       clock.Now,
		})
		key = summary.Key{UserId: patient.UserId, PatientId: patient.PatientId, Date: "2024-03-01"}
	})

	addRecords := func(count int, timestamp time.Time) {
		for i := 0; i < count; i++ {
			records.Add(activityTest.RandomRecord(patient.UserId, patient.PatientId, activity.EventTypeLocationUpdate, timestamp))
		}
	}

	It("does not start a sweep when the job context already expired", func() {
		addRecords(5, clock.Now().Add(-time.Hour))
		ctx, cancel := context.WithDeadline(context.Background(), clock.Now().Add(-time.Minute))
		defer cancel()

		result, err := reconciler.Run(ctx)
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(result.Patients).To(Equal(0))

		_, err = summaries.Get(context.Background(), key)
		Expect(err).To(MatchError(summary.ErrNotFound))
	})

	It("stops the sweep when the job context expires", func() {
		patientsRepo.Patients = append(patientsRepo.Patients, patientsTest.RandomPatient(), patientsTest.RandomPatient())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reconciler = jobs.NewReconciler(jobs.ReconcilerParams{
			Patients:  patientsRepo,
			Records:   expiringRecords{Repository: records, expire: cancel},
			Summaries: summaries,
			Location:  time.UTC,
			Config:    &config.Config{JobTimeout: time.Minute},
			Logger:    zap.NewNop().Sugar(),
			Now:       clock.Now,
		})

		result, err := reconciler.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(result.Patients).To(Equal(1))
	})

	It("skips patients without records today", func() {
		addRecords(3, clock.Now().Add(-24*time.Hour))

		result, err := reconciler.Run(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(jobs.Result{Date: "2024-03-01", Patients: 1, Skipped: 1}))

		_, err = summaries.Get(context.Background(), key)
		Expect(err).To(MatchError(summary.ErrNotFound))
	})

	It("tolerates a drift of one event", func() {
		addRecords(5, clock.Now().Add(-time.Hour))
		summaries.Put(summary.DailySummary{UserId: patient.UserId, PatientId: patient.PatientId, Date: "2024-03-01", TotalEvents: 4})

		result, err := reconciler.Run(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Updated).To(Equal(0))

		s, err := summaries.Get(context.Background(), key)
		Expect(err).ToNot(HaveOccurred())
		Expect(s.TotalEvents).To(Equal(4))
		Expect(s.ReconciledTime).To(BeNil())
	})

	It("overwrites drifted totals", func() {
		addRecords(5, clock.Now().Add(-time.Hour))
		summaries.Put(summary.DailySummary{UserId: patient.UserId, PatientId: patient.PatientId, Date: "2024-03-01", TotalEvents: 9, DistanceMeters: 42})

		result, err := reconciler.Run(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Updated).To(Equal(1))

		s, err := summaries.Get(context.Background(), key)
		Expect(err).ToNot(HaveOccurred())
		Expect(s.TotalEvents).To(Equal(5))
		Expect(s.DistanceMeters).To(Equal(42.0))
		Expect(*s.ReconciledTime).To(Equal(clock.Now()))
	})

	It("creates missing summaries", func() {
		addRecords(2, clock.Now().Add(-time.Hour))

		_, err := reconciler.Run(context.Background())
		Expect(err).ToNot(HaveOccurred())

		s, err := summaries.Get(context.Background(), key)
		Expect(err).ToNot(HaveOccurred())
		Expect(s.TotalEvents).To(Equal(2))
	})

	It("continues after per patient failures", func() {
		records.FailWith(errors.New("timeout"))
		patientsRepo.Patients = append(patientsRepo.Patients, patientsTest.RandomPatient())

		result, err := reconciler.Run(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Patients).To(Equal(2))
		Expect(result.Failed).To(Equal(2))
	})

	It("fails when patients cannot be listed", func() {
		patientsRepo.Err = errors.New("unavailable")
		_, err := reconciler.Run(context.Background())
		Expect(err).To(HaveOccurred())
	})
})
