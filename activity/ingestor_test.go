package activity_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/activity"
	activityTest "github.com/tidepool-org/caretrack/activity/test"
	"github.com/tidepool-org/caretrack/config"
	"github.com/tidepool-org/caretrack/ledger"
	ledgerTest "github.com/tidepool-org/caretrack/ledger/test"
	quarantineTest "github.com/tidepool-org/caretrack/quarantine/test"
	"github.com/tidepool-org/caretrack/test"
)

var _ = Describe("Ingestor", func() {
	var ingestor *activity.Ingestor
	var locations *activityTest.LatestLocationRepository
	var quarantined *quarantineTest.Repository
	var ledgerRepo *ledgerTest.Repository
	var clock *test.Clock
	var userId, patientId string

	BeforeEach(func() {
		clock = test.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
		locations = activityTest.NewLatestLocationRepository()
		quarantined = quarantineTest.NewRepository()
		ledgerRepo = ledgerTest.NewRepository()
		lgr, err := ledger.NewLedger(ledger.Params{
			Repository: ledgerRepo,
			Config:     &config.Config{IdempotencyClaimLease: time.Minute},
			Logger:     zap.NewNop().Sugar(),
			Now:        clock.Now,
		})
		Expect(err).ToNot(HaveOccurred())

		ingestor = activity.NewIngestor(activity.IngestorParams{
			Ledger:     lgr,
			Quarantine: quarantined,
			Locations:  locations,
			Logger:     zap.NewNop().Sugar(),
			Now:        clock.Now,
		})
		userId = test.RandomId()
		patientId = test.RandomId()
	})

	It("quarantines records without a timestamp", func() {
		raw, err := bson.Marshal(bson.M{"_id": "record", "userId": userId, "patientId": patientId, "eventType": "location_update"})
		Expect(err).ToNot(HaveOccurred())

		Expect(ingestor.Ingest(context.Background(), raw)).To(Succeed())

		events := quarantined.Events()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Payload).To(Equal(bson.Raw(raw)))
		Expect(events[0].QuarantinedTime).To(Equal(clock.Now()))
		Expect(events[0].Reason).To(ContainSubstring("timestamp"))
		Expect(ledgerRepo.Count()).To(Equal(0))
	})

	It("updates the latest location of records with coordinates", func() {
		record := activityTest.LocationRecord(userId, patientId, clock.Now().Add(-time.Minute), 52.52, 13.405)

		Expect(ingestor.Ingest(context.Background(), activityTest.Raw(record))).To(Succeed())

		location, ok := locations.Get(userId, patientId)
		Expect(ok).To(BeTrue())
		Expect(location.Latitude).To(Equal(52.52))
		Expect(location.Longitude).To(Equal(13.405))
		Expect(location.Timestamp).To(BeTemporally("==", *record.Timestamp))
		Expect(quarantined.Events()).To(BeEmpty())
	})

	It("marks records without coordinates as processed", func() {
		record := activityTest.RandomRecord(userId, patientId, activity.EventTypeReminderTriggered, clock.Now())

		Expect(ingestor.Ingest(context.Background(), activityTest.Raw(record))).To(Succeed())

		_, ok := locations.Get(userId, patientId)
		Expect(ok).To(BeFalse())
		marker, err := ledgerRepo.Get(context.Background(), ledger.Scope{UserId: userId, PatientId: patientId}, "activity_"+record.Id)
		Expect(err).ToNot(HaveOccurred())
		Expect(marker.IsProcessed()).To(BeTrue())
	})

	It("does not overwrite the latest location when a record is redelivered", func() {
		first := activityTest.LocationRecord(userId, patientId, clock.Now(), 1, 1)
		second := activityTest.LocationRecord(userId, patientId, clock.Now(), 2, 2)

		Expect(ingestor.Ingest(context.Background(), activityTest.Raw(first))).To(Succeed())
		Expect(ingestor.Ingest(context.Background(), activityTest.Raw(second))).To(Succeed())
		Expect(ingestor.Ingest(context.Background(), activityTest.Raw(first))).To(Succeed())

		location, _ := locations.Get(userId, patientId)
		Expect(location.Latitude).To(Equal(2.0))
	})
})
