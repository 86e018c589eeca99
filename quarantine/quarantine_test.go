package quarantine_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/quarantine"
	dbTest "github.com/tidepool-org/caretrack/store/test"
)

var _ = Describe("Quarantine", func() {
	var raw bson.Raw

	BeforeEach(func() {
		var err error
		raw, err = bson.Marshal(bson.M{"_id": "record-1", "userId": "user-1", "eventType": "location_update"})
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("NewEvent", func() {
		It("copies the identifiers of the source document", func() {
			now := time.Now()
			event := quarantine.NewEvent("activityRecords", raw, "missing patientId, timestamp", now)

			Expect(event.Id).To(Equal("activityRecords/record-1"))
			Expect(event.SourceId).To(Equal("record-1"))
			Expect(event.UserId).To(Equal("user-1"))
			Expect(event.PatientId).To(BeEmpty())
			Expect(event.QuarantinedTime).To(Equal(now))
			Expect(event.Payload).To(Equal(raw))
		})

		It("derives the id from object ids", func() {
			id := primitive.NewObjectID()
			raw, err := bson.Marshal(bson.M{"_id": id, "userId": "user-1"})
			Expect(err).ToNot(HaveOccurred())

			first := quarantine.NewEvent("activityRecords", raw, "missing patientId", time.Now())
			second := quarantine.NewEvent("activityRecords", raw, "missing patientId", time.Now())
			Expect(first.SourceId).To(Equal(id.Hex()))
			Expect(first.Id).To(Equal("activityRecords/" + id.Hex()))
			Expect(second.Id).To(Equal(first.Id))
		})

		It("derives the id from other id types", func() {
			raw, err := bson.Marshal(bson.M{"_id": int32(42)})
			Expect(err).ToNot(HaveOccurred())

			event := quarantine.NewEvent("activityRecords", raw, "missing patientId", time.Now())
			Expect(event.SourceId).ToNot(BeEmpty())
			Expect(quarantine.NewEvent("activityRecords", raw, "missing patientId", time.Now()).Id).To(Equal(event.Id))
		})

		It("leaves the id empty when the document has none", func() {
			raw, err := bson.Marshal(bson.M{"userId": "user-1"})
			Expect(err).ToNot(HaveOccurred())

			event := quarantine.NewEvent("activityRecords", raw, "missing patientId", time.Now())
			Expect(event.Id).To(BeEmpty())
			Expect(event.SourceId).To(BeEmpty())
		})
	})

	Describe("Repository", func() {
		var repo quarantine.Repository
		var collection *mongo.Collection

		BeforeEach(func() {
			database := dbTest.GetTestDatabase()
			collection = database.Collection(quarantine.CollectionName)
			lifecycle := fxtest.NewLifecycle(GinkgoT())

			var err error
			repo, err = quarantine.NewRepository(database, zap.NewNop().Sugar(), lifecycle)
			Expect(err).ToNot(HaveOccurred())
			lifecycle.RequireStart()
		})

		AfterEach(func() {
			_ = collection.Drop(context.Background())
		})

		It("stores the raw payload once per source document", func() {
			event := quarantine.NewEvent("activityRecords", raw, "missing patientId", time.Now())
			Expect(repo.Create(context.Background(), event)).To(Succeed())
			Expect(repo.Create(context.Background(), event)).To(Succeed())

			count, err := collection.CountDocuments(context.Background(), bson.M{})
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(int64(1)))

			stored, err := collection.FindOne(context.Background(), bson.M{"_id": event.Id}).Raw()
			Expect(err).ToNot(HaveOccurred())
			Expect(stored.Lookup("payload", "eventType").StringValue()).To(Equal("location_update"))
			Expect(stored.Lookup("quarantinedTime").Type).To(Equal(bson.TypeDateTime))
		})
	})
})
