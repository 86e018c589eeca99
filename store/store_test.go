package store_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tidepool-org/caretrack/store"
)

var _ = Describe("Store", func() {
	Describe("IsDuplicateKeyError", func() {
		It("detects duplicate key write errors", func() {
			err := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
			Expect(store.IsDuplicateKeyError(err)).To(BeTrue())
		})

		It("detects wrapped duplicate key errors", func() {
			err := fmt.Errorf("insert failed: %w", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}})
			Expect(store.IsDuplicateKeyError(err)).To(BeTrue())
		})

		It("ignores other server errors", func() {
			err := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121}}}
			Expect(store.IsDuplicateKeyError(err)).To(BeFalse())
		})

		It("ignores nil", func() {
			Expect(store.IsDuplicateKeyError(nil)).To(BeFalse())
		})
	})

	Describe("IsNotFound", func() {
		It("matches wrapped ErrNoDocuments", func() {
			Expect(store.IsNotFound(fmt.Errorf("lookup: %w", mongo.ErrNoDocuments))).To(BeTrue())
			Expect(store.IsNotFound(fmt.Errorf("lookup failed"))).To(BeFalse())
		})
	})

	Describe("Config", func() {
		It("builds a replica set connection string", func() {
			cfg := store.Config{Scheme: "mongodb", Hosts: "db-0,db-1", User: "svc", Password: "pw", ReplicaSet: "rs0"}
			uri, err := cfg.GetConnectionString()
			Expect(err).ToNot(HaveOccurred())
			Expect(uri).To(Equal("mongodb://svc:pw@db-0,db-1/?ssl=false&replicaSet=rs0"))
		})

		It("defaults to localhost", func() {
			cfg := store.Config{Ssl: true, OptParams: "authSource=admin"}
			uri, err := cfg.GetConnectionString()
			Expect(err).ToNot(HaveOccurred())
			Expect(uri).To(Equal("mongodb://localhost/?ssl=true&authSource=admin"))
		})
	})
})
