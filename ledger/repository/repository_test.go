package repository_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/ledger"
	"github.com/tidepool-org/caretrack/ledger/repository"
	ledgerTest "github.com/tidepool-org/caretrack/ledger/test"
	dbTest "github.com/tidepool-org/caretrack/store/test"
)

var _ = Describe("Ledger Repository", func() {
	var repo ledger.Repository
	var scope ledger.Scope
	var now time.Time

	BeforeEach(func() {
		var err error
		lifecycle := fxtest.NewLifecycle(GinkgoT())
		repo, err = repository.NewRepository(dbTest.GetTestDatabase(), zap.NewNop().Sugar(), lifecycle)
		Expect(err).ToNot(HaveOccurred())
		lifecycle.RequireStart()

		scope = ledgerTest.RandomScope()
		now = time.Now().UTC().Truncate(time.Millisecond)
	})

	It("returns not found for unknown markers", func() {
		_, err := repo.Get(context.Background(), scope, "activity_1")
		Expect(err).To(MatchError(ledger.ErrNotFound))
	})

	It("claims a marker only once", func() {
		claimed, err := repo.Claim(context.Background(), scope, "activity_1", now, now.Add(-time.Minute))
		Expect(err).ToNot(HaveOccurred())
		Expect(claimed).To(BeTrue())

		claimed, err = repo.Claim(context.Background(), scope, "activity_1", now, now.Add(-time.Minute))
		Expect(err).ToNot(HaveOccurred())
		Expect(claimed).To(BeFalse())
	})

	It("takes over stale claims", func() {
		_, err := repo.Claim(context.Background(), scope, "activity_1", now.Add(-time.Hour), now.Add(-2*time.Hour))
		Expect(err).ToNot(HaveOccurred())

		claimed, err := repo.Claim(context.Background(), scope, "activity_1", now, now.Add(-time.Minute))
		Expect(err).ToNot(HaveOccurred())
		Expect(claimed).To(BeTrue())
	})

	It("never claims processed markers", func() {
		Expect(repo.MarkProcessed(context.Background(), scope, "activity_1", now.Add(-time.Hour))).To(Succeed())

		claimed, err := repo.Claim(context.Background(), scope, "activity_1", now, now.Add(-time.Minute))
		Expect(err).ToNot(HaveOccurred())
		Expect(claimed).To(BeFalse())

		marker, err := repo.Get(context.Background(), scope, "activity_1")
		Expect(err).ToNot(HaveOccurred())
		Expect(marker.IsProcessed()).To(BeTrue())
		Expect(marker.ClaimedTime).To(BeNil())
	})

	It("releases unfinished claims", func() {
		_, err := repo.Claim(context.Background(), scope, "activity_1", now, now.Add(-time.Minute))
		Expect(err).ToNot(HaveOccurred())
		Expect(repo.Release(context.Background(), scope, "activity_1")).To(Succeed())

		_, err = repo.Get(context.Background(), scope, "activity_1")
		Expect(err).To(MatchError(ledger.ErrNotFound))
	})

	It("does not release processed markers", func() {
		Expect(repo.MarkProcessed(context.Background(), scope, "activity_1", now)).To(Succeed())
		Expect(repo.Release(context.Background(), scope, "activity_1")).To(Succeed())

		marker, err := repo.Get(context.Background(), scope, "activity_1")
		Expect(err).ToNot(HaveOccurred())
		Expect(marker.ProcessedTime.UTC()).To(Equal(now))
	})
})
