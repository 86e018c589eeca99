package summary

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/ledger"
)

// Aggregator folds new activity records into the daily summary of the record's date
type Aggregator struct {
	repo     Repository
	ledger   ledger.Ledger
	location *time.Location
	logger   *zap.SugaredLogger
	now      func() time.Time
}

type AggregatorParams struct {
	fx.In

	Repository Repository
	Ledger     ledger.Ledger
	Location   *time.Location
	Logger     *zap.SugaredLogger
	Now        func() time.Time `optional:"true"`
}

func NewAggregator(p AggregatorParams) *Aggregator {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		repo:     p.Repository,
		ledger:   p.Ledger,
		location: p.Location,
		logger:   p.Logger,
		now:      now,
	}
}

func (a *Aggregator) Aggregate(ctx context.Context, raw bson.Raw) error {
	record, err := activity.Decode(raw)
	if err != nil {
		// Quarantined by the ingestor
		return nil
	}
	if record.Timestamp == nil || record.GetEventType() == "" || record.GetPatientId() == "" {
		return nil
	}

	key := Key{
		UserId:    record.UserId,
		PatientId: record.GetPatientId(),
		Date:      DateKey(*record.Timestamp, a.location),
	}
	scope := ledger.Scope{UserId: key.UserId, PatientId: key.PatientId}
	ran, err := a.ledger.Once(ctx, scope, "summary_"+record.Id, func(ctx context.Context) error {
		return a.repo.Update(ctx, key, func(s *DailySummary) error {
			s.Apply(record)
			s.UpdatedTime = a.now()
			return nil
		})
	})
	if err != nil {
		return err
	}
	if ran {
		a.logger.Infow("daily summary updated", "userId", key.UserId, "patientId", key.PatientId, "date", key.Date)
	}
	return nil
}
