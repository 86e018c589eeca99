package activity

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/ledger"
	"github.com/tidepool-org/caretrack/quarantine"
)

// Ingestor validates new activity records and maintains the latest location projection
type Ingestor struct {
	ledger     ledger.Ledger
	quarantine quarantine.Repository
	locations  LatestLocationRepository
	logger     *zap.SugaredLogger
	now        func() time.Time
}

type IngestorParams struct {
	fx.In

	Ledger     ledger.Ledger
	Quarantine quarantine.Repository
	Locations  LatestLocationRepository
	Logger     *zap.SugaredLogger
	Now        func() time.Time `optional:"true"`
}

func NewIngestor(p IngestorParams) *Ingestor {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Ingestor{
		ledger:     p.Ledger,
		quarantine: p.Quarantine,
		locations:  p.Locations,
		logger:     p.Logger,
		now:        now,
	}
}

func (i *Ingestor) Ingest(ctx context.Context, raw bson.Raw) error {
	record, err := Decode(raw)
	if err == nil {
		err = record.Validate()
	}
	if errors.Is(err, ErrInvalidRecord) {
		i.logger.Warnw("malformed activity record, quarantining", "recordId", record.Id, "userId", record.UserId, zap.Error(err))
		return i.quarantine.Create(ctx, quarantine.NewEvent(RecordsCollectionName, raw, err.Error(), i.now()))
	} else if err != nil {
		return err
	}

	scope := ledger.Scope{UserId: record.UserId, PatientId: record.GetPatientId()}
	ran, err := i.ledger.Once(ctx, scope, "activity_"+record.Id, func(ctx context.Context) error {
		if !record.HasLocation() {
			return nil
		}
		return i.locations.Upsert(ctx, LatestLocation{
			UserId:      record.UserId,
			PatientId:   record.GetPatientId(),
			Latitude:    *record.Latitude,
			Longitude:   *record.Longitude,
			Timestamp:   *record.Timestamp,
			UpdatedTime: i.now(),
		})
	})
	if err != nil {
		return err
	}
	if ran {
		i.logger.Infow("activity record processed", "userId", record.UserId, "patientId", record.GetPatientId(), "recordId", record.Id, "eventType", record.GetEventType())
	}
	return nil
}
