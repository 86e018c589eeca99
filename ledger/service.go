package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/config"
)

const (
	markAttempts = 3
	markDelay    = 50 * time.Millisecond
)

type service struct {
	repo   Repository
	lease  time.Duration
	now    func() time.Time
	logger *zap.SugaredLogger
}

var _ Ledger = &service{}

type Params struct {
	fx.In

	Repository Repository
	Config     *config.Config
	Logger     *zap.SugaredLogger
	Now        func() time.Time `optional:"true"`
}

func NewLedger(p Params) (Ledger, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   p.Repository,
		lease:  p.Config.IdempotencyClaimLease,
		now:    now,
		logger: p.Logger,
	}, nil
}

func (s *service) IsProcessed(ctx context.Context, scope Scope, lockId string) (bool, error) {
	marker, err := s.repo.Get(ctx, scope, lockId)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return marker.IsProcessed(), nil
}

func (s *service) MarkProcessed(ctx context.Context, scope Scope, lockId string) error {
	return s.repo.MarkProcessed(ctx, scope, lockId, s.now())
}

func (s *service) LastProcessed(ctx context.Context, scope Scope, lockId string) (*time.Time, error) {
	marker, err := s.repo.Get(ctx, scope, lockId)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	if !marker.IsProcessed() {
		return nil, nil
	}
	return marker.ProcessedTime, nil
}

func (s *service) Once(ctx context.Context, scope Scope, lockId string, fn func(ctx context.Context) error) (bool, error) {
	now := s.now()
	claimed, err := s.repo.Claim(ctx, scope, lockId, now, now.Add(-s.lease))
	if err != nil {
		return false, err
	}
	if !claimed {
		s.logger.Infow("already processed", "userId", scope.UserId, "patientId", scope.PatientId, "lockId", lockId)
		return false, nil
	}

	if err := fn(ctx); err != nil {
		if releaseErr := s.repo.Release(ctx, scope, lockId); releaseErr != nil {
			s.logger.Errorw("unable to release claim", "lockId", lockId, zap.Error(releaseErr))
		}
		return true, err
	}

	// A claim left behind would be taken over after the lease and run fn again
	err = retry.Do(
		func() error {
			return s.repo.MarkProcessed(ctx, scope, lockId, s.now())
		},
		retry.Attempts(markAttempts),
		retry.Delay(markDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		s.logger.Errorw("unable to mark claim as processed", "userId", scope.UserId, "patientId", scope.PatientId, "lockId", lockId, zap.Error(err))
	}
	return true, err
}
