package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/config"
)

// Scheduler runs the reconciliation and report sweeps on their cron schedules
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.SugaredLogger
}

type SchedulerParams struct {
	fx.In

	Reconciler *Reconciler
	Reporter   *Reporter
	Location   *time.Location
	Config     *config.Config
	Logger     *zap.SugaredLogger
	Lifecycle  fx.Lifecycle
}

func NewScheduler(p SchedulerParams) (*Scheduler, error) {
	logger := cronLogger{logger: p.Logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(p.Location),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
			cron.WithLogger(logger),
		),
		logger: p.Logger,
	}

	if err := s.Add(p.Config.ReconciliationSchedule, p.Reconciler); err != nil {
		return nil, err
	}
	if err := s.Add(p.Config.DailyReportSchedule, p.Reporter); err != nil {
		return nil, err
	}

	if p.Config.SchedulerEnabled {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				s.cron.Start()
				p.Logger.Infow("scheduler started", "entries", len(s.cron.Entries()))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return s.Stop(ctx)
			},
		})
	}

	return s, nil
}

func (s *Scheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := job.Run(context.Background()); err != nil {
			s.logger.Errorw("scheduled job failed", "job", job.Name(), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q of job %s: %w", spec, job.Name(), err)
	}
	return nil
}

// Stop waits for running jobs to complete or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

type cronLogger struct {
	logger *zap.SugaredLogger
}

var _ cron.Logger = cronLogger{}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Errorw(msg, append(keysAndValues, zap.Error(err))...)
}
