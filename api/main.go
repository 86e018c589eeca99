package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/auth"
	"github.com/tidepool-org/caretrack/cloud"
	"github.com/tidepool-org/caretrack/config"
	"github.com/tidepool-org/caretrack/devices"
	"github.com/tidepool-org/caretrack/jobs"
	"github.com/tidepool-org/caretrack/ledger"
	ledgerRepository "github.com/tidepool-org/caretrack/ledger/repository"
	"github.com/tidepool-org/caretrack/logger"
	"github.com/tidepool-org/caretrack/patients"
	"github.com/tidepool-org/caretrack/push"
	"github.com/tidepool-org/caretrack/quarantine"
	"github.com/tidepool-org/caretrack/reminders"
	"github.com/tidepool-org/caretrack/safezones"
	"github.com/tidepool-org/caretrack/store"
	"github.com/tidepool-org/caretrack/summary"
	summaryRepository "github.com/tidepool-org/caretrack/summary/repository"
	"github.com/tidepool-org/caretrack/triggers"
	"github.com/tidepool-org/caretrack/watch"
)

func Start(e *echo.Echo, cfg *config.Config, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.HttpPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorw("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func SetReady(healthCheck *HealthCheck, db *mongo.Database, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Client().Ping(ctx, nil); err != nil {
				return err
			}

			// It's important this is set after mongo is initialized, which is ensured
			// by taking a dependency on mongo in the constructor, because lifecycle hooks
			// are executed in topological order
			healthCheck.SetReady(true)
			return nil
		},
		OnStop: nil,
	})
}

// Dependencies returns the providers of the service dependency graph. Constructors run lazily,
// so one-shot commands only start what they depend on.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			config.NewConfig,
			config.NewLocation,
			logger.NewProductionLogger,
			logger.Suggar,
			store.NewConfig,
			store.NewClient,
			store.NewDatabase,
			ledgerRepository.NewRepository,
			ledger.NewLedger,
			devices.NewDeletionsRepository,
			devices.NewRepository,
			quarantine.NewRepository,
			activity.NewRepository,
			activity.NewLatestLocationRepository,
			activity.NewIngestor,
			summaryRepository.NewRepository,
			summary.NewAggregator,
			summary.NewService,
			safezones.NewZoneRepository,
			safezones.NewHandler,
			reminders.NewRepository,
			reminders.NewHandler,
			watch.NewStateRepository,
			watch.NewHandler,
			patients.NewRepository,
			cloud.NewConfig,
			cloud.NewApp,
			push.NewFCMSender,
			push.NewDispatcher,
			jobs.NewReconciler,
			jobs.NewReporter,
			jobs.NewScheduler,
			triggers.NewCursorRepository,
			triggers.NewRoutes,
			triggers.NewWatcher,
			auth.NewAuthenticator,
			NewHealthCheck,
			NewHandler,
			NewServer,
		),
	}
}

// MainLoop runs the http entry point, the change stream triggers and the scheduled jobs
func MainLoop() {
	deps := append(Dependencies(),
		fx.Invoke(SetReady),
		fx.Invoke(Start),
		fx.Invoke(func(*triggers.Watcher, *jobs.Scheduler) {}),
	)
	fx.New(deps...).Run()
}
