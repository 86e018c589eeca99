package triggers

import (
	"go.uber.org/fx"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/reminders"
	"github.com/tidepool-org/caretrack/safezones"
	"github.com/tidepool-org/caretrack/summary"
	"github.com/tidepool-org/caretrack/watch"
)

type RoutesParams struct {
	fx.In

	Ingestor   *activity.Ingestor
	Aggregator *summary.Aggregator
	Reminders  *reminders.Handler
	SafeZones  *safezones.Handler
	Watch      *watch.Handler
}

func NewRoutes(p RoutesParams) []Route {
	return []Route{
		{
			Name:       "activityRecords",
			Collection: activity.RecordsCollectionName,
			Operations: []string{OperationInsert},
			Handlers: map[string]HandlerFunc{
				"activity":  OnDocument(p.Ingestor.Ingest),
				"summary":   OnDocument(p.Aggregator.Aggregate),
				"reminders": OnDocument(p.Reminders.Handle),
			},
		},
		{
			Name:       "safeZoneEvents",
			Collection: safezones.EventsCollectionName,
			Operations: []string{OperationInsert},
			Handlers: map[string]HandlerFunc{
				"safezones": OnDocument(p.SafeZones.Handle),
			},
		},
		{
			Name:       "watchStatus",
			Collection: watch.StatusCollectionName,
			Operations: []string{OperationInsert, OperationUpdate, OperationReplace, OperationDelete},
			PreImages:  true,
			Handlers: map[string]HandlerFunc{
				"watch": OnChange(p.Watch.Handle),
			},
		},
	}
}
