package summary

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tidepool-org/caretrack/activity"
	"github.com/tidepool-org/caretrack/geo"
)

// Apply folds a single activity record into the summary. Records must have been validated.
func (s *DailySummary) Apply(record activity.Record) {
	s.TotalEvents++

	switch record.GetEventType() {
	case activity.EventTypeSafeZoneExit:
		s.SafeZoneExits++
	case activity.EventTypeReminderTriggered:
		s.RemindersTriggered++
	case activity.EventTypeLocationUpdate:
		if record.HasLocation() {
			s.applyLocation(*record.Latitude, *record.Longitude)
		}
	}
}

func (s *DailySummary) applyLocation(lat float64, lng float64) {
	visited := mapset.NewThreadUnsafeSet[string](s.VisitedCells...)
	if cell := geo.LocationCellKey(lat, lng); visited.Add(cell) {
		s.VisitedCells = append(s.VisitedCells, cell)
		s.PlacesVisited = len(s.VisitedCells)
	}

	if s.LastLat != nil && s.LastLng != nil {
		s.DistanceMeters += geo.HaversineDistance(*s.LastLat, *s.LastLng, lat, lng)
	}

	s.LastLat = &lat
	s.LastLng = &lng
}
