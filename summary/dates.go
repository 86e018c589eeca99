package summary

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// DateKey returns the yyyy-MM-dd calendar date of t in loc
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// DayRange returns the start of the date in loc and the instant 24 hours later
func DayRange(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return start, start.Add(24 * time.Hour), nil
}
