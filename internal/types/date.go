// README: Calendar-date helpers; stays are expressed as [checkin, checkout) ranges of civil dates.
package types

import (
	"time"

	"cloud.google.com/go/civil"
)

// Weekday returns the day of week of a calendar date.
func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// Nights returns the number of nights in [checkin, checkout). It is negative when
// checkout precedes checkin.
func Nights(checkin, checkout civil.Date) int {
	return checkout.DaysSince(checkin)
}

// StayDates lists every night of [checkin, checkout) in order. Checkout is exclusive.
func StayDates(checkin, checkout civil.Date) []civil.Date {
	n := Nights(checkin, checkout)
	if n <= 0 {
		return nil
	}
	dates := make([]civil.Date, 0, n)
	for d := checkin; d.Before(checkout); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

// DateInRange reports whether start <= d <= end (both ends inclusive).
func DateInRange(d, start, end civil.Date) bool {
	return !d.Before(start) && !d.After(end)
}
