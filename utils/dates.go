// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// NextAnniversary returns the next occurrence of event's month and day on or
// after from, in from's location. Feb 29 falls back to Feb 28 in common years.
func NextAnniversary(event, from time.Time) time.Time {
	from = BeginningOfDay(from)
	candidate := anniversaryIn(event, from.Year(), from.Location())
	if candidate.Before(from) {
		candidate = anniversaryIn(event, from.Year()+1, from.Location())
	}
	return candidate
}

func anniversaryIn(event time.Time, year int, loc *time.Location) time.Time {
	month, day := event.Month(), event.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
