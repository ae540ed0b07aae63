package domain

import "time"

// BillableHours truncates the window to whole hours with a one-hour
// minimum charge. A 30-minute window bills as one hour; a window of
// 2h59m bills as two.
func BillableHours(start, end time.Time) int64 {
	hours := int64(end.Sub(start) / time.Hour)
	if hours < 1 {
		return 1
	}
	return hours
}

// Price computes the total for a window at the locker's hourly rate.
func Price(start, end time.Time, hourlyRate float64) float64 {
	return float64(BillableHours(start, end)) * hourlyRate
}
