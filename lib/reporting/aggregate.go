// Package reporting builds the aggregated appointment report.
package reporting

import (
	"clinic/lib/models"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	TypeMonthly  = "monthly"
	DefaultRange = "6m"
	RangeAll     = "all"
)

var rangeMonths = map[string]int{
	"1m":  1,
	"3m":  3,
	"6m":  6,
	"12m": 12,
	"1y":  12,
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Window is the date range an aggregated report covers. A zero Start means unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseRange turns a range parameter into a window ending on the last second of
// the current month, so appointments later this month are counted. The window
// starts on the first day of the month (n-1) months before now, so "1m" is the
// current month and "6m" the current month plus the five before it.
func ParseRange(value string, now time.Time) (Window, error) {
	if value == "" {
		value = DefaultRange
	}
	value = strings.ToLower(value)

	now = now.UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := firstOfMonth.AddDate(0, 1, 0).Add(-time.Second)
	if value == RangeAll {
		return Window{End: end}, nil
	}

	months, ok := rangeMonths[value]
	if !ok {
		return Window{}, fmt.Errorf("unsupported range %q: expected one of 1m, 3m, 6m, 12m, 1y, all", value)
	}

	return Window{Start: firstOfMonth.AddDate(0, -(months - 1), 0), End: end}, nil
}

// MonthKey returns the YYYY-MM bucket of an appointment date, or false when the
// date cannot be read. The month is the one written in the date, not its UTC month,
// matching the string comparison the date index query uses.
func MonthKey(date string) (string, bool) {
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("2006-01"), true
		}
	}

	if len(date) >= 7 {
		if t, err := time.Parse("2006-01", date[:7]); err == nil {
			return t.Format("2006-01"), true
		}
	}
	return "", false
}

// AggregateByMonth counts appointments per month and status in a single pass.
// Appointments with unreadable dates are skipped and returned as the second value.
// The result is sorted by month ascending.
func AggregateByMonth(appointments []models.Appointment) ([]models.MonthlyAppointmentSummary, int) {
	buckets := map[string]*models.MonthlyAppointmentSummary{}
	skipped := 0

	for _, appointment := range appointments {
		month, ok := MonthKey(appointment.AppointmentDate)
		if !ok {
			skipped++
			continue
		}

		bucket, exists := buckets[month]
		if !exists {
			bucket = &models.MonthlyAppointmentSummary{Month: month}
			buckets[month] = bucket
		}

		bucket.Total++
		switch strings.ToLower(strings.TrimSpace(appointment.Status)) {
		case "completed":
			bucket.Completed++
		case "cancelled", "canceled":
			bucket.Cancelled++
		case "scheduled":
			bucket.Scheduled++
		default:
			bucket.Other++
		}
	}

	summaries := make([]models.MonthlyAppointmentSummary, 0, len(buckets))
	for _, bucket := range buckets {
		summaries = append(summaries, *bucket)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Month < summaries[j].Month
	})

	return summaries, skipped
}
