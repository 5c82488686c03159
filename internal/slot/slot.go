// Package slot converts between the enumerated booking slot labels
// ("10:30 AM") and absolute timestamps.
package slot

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	labelLayout = "03:04 PM"
)

var labels = []string{
	"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
	"01:00 PM", "01:30 PM", "02:00 PM", "02:30 PM", "03:00 PM", "03:30 PM", "04:00 PM",
}

var (
	ErrUnknownLabel = errors.New("unknown time slot")
	ErrBadDate      = errors.New("invalid date")
)

// Labels returns the bookable slot labels of a day in chronological order.
func Labels() []string {
	return slices.Clone(labels)
}

// ParseDay parses a YYYY-MM-DD date as midnight in loc.
func ParseDay(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, date)
	}
	return d, nil
}

// At combines a day with one of the slot labels. The result is in day's location.
func At(day time.Time, label string) (time.Time, error) {
	if !slices.Contains(labels, label) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	t, err := time.Parse(labelLayout, label)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func Resolve(date, label string, loc *time.Location) (time.Time, error) {
	day, err := ParseDay(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return At(day, label)
}

// Label formats t as a slot label in t's own location.
func Label(t time.Time) string {
	return t.Format(labelLayout)
}

// DayRange returns [start, end) covering the calendar day of t in t's location.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func FormatDay(t time.Time) string {
	return t.Format(dateLayout)
}
