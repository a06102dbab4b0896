package model

import (
	"fmt"
	"time"
)

// Date identifies the calendar day an attendance cycle concerns,
// formatted as YYYY-MM-DD in the roster's configured timezone.
type Date string

const dateLayout = "2006-01-02"

// DateOf returns the Date for the given time in its own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight of the date in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	t, _ := time.ParseInLocation(dateLayout, string(d), loc)
	return t
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, 1))
}

// Prev returns the preceding calendar day.
func (d Date) Prev() Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, -1))
}

// Month returns the YYYY-MM month the date falls in.
func (d Date) Month() Month {
	return Month(string(d)[:7])
}

// Month identifies a calendar month as YYYY-MM, the scope of the
// policy engine's resetting counters.
type Month string

// MonthOf returns the Month for the given time in its own location.
func MonthOf(t time.Time) Month {
	return Month(t.Format("2006-01"))
}

// Days returns every Date of the month in order.
func (m Month) Days() ([]Date, error) {
	start, err := time.Parse("2006-01", string(m))
	if err != nil {
		return nil, fmt.Errorf("%w: month %q", ErrInvalidDate, m)
	}
	var days []Date
	for t := start; t.Month() == start.Month(); t = t.AddDate(0, 0, 1) {
		days = append(days, DateOf(t))
	}
	return days, nil
}
