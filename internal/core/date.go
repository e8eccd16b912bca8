package core

import (
	"strings"
	"time"
)

const (
	// DateFormat is the dd-mm-yyyy layout used for input and persistence.
	DateFormat = "02-01-2006"

	// shortDateFormat accepts unpadded day and month, e.g. 1-3-2024.
	shortDateFormat = "2-1-2006"
	isoFormat       = "2006-01-02"
)

// Date is a calendar date. The time component is always midnight UTC.
type Date struct {
	time.Time
}

// Clock supplies the current date.
type Clock interface {
	Today() Date
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

func (SystemClock) Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() Date

func (f ClockFunc) Today() Date { return f() }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a dd-mm-yyyy string. Out-of-range values such as
// 31-02-2024 are rejected rather than normalized.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation(DateFormat, s, time.UTC)
	if err != nil {
		if t, err = time.ParseInLocation(shortDateFormat, s, time.UTC); err != nil {
			return Date{}, ErrInvalidFormat
		}
	}
	return Date{Time: t}, nil
}

// ParseISODate parses the yyyy-mm-dd form used as a storage key.
func ParseISODate(s string) (Date, error) {
	t, err := time.ParseInLocation(isoFormat, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, ErrInvalidFormat
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as dd-mm-yyyy.
func (d Date) String() string {
	return d.Format(DateFormat)
}

// ISO formats the date as yyyy-mm-dd, which sorts lexically.
func (d Date) ISO() string {
	return d.Format(isoFormat)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// Within reports whether start <= d <= end.
func (d Date) Within(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}
