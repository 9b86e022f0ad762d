// Package common — helpers.go: calendar math in the service timezone and
// small formatting utilities.
//
// Streak rules compare calendar dates, not rolling 24h windows, so every
// comparison has to happen in one fixed location. The service runs on
// Asia/Jakarta (WIB): the audience and the payment gateway are Indonesian.
package common

import (
	"fmt"
	"time"
)

// DefaultTimezone is used when APP_TIMEZONE is empty or fails to load.
const DefaultTimezone = "Asia/Jakarta"

var serviceLocation = mustLoadLocation(DefaultTimezone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// WIB has no DST, a fixed offset is equivalent.
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// SetTimezone switches the service location. Called once at startup from
// config; not safe to call concurrently with date helpers.
func SetTimezone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", name, err)
	}
	serviceLocation = loc
	return nil
}

// Location returns the location all calendar comparisons use.
func Location() *time.Location {
	return serviceLocation
}

// Now returns the current time in the service timezone.
func Now() time.Time {
	return time.Now().In(serviceLocation)
}

// Today returns midnight of the current day in the service timezone.
func Today() time.Time {
	return Midnight(Now())
}

// Midnight truncates t to its calendar date in the service timezone.
func Midnight(t time.Time) time.Time {
	t = t.In(serviceLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, serviceLocation)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Midnight(a).Equal(Midnight(b))
}

// IsYesterday reports whether t falls on the calendar day before ref.
func IsYesterday(t, ref time.Time) bool {
	return Midnight(t).Equal(Midnight(ref).AddDate(0, 0, -1))
}

// FormatRupiah renders an IDR amount with dot thousand separators,
// e.g. FormatRupiah(25000) -> "Rp 25.000".
func FormatRupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := fmt.Sprintf("%d", amount)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "." + s[i:]
	}
	if neg {
		return "-Rp " + s
	}
	return "Rp " + s
}

// FormatDateTime renders a timestamp for transaction history,
// "02.01.2006 15:04" in the service timezone.
func FormatDateTime(t time.Time) string {
	return t.In(serviceLocation).Format("02.01.2006 15:04")
}
