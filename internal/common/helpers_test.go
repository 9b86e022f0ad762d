package common

import (
	"testing"
	"time"
)

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("load Asia/Jakarta: %v", err)
	}
	return loc
}

func TestSameDayAcrossMidnight(t *testing.T) {
	loc := jakarta(t)

	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			"same local day",
			time.Date(2025, 3, 10, 8, 0, 0, 0, loc),
			time.Date(2025, 3, 10, 23, 59, 0, 0, loc),
			true,
		},
		{
			"one minute across midnight",
			time.Date(2025, 3, 10, 23, 59, 0, 0, loc),
			time.Date(2025, 3, 11, 0, 1, 0, 0, loc),
			false,
		},
		{
			// 16:30 UTC on the 10th is already 23:30 local on the 10th;
			// 17:30 UTC is 00:30 local on the 11th.
			"UTC instants on opposite sides of local midnight",
			time.Date(2025, 3, 10, 16, 30, 0, 0, time.UTC),
			time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameDay(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsYesterday(t *testing.T) {
	loc := jakarta(t)
	ref := time.Date(2025, 3, 11, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"late yesterday", time.Date(2025, 3, 10, 23, 59, 0, 0, loc), true},
		{"early yesterday", time.Date(2025, 3, 10, 0, 1, 0, 0, loc), true},
		{"same day", time.Date(2025, 3, 11, 0, 1, 0, 0, loc), false},
		{"two days ago", time.Date(2025, 3, 9, 23, 59, 0, 0, loc), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsYesterday(tt.t, ref); got != tt.want {
				t.Errorf("IsYesterday(%v, %v) = %v, want %v", tt.t, ref, got, tt.want)
			}
		})
	}
}

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp 0"},
		{999, "Rp 999"},
		{1000, "Rp 1.000"},
		{25000, "Rp 25.000"},
		{1234567, "Rp 1.234.567"},
		{-5000, "-Rp 5.000"},
	}

	for _, tt := range tests {
		if got := FormatRupiah(tt.amount); got != tt.want {
			t.Errorf("FormatRupiah(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
