package timeslot

import (
	"testing"
	"time"
)

func TestNormalizeClock(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:00", "09:00", false},
		{"09:05", "09:05", false},
		{"09:00:30", "09:00", false},
		{"23:59:59", "23:59", false},
		{"9am", "", true},
		{"25:00", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeClock(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeClock(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSecondsCollapseToSameSlot(t *testing.T) {
	a, err := NormalizeClock("09:00:05")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NormalizeClock("09:00:55")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("expected same slot, got %q vs %q", a, b)
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	cases := []struct {
		date  time.Time
		clock string
		want  bool
	}{
		{day(2024, 5, 31), "23:00", true},
		{day(2024, 6, 1), "09:00", true},
		{day(2024, 6, 1), "10:30", false},
		{day(2024, 6, 1), "11:00", false},
		{day(2024, 6, 2), "08:00", false},
	}
	for _, tc := range cases {
		if got := Overdue(tc.date, tc.clock, now); got != tc.want {
			t.Errorf("Overdue(%s %s) = %v, want %v", tc.date.Format("2006-01-02"), tc.clock, got, tc.want)
		}
	}
}
