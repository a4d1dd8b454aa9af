package model

import (
	"testing"
	"time"
)

func TestActivePatient(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	cases := []struct {
		name string
		last *time.Time
		want bool
	}{
		{"never visited", nil, false},
		{"visited last week", day(2026, 8, 25), true},
		{"exactly two years ago", day(2024, 9, 1), true},
		{"one day past two years", day(2024, 8, 31), false},
		{"visited five years ago", day(2021, 9, 1), false},
	}
	for _, tc := range cases {
		if got := ActivePatient(tc.last, now); got != tc.want {
			t.Errorf("%s: ActivePatient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParsePlanStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"planned", PlanStatusPlanned, true},
		{"ongoing", PlanStatusOngoing, true},
		{"completed", PlanStatusCompleted, true},
		{"done", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParsePlanStatus(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParsePlanStatus(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
