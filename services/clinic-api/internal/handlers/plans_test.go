package handlers

import (
	"testing"

	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

func TestParsePlanValidation(t *testing.T) {
	cases := []struct {
		name string
		req  planRequest
		ok   bool
	}{
		{"valid minimal", planRequest{Title: "Crown", StartDate: "2026-09-10"}, true},
		{"valid with range", planRequest{Title: "Braces", StartDate: "2026-09-10", EndDate: "2027-03-10", Status: "ongoing"}, true},
		{"missing title", planRequest{StartDate: "2026-09-10"}, false},
		{"blank title", planRequest{Title: "   ", StartDate: "2026-09-10"}, false},
		{"bad start date", planRequest{Title: "Crown", StartDate: "10/09/2026"}, false},
		{"bad end date", planRequest{Title: "Crown", StartDate: "2026-09-10", EndDate: "soon"}, false},
		{"end before start", planRequest{Title: "Crown", StartDate: "2026-09-10", EndDate: "2026-09-09"}, false},
		{"unknown status", planRequest{Title: "Crown", StartDate: "2026-09-10", Status: "abandoned"}, false},
	}
	for _, tc := range cases {
		_, msg, ok := parsePlan(tc.req)
		if ok != tc.ok {
			t.Errorf("%s: parsePlan ok = %v (%s), want %v", tc.name, ok, msg, tc.ok)
		}
	}
}

func TestParsePlanDefaultsStatus(t *testing.T) {
	plan, _, ok := parsePlan(planRequest{Title: "Crown", StartDate: "2026-09-10"})
	if !ok {
		t.Fatal("expected valid plan")
	}
	if plan.Status != model.PlanStatusPlanned {
		t.Fatalf("status = %q, want %q", plan.Status, model.PlanStatusPlanned)
	}
}

func TestParsePlanKeepsOpenEnd(t *testing.T) {
	plan, _, ok := parsePlan(planRequest{Title: "Implant", StartDate: "2026-09-10", EndDate: ""})
	if !ok {
		t.Fatal("expected valid plan")
	}
	if plan.EndDate != nil {
		t.Fatalf("end date = %v, want nil", plan.EndDate)
	}
}
