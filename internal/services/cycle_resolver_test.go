package services

import (
	"testing"

	"bilancio/internal/core"
)

func datePtr(d core.Date) *core.Date { return &d }

func TestResolvePlanNoPlans(t *testing.T) {
	plan, month := ResolvePlan(nil, core.NewDate(2025, 2, 10), "2025-02")
	if plan != nil {
		t.Fatal("expected no plan")
	}
	if month != "2025-02" {
		t.Fatalf("hint must be kept as attribution, got %s", month)
	}
}

func TestResolvePlanHintWins(t *testing.T) {
	plans := []core.MonthlyPlan{
		{ID: "p1", Month: "2025-01"},
		{ID: "p2", Month: "2025-02"},
	}

	// The hint wins even though the date falls inside 2025-02.
	plan, month := ResolvePlan(plans, core.NewDate(2025, 2, 10), "2025-01")
	if plan == nil || plan.ID != "p1" || month != "2025-01" {
		t.Fatalf("expected p1/2025-01, got %v/%s", plan, month)
	}

	// A hint naming no stored plan falls back to window matching.
	plan, month = ResolvePlan(plans, core.NewDate(2025, 2, 10), "2024-12")
	if plan == nil || plan.ID != "p2" || month != "2025-02" {
		t.Fatalf("expected p2/2025-02, got %v/%s", plan, month)
	}
}

func TestResolvePlanWindowMatch(t *testing.T) {
	plans := []core.MonthlyPlan{
		{
			ID:         "p1",
			Month:      "2025-02",
			CycleStart: datePtr(core.NewDate(2025, 1, 27)),
			CycleEnd:   datePtr(core.NewDate(2025, 2, 26)),
		},
		{ID: "p2", Month: "2025-03"},
	}

	// Jan 28 falls inside the custom cycle of the February plan.
	plan, month := ResolvePlan(plans, core.NewDate(2025, 1, 28), "")
	if plan == nil || plan.ID != "p1" || month != "2025-02" {
		t.Fatalf("expected p1/2025-02, got %v/%s", plan, month)
	}

	// Cycle end is inclusive.
	plan, _ = ResolvePlan(plans, core.NewDate(2025, 2, 26), "")
	if plan == nil || plan.ID != "p1" {
		t.Fatal("cycle end day must resolve into the cycle")
	}

	// The day after cycle end belongs to the next plan's calendar month...
	plan, _ = ResolvePlan(plans, core.NewDate(2025, 3, 1), "")
	if plan == nil || plan.ID != "p2" {
		t.Fatal("expected p2")
	}
}

func TestResolvePlanFallbackMostRecent(t *testing.T) {
	plans := []core.MonthlyPlan{
		{ID: "p2", Month: "2025-02"},
		{ID: "p1", Month: "2025-01"},
	}

	// No hint, date outside every window: most recent month wins,
	// independent of storage order.
	plan, month := ResolvePlan(plans, core.NewDate(2025, 6, 15), "")
	if plan == nil || plan.ID != "p2" || month != "2025-02" {
		t.Fatalf("expected p2/2025-02, got %v/%s", plan, month)
	}
}

func TestCurrentPlan(t *testing.T) {
	if CurrentPlan(nil, core.NewDate(2025, 2, 10)) != nil {
		t.Fatal("expected nil without plans")
	}

	plans := []core.MonthlyPlan{
		{
			ID:         "p1",
			Month:      "2025-01",
			CycleStart: datePtr(core.NewDate(2025, 1, 27)),
			CycleEnd:   datePtr(core.NewDate(2025, 2, 26)),
		},
		{ID: "p2", Month: "2025-02"},
	}

	// Window containment beats the calendar-month match.
	if got := CurrentPlan(plans, core.NewDate(2025, 2, 10)); got == nil || got.ID != "p1" {
		t.Fatalf("expected p1, got %v", got)
	}

	// Outside every window: calendar month match.
	if got := CurrentPlan(plans, core.NewDate(2025, 2, 28)); got == nil || got.ID != "p2" {
		t.Fatalf("expected p2, got %v", got)
	}

	// Neither window nor month: most recent.
	if got := CurrentPlan(plans, core.NewDate(2025, 7, 1)); got == nil || got.ID != "p2" {
		t.Fatalf("expected p2, got %v", got)
	}
}
