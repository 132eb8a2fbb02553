package core

// Read models computed by the aggregation service from reconciled state.
// Nothing here is ever written back.

type (
	// GroupSpend is one slice of the top-groups ranking.
	GroupSpend struct {
		GroupID     string
		Name        string
		ActualCents int64
	}

	// QuickLink is static navigation metadata surfaced on the dashboard.
	QuickLink struct {
		Label string
		Path  string
	}

	// Summary is the dashboard aggregate for the current plan.
	Summary struct {
		PlanMonth       MonthKey
		PlannedCents    int64
		ActualCents     int64
		TotalSpentCents int64
		CashOnHandCents int64
		TopGroups       []GroupSpend
		QuickLinks      []QuickLink
	}

	// PlannedVsActualRow is one budget row of the current plan.
	PlannedVsActualRow struct {
		GroupID      string
		GroupName    string
		PlannedCents int64
		ActualCents  int64
	}
)
