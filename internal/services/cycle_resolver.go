// Package services contains the write path of the ledger (reconciliation,
// plan and cash-book saves) and the read-only aggregation queries. All
// mutation of balances, actuals and expense attribution happens here, inside
// one store transaction per operation.
package services

import (
	"bilancio/internal/core"
)

// ResolvePlan maps a transaction date to the monthly plan that owns it.
//
// Selection order:
//  1. no plans loaded: no plan, the hint (possibly empty) is kept as the
//     attribution.
//  2. a hint naming an existing plan wins unconditionally, even when the
//     date falls outside that plan's cycle window. Cycle matching is only a
//     fallback for hintless resolution.
//  3. first plan, in storage order, whose inclusive cycle window contains
//     the date.
//  4. otherwise the plan with the most recent month key. The fallback has to
//     be deterministic and independent of display ordering; most-recent is
//     the policy chosen here.
func ResolvePlan(plans []core.MonthlyPlan, date core.Date, hint core.MonthKey) (*core.MonthlyPlan, core.MonthKey) {
	if len(plans) == 0 {
		return nil, hint
	}

	if hint != "" {
		for i := range plans {
			if plans[i].Month == hint {
				return &plans[i], plans[i].Month
			}
		}
	}

	for i := range plans {
		if plans[i].Contains(date) {
			return &plans[i], plans[i].Month
		}
	}

	latest := 0
	for i := range plans {
		if plans[i].Month > plans[latest].Month {
			latest = i
		}
	}
	return &plans[latest], plans[latest].Month
}

// CurrentPlan picks the plan dashboards consider "current": the plan whose
// cycle window contains today, else the plan keyed by the current calendar
// month, else the most recent plan by month key. Returns nil when no plans
// exist.
func CurrentPlan(plans []core.MonthlyPlan, today core.Date) *core.MonthlyPlan {
	if len(plans) == 0 {
		return nil
	}

	for i := range plans {
		if plans[i].Contains(today) {
			return &plans[i]
		}
	}

	month := core.MonthKeyOf(today)
	for i := range plans {
		if plans[i].Month == month {
			return &plans[i]
		}
	}

	latest := 0
	for i := range plans {
		if plans[i].Month > plans[latest].Month {
			latest = i
		}
	}
	return &plans[latest]
}
