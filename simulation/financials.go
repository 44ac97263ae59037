package simulation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/staffing"
)

// =============================================================================
// FINANCIAL ROLL-UP - Derived on every call, never stored
// =============================================================================

type MonthFinancials struct {
	Month   generic.Month   `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Margin  decimal.Decimal `json:"margin"`
}

// MonthlyFinancials rolls the working set up by calendar month, for every
// month touched by a counted allocation, an expense or a milestone.
//
//	revenue = sum(fraction * sell rate) over time-and-material allocations
//	        + milestone amounts of fixed-price projects
//	cost    = sum(fraction * (daily cost + daily expenses)) over allocations
//	        + expense amounts
//	margin  = revenue - cost
//
// Allocations after the resource's last working date, or whose assignment
// no longer exists, are ignored.
func MonthlyFinancials(set *staffing.WorkingSet) []MonthFinancials {
	months := make(map[generic.Month]*MonthFinancials)
	row := func(m generic.Month) *MonthFinancials {
		r, ok := months[m]
		if !ok {
			r = &MonthFinancials{Month: m}
			months[m] = r
		}
		return r
	}

	for _, a := range set.Assignments {
		entries := set.Allocations.Entries(a.ID)
		if len(entries) == 0 {
			continue
		}
		res, ok := set.Resource(a.ResourceID)
		if !ok {
			continue
		}
		proj, _ := set.Project(a.ProjectID)
		fin, _ := set.FinancialsFor(res.ID)
		dailyCost := fin.DailyCost.Add(fin.DailyExpenses)

		var sellRate decimal.Decimal
		billable := proj.BillingType == staffing.BillingTimeAndMaterial
		if billable {
			sellRate = ResolveSellRate(set, res.ID, proj)
		}

		for _, e := range entries {
			if res.LastWorkingDate != nil && e.Date.After(*res.LastWorkingDate) {
				continue
			}
			frac := generic.Fraction(e.Percent)
			r := row(e.Date.YearMonth())
			r.Cost = r.Cost.Add(frac.Mul(dailyCost))
			if billable {
				r.Revenue = r.Revenue.Add(frac.Mul(sellRate))
			}
		}
	}

	for _, e := range set.Expenses {
		r := row(e.Date.YearMonth())
		r.Cost = r.Cost.Add(e.Amount)
	}

	for _, m := range set.Milestones {
		r := row(m.Date.YearMonth())
		if p, ok := set.Project(m.ProjectID); ok && p.BillingType == staffing.BillingFixedPrice {
			r.Revenue = r.Revenue.Add(m.Amount)
		}
	}

	out := make([]MonthFinancials, 0, len(months))
	for _, r := range months {
		r.Margin = r.Revenue.Sub(r.Cost)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// ResolveSellRate: explicit per-resource override, then the project's rate
// card entry for the resource, then 0.
func ResolveSellRate(set *staffing.WorkingSet, resource generic.ResourceID, project staffing.Project) decimal.Decimal {
	for _, f := range set.Financials {
		if f.ResourceID == resource && f.SellRate != nil {
			return *f.SellRate
		}
	}
	if card, ok := set.RateCard(project.RateCardID); ok && project.RateCardID != "" {
		if rate, ok := card.SellRate(resource); ok {
			return rate
		}
	}
	return decimal.Zero
}

// Totals sums a roll-up.
func Totals(rows []MonthFinancials) (revenue, cost, margin decimal.Decimal) {
	for _, r := range rows {
		revenue = revenue.Add(r.Revenue)
		cost = cost.Add(r.Cost)
		margin = margin.Add(r.Margin)
	}
	return revenue, cost, margin
}
