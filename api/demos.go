/*
demos.go - Demo data loaders for testing and demonstrations

PURPOSE:

	Provides pre-built data sets that populate the live store with realistic
	staffing data. Each one exercises a specific part of the planner.

AVAILABLE DEMOS:

	holiday-week:      Company and local holidays plus half-day leave, so
	                   weekly utilization differs by location
	overallocated:     Three people on two projects: over, at and under cap
	fixed-price:       T&M and fixed-price projects with rate cards,
	                   milestones and expenses for the financial roll-up

HOW DEMOS WORK:
 1. Reset the live store (stored scenarios are kept)
 2. Seed the demo's working set in one transaction
 3. Refresh the planner from the store

All dates are relative to the Monday of the current week, so the grid
always opens on populated data.

USAGE VIA API:

	POST /api/demos/load
	{"demo_id": "overallocated"}

NOTE:

	Demos reset the live store. Only use in development/demo environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/leave"
	"github.com/warp/staffing-planner/staffing"
)

// =============================================================================
// DEMO DEFINITIONS
// =============================================================================

var demos = []DemoDTO{
	{
		ID:          "holiday-week",
		Name:        "Holiday Week",
		Description: "Company and local holidays plus half-day leave reduce available days",
		Category:    "calendar",
	},
	{
		ID:          "overallocated",
		Name:        "Overallocated Team",
		Description: "One person over cap, one at cap, one under",
		Category:    "utilization",
	},
	{
		ID:          "fixed-price",
		Name:        "Fixed-Price Delivery",
		Description: "Rate cards, milestones and expenses feeding the monthly roll-up",
		Category:    "financials",
	},
}

var demoBuilders = map[string]func(anchor generic.Date) staffing.WorkingSet{
	"holiday-week":  HolidayWeekDemo,
	"overallocated": OverallocatedDemo,
	"fixed-price":   FixedPriceDemo,
}

// ListDemos returns available demo data sets.
func (h *Handler) ListDemos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, demos)
}

// GetCurrentDemo returns the demo last loaded, if any.
func (h *Handler) GetCurrentDemo(w http.ResponseWriter, r *http.Request) {
	for _, d := range demos {
		if d.ID == h.currentDemo {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadDemo resets the live store and seeds a demo data set.
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	if h.Admin == nil {
		writeError(w, http.StatusNotImplemented, "Demo loading is not available for this store", nil)
		return
	}

	var req LoadDemoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	build, ok := demoBuilders[req.DemoID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown demo", fmt.Errorf("demo_id %q", req.DemoID))
		return
	}

	ctx := r.Context()
	h.currentDemo = ""
	if err := h.loadWorkingSet(ctx, build(generic.Today().StartOfWeek())); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load demo", err)
		return
	}
	h.currentDemo = req.DemoID
	h.Log.Info("Demo loaded", "demo", req.DemoID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "demo": req.DemoID})
}

// ResetDatabase clears all live data. Stored scenarios are kept.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if h.Admin == nil {
		writeError(w, http.StatusNotImplemented, "Reset is not available for this store", nil)
		return
	}
	ctx := r.Context()
	if err := h.Admin.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentDemo = ""
	if err := h.Planner.Refresh(ctx); err != nil {
		h.writeDomainError(w, "Failed to refresh after reset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) loadWorkingSet(ctx context.Context, ws staffing.WorkingSet) error {
	if err := h.Admin.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := h.Admin.Seed(ctx, ws); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return h.Planner.Refresh(ctx)
}

// =============================================================================
// DEMO BUILDERS
// =============================================================================

// fill allocates percent on every weekday of [start, end].
func fill(a allocation.Allocations, id generic.AssignmentID, start, end generic.Date, percent int) allocation.Allocations {
	return a.Apply(allocation.BulkEntries(id, start, end, percent))
}

// HolidayWeekDemo: two consultants in different offices on the same project
// at 100% for two weeks. The first week has a company holiday on Monday and
// a London-only holiday on Friday; Bea also takes half-day leave on
// Wednesday and Thursday.
func HolidayWeekDemo(monday generic.Date) staffing.WorkingSet {
	friday := monday.AddDays(4)
	nextFriday := monday.AddDays(11)

	ws := staffing.WorkingSet{
		Resources: []staffing.Resource{
			{ID: "res-ana", Name: "Ana Lima", Location: "Lisbon", HireDate: monday.AddMonths(-12)},
			{ID: "res-bea", Name: "Bea Hart", Location: "London", HireDate: monday.AddMonths(-6)},
		},
		Projects: []staffing.Project{
			{ID: "prj-portal", Name: "Client Portal", ClientID: "acme", BillingType: staffing.BillingTimeAndMaterial},
		},
		Assignments: []staffing.Assignment{
			{ID: "asg-ana-portal", ResourceID: "res-ana", ProjectID: "prj-portal"},
			{ID: "asg-bea-portal", ResourceID: "res-bea", ProjectID: "prj-portal"},
		},
		Calendar: []calendar.Entry{
			{ID: "hol-company", Date: monday, Name: "Company Day", Scope: calendar.ScopeCompany},
			{ID: "hol-london", Date: friday, Name: "London Office Day", Scope: calendar.ScopeLocal, Location: "London"},
		},
		LeaveTypes: []leave.Type{
			{ID: "half-day", Name: "Half day off", Kind: leave.KindHalfDay},
		},
		LeaveRequests: []leave.Request{
			{ID: "lv-bea-1", ResourceID: "res-bea", TypeID: "half-day", Start: monday.AddDays(2), End: monday.AddDays(3), Status: leave.StatusApproved},
		},
		Allocations: allocation.Allocations{},
	}
	ws.Allocations = fill(ws.Allocations, "asg-ana-portal", monday, nextFriday, 100)
	ws.Allocations = fill(ws.Allocations, "asg-bea-portal", monday, nextFriday, 100)
	return ws
}

// OverallocatedDemo: Cal is split 70/50 across two projects (120%), Dee is
// at exactly her 80% cap, and Eli is half booked.
func OverallocatedDemo(monday generic.Date) staffing.WorkingSet {
	end := monday.AddDays(25)

	ws := staffing.WorkingSet{
		Resources: []staffing.Resource{
			{ID: "res-cal", Name: "Cal Ortiz", HireDate: monday.AddMonths(-24)},
			{ID: "res-dee", Name: "Dee Ngata", HireDate: monday.AddMonths(-18), CapPercent: 80},
			{ID: "res-eli", Name: "Eli Sato", HireDate: monday.AddMonths(-3)},
		},
		Projects: []staffing.Project{
			{ID: "prj-data", Name: "Data Platform", BillingType: staffing.BillingTimeAndMaterial},
			{ID: "prj-mobile", Name: "Mobile App", BillingType: staffing.BillingTimeAndMaterial},
		},
		Assignments: []staffing.Assignment{
			{ID: "asg-cal-data", ResourceID: "res-cal", ProjectID: "prj-data"},
			{ID: "asg-cal-mobile", ResourceID: "res-cal", ProjectID: "prj-mobile"},
			{ID: "asg-dee-data", ResourceID: "res-dee", ProjectID: "prj-data"},
			{ID: "asg-eli-mobile", ResourceID: "res-eli", ProjectID: "prj-mobile"},
		},
		Allocations: allocation.Allocations{},
	}
	ws.Allocations = fill(ws.Allocations, "asg-cal-data", monday, end, 70)
	ws.Allocations = fill(ws.Allocations, "asg-cal-mobile", monday, end, 50)
	ws.Allocations = fill(ws.Allocations, "asg-dee-data", monday, end, 80)
	ws.Allocations = fill(ws.Allocations, "asg-eli-mobile", monday, end, 50)
	return ws
}

// FixedPriceDemo: a time-and-material project billed through a rate card and
// a fixed-price project billed by milestones. Fay leaves at the end of next
// month; her allocations after that date do not count.
func FixedPriceDemo(monday generic.Date) staffing.WorkingSet {
	thisMonth := monday.YearMonth()
	nextMonth := thisMonth.Next()
	lastDay := nextMonth.Last()
	end := nextMonth.Next().Last()

	ws := staffing.WorkingSet{
		Roles: []staffing.Role{
			{ID: "role-dev", Name: "Developer", DefaultDailyCost: generic.Money(400), DefaultDailyExpenses: generic.Money(20)},
			{ID: "role-lead", Name: "Tech Lead", DefaultDailyCost: generic.Money(550), DefaultDailyExpenses: generic.Money(30)},
		},
		Resources: []staffing.Resource{
			{ID: "res-fay", Name: "Fay Brandt", HireDate: monday.AddMonths(-30), RoleID: "role-lead", LastWorkingDate: &lastDay},
			{ID: "res-gus", Name: "Gus Moreau", HireDate: monday.AddMonths(-8), RoleID: "role-dev"},
		},
		Financials: []staffing.Financials{
			{ResourceID: "res-fay", DailyCost: generic.Money(600), DailyExpenses: generic.Money(25)},
		},
		RateCards: []staffing.RateCard{
			{ID: "card-std", Name: "Standard 2024", Entries: []staffing.RateCardEntry{
				{ResourceID: "res-fay", SellRate: generic.Money(1100)},
				{ResourceID: "res-gus", SellRate: generic.Money(800)},
			}},
		},
		Projects: []staffing.Project{
			{ID: "prj-tm", Name: "Support Retainer", ClientID: "globex", BillingType: staffing.BillingTimeAndMaterial, RateCardID: "card-std"},
			{ID: "prj-fp", Name: "Checkout Rebuild", ClientID: "initech", BillingType: staffing.BillingFixedPrice, RateCardID: "card-std"},
		},
		Assignments: []staffing.Assignment{
			{ID: "asg-fay-tm", ResourceID: "res-fay", ProjectID: "prj-tm"},
			{ID: "asg-gus-fp", ResourceID: "res-gus", ProjectID: "prj-fp"},
		},
		Milestones: []staffing.Milestone{
			{ID: "ms-design", ProjectID: "prj-fp", Date: thisMonth.Last(), Amount: generic.Money(15000), Name: "Design sign-off"},
			{ID: "ms-launch", ProjectID: "prj-fp", Date: end, Amount: generic.Money(30000), Name: "Launch"},
		},
		Expenses: []staffing.Expense{
			{ID: "exp-travel", ProjectID: "prj-fp", Date: monday.AddDays(2), Amount: generic.Money(1200), Description: "Kick-off travel"},
		},
		Allocations: allocation.Allocations{},
	}
	ws.Allocations = fill(ws.Allocations, "asg-fay-tm", monday, end, 50)
	ws.Allocations = fill(ws.Allocations, "asg-gus-fp", monday, end, 100)
	return ws
}
