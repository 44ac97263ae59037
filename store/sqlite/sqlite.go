/*
Package sqlite provides a SQLite-backed implementation of the planner's
persistence collaborators.

PURPOSE:
  Implements planner.DataSource, planner.LiveStore and
  planner.ScenarioRepository using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  resources, projects:  live records
  assignments:          one row per (resource, project); UNIQUE on the pair
  allocations:          sparse (assignment_id, date) -> percent; a 0 percent
                        write deletes the row, so only 1..100 is ever stored
  holidays, leave_*:    calendar and leave inputs of the aggregation
  roles, rate_cards,
  financials, expenses,
  milestones:           cost tables for the financial roll-up
  scenarios:            opaque versioned documents (see factory)

CASCADES:
  allocations.assignment_id references assignments(id) ON DELETE CASCADE, so
  deleting an assignment can never leave orphaned allocation rows. Foreign
  keys are switched on in the DSN.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/planner.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  p := planner.New(store, store, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - planner/store.go: Interface definitions
  - store/memory: In-memory implementation
  - factory/scenario.go: Scenario document codec
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/factory"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/leave"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/staffing"
)

// timeLayout sorts lexicographically in time order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store implements all persistence interfaces using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		cap_percent INTEGER NOT NULL DEFAULT 0,
		hire_date TEXT NOT NULL DEFAULT '',
		last_working_date TEXT,
		role_id TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		client_id TEXT NOT NULL DEFAULT '',
		billing_type TEXT NOT NULL,
		rate_card_id TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		UNIQUE(resource_id, project_id)
	);

	-- Sparse: absence means 0%
	CREATE TABLE IF NOT EXISTS allocations (
		assignment_id TEXT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		percent INTEGER NOT NULL CHECK (percent BETWEEN 1 AND 100),
		PRIMARY KEY (assignment_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_date ON allocations(date);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		scope TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		recurring INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		hours TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
		type_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_resource ON leave_requests(resource_id);

	CREATE TABLE IF NOT EXISTS roles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		default_daily_cost TEXT NOT NULL,
		default_daily_expenses TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rate_cards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rate_card_entries (
		rate_card_id TEXT NOT NULL REFERENCES rate_cards(id) ON DELETE CASCADE,
		resource_id TEXT NOT NULL,
		sell_rate TEXT NOT NULL,
		PRIMARY KEY (rate_card_id, resource_id)
	);

	CREATE TABLE IF NOT EXISTS financials (
		resource_id TEXT PRIMARY KEY REFERENCES resources(id) ON DELETE CASCADE,
		daily_cost TEXT NOT NULL,
		daily_expenses TEXT NOT NULL,
		sell_rate TEXT
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS milestones (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT ''
	);

	-- Scenario documents are opaque to the store
	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		version INTEGER NOT NULL,
		document TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenarios_updated_at ON scenarios(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// LIVE STORE (planner.LiveStore interface)
// =============================================================================

// CreateAssignment inserts the assignment. An existing (resource, project)
// pair is left untouched.
func (s *Store) CreateAssignment(ctx context.Context, a staffing.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertAssignment(ctx, s.db, a)
}

func (s *Store) insertAssignment(ctx context.Context, db execer, a staffing.Assignment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO assignments (id, resource_id, project_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, a.ID, a.ResourceID, a.ProjectID, s.now().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to create assignment %s: %w", a.ID, err)
	}
	return nil
}

// DeleteAssignment removes the assignment; its allocations cascade.
func (s *Store) DeleteAssignment(ctx context.Context, id generic.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = ?", id)
	return err
}

// UpsertAllocations writes the batch atomically. 0 percent deletes the row.
func (s *Store) UpsertAllocations(ctx context.Context, batch []allocation.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := upsertAllocations(ctx, sqlTx, batch); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func upsertAllocations(ctx context.Context, db execer, batch []allocation.Entry) error {
	for _, e := range batch {
		if !generic.ValidPercent(e.Percent) {
			return generic.ErrInvalidPercent
		}
		var err error
		if e.Percent == 0 {
			_, err = db.ExecContext(ctx,
				"DELETE FROM allocations WHERE assignment_id = ? AND date = ?",
				e.AssignmentID, e.Date.String())
		} else {
			_, err = db.ExecContext(ctx, `
				INSERT INTO allocations (assignment_id, date, percent)
				VALUES (?, ?, ?)
				ON CONFLICT(assignment_id, date) DO UPDATE SET
					percent = excluded.percent
			`, e.AssignmentID, e.Date.String(), e.Percent)
		}
		if err != nil {
			return fmt.Errorf("failed to upsert allocation %s@%s: %w", e.AssignmentID, e.Date, err)
		}
	}
	return nil
}

// =============================================================================
// DATA SOURCE (planner.DataSource interface)
// =============================================================================

// LoadSnapshot reads every live table into a WorkingSet.
func (s *Store) LoadSnapshot(ctx context.Context) (staffing.WorkingSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ws staffing.WorkingSet
	loaders := []func(context.Context, *staffing.WorkingSet) error{
		s.loadResources,
		s.loadProjects,
		s.loadAssignments,
		s.loadAllocations,
		s.loadHolidays,
		s.loadLeave,
		s.loadRoles,
		s.loadRateCards,
		s.loadFinancials,
		s.loadExpenses,
		s.loadMilestones,
	}
	for _, load := range loaders {
		if err := load(ctx, &ws); err != nil {
			return staffing.WorkingSet{}, err
		}
	}
	return ws, nil
}

// each runs query and calls scan for every row.
func (s *Store) each(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) loadResources(ctx context.Context, ws *staffing.WorkingSet) error {
	return s.each(ctx,
		"SELECT id, name, location, cap_percent, hire_date, last_working_date, role_id FROM resources ORDER BY name, id",
		func(rows *sql.Rows) error {
			var r staffing.Resource
			var hire string
			var last sql.NullString
			if err := rows.Scan(&r.ID, &r.Name, &r.Location, &r.CapPercent, &hire, &last, &r.RoleID); err != nil {
				return err
			}
			r.HireDate = parseDate(hire)
			if last.Valid && last.String != "" {
				d := parseDate(last.String)
				r.LastWorkingDate = &d
			}
			ws.Resources = append(ws.Resources, r)
			return nil
		})
}

func (s *Store) loadProjects(ctx context.Context, ws *staffing.WorkingSet) error {
	return s.each(ctx,
		"SELECT id, name, client_id, billing_type, rate_card_id FROM projects ORDER BY name, id",
		func(rows *sql.Rows) error {
			var p staffing.Project
			if err := rows.Scan(&p.ID, &p.Name, &p.ClientID, &p.BillingType, &p.RateCardID); err != nil {
				return err
			}
			ws.Projects = append(ws.Projects, p)
			return nil
		})
}

func (s *Store) loadAssignments(ctx context.Context, ws *staffing.WorkingSet) error {
	return s.each(ctx,
		"SELECT id, resource_id, project_id FROM assignments ORDER BY created_at, id",
		func(rows *sql.Rows) error {
			var a staffing.Assignment
			if err := rows.Scan(&a.ID, &a.ResourceID, &a.ProjectID); err != nil {
				return err
			}
			ws.Assignments = append(ws.Assignments, a)
			return nil
		})
}

func (s *Store) loadAllocations(ctx context.Context, ws *staffing.WorkingSet) error {
	var entries []allocation.Entry
	err := s.each(ctx,
		"SELECT assignment_id, date, percent FROM allocations ORDER BY assignment_id, date",
		func(rows *sql.Rows) error {
			var e allocation.Entry
			var date string
			if err := rows.Scan(&e.AssignmentID, &date, &e.Percent); err != nil {
				return err
			}
			e.Date = parseDate(date)
			entries = append(entries, e)
			return nil
		})
	ws.Allocations = allocation.FromEntries(entries)
	return err
}

func (s *Store) loadHolidays(ctx context.Context, ws *staffing.WorkingSet) error {
	return s.each(ctx,
		"SELECT id, date, name, scope, location, recurring FROM holidays ORDER BY date",
		func(rows *sql.Rows) error {
			var h calendar.Entry
			var date string
			if err := rows.Scan(&h.ID, &date, &h.Name, &h.Scope, &h.Location, &h.Recurring); err != nil {
				return err
			}
			h.Date = parseDate(date)
			ws.Calendar = append(ws.Calendar, h)
			return nil
		})
}

func (s *Store) loadLeave(ctx context.Context, ws *staffing.WorkingSet) error {
	err := s.each(ctx, "SELECT id, name, kind, hours FROM leave_types ORDER BY id",
		func(rows *sql.Rows) error {
			var t leave.Type
			var hours string
			if err := rows.Scan(&t.ID, &t.Name, &t.Kind, &hours); err != nil {
				return err
			}
			t.Hours = generic.MustParseDecimal(hours)
			ws.LeaveTypes = append(ws.LeaveTypes, t)
			return nil
		})
	if err != nil {
		return err
	}
	return s.each(ctx,
		"SELECT id, resource_id, type_id, start_date, end_date, status FROM leave_requests ORDER BY start_date, id",
		func(rows *sql.Rows) error {
			var r leave.Request
			var start, end string
			if err := rows.Scan(&r.ID, &r.ResourceID, &r.TypeID, &start, &end, &r.Status); err != nil {
				return err
			}
			r.Start, r.End = parseDate(start), parseDate(end)
			ws.LeaveRequests = append(ws.LeaveRequests, r)
			return nil
		})
}

func (s *Store) loadRoles(ctx context.Context, ws *staffing.WorkingSet) error {
	return s.each(ctx,
		"SELECT id, name, default_daily_cost, default_daily_expenses FROM roles ORDER BY id",
		func(rows *sql.Rows) error {
			var r staffing.Role
			var cost, expenses string
			if err := rows.Scan(&r.ID, &r.Name, &cost, &expenses); err != nil {
				return err
			}
			r.DefaultDailyCost = generic.MustParseDecimal(cost)
			r.DefaultDailyExpenses = generic.MustParseDecimal(expenses)
			ws.Roles = append(ws.Roles, r)
			return nil
		})
}

func (s *Store) loadRateCards(ctx context.Context, ws *staffing.WorkingSet) error {
	index := make(map[generic.RateCardID]int)
	err := s.each(ctx, "SELECT id, name FROM rate_cards ORDER BY id",
		func(rows *sql.Rows) error {
			var c staffing.RateCard
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return err
			}
			index[c.ID] = len(ws.RateCards)
			ws.RateCards = append(ws.RateCards, c)
			return nil
		})
	if err != nil {
		return err
	}
	return s.each(ctx,
		"SELECT rate_card_id, resource_id, sell_rate FROM rate_card_entries ORDER BY rate_card_id, resource_id",
		func(rows *sql.Rows) error {
			var cardID generic.RateCardID
			var e staffing.RateCardEntry
			var rate string
			if err := rows.Scan(&cardID, &e.ResourceID, &rate); err != nil {
				return err
			}
			e.SellRate = generic.MustParseDecimal(rate)
			if i, ok := index[cardID]; ok {
				ws.RateCards[i].Entries = append(ws.RateCards[i].Entries, e)
			}
			return nil
		})
}

func (s *Store) loadFinancials(ctx context.Context, ws *staffing.WorkingSet) error {
	return s.each(ctx,
		"SELECT resource_id, daily_cost, daily_expenses, sell_rate FROM financials ORDER BY resource_id",
		func(rows *sql.Rows) error {
			var f staffing.Financials
			var cost, expenses string
			var rate sql.NullString
			if err := rows.Scan(&f.ResourceID, &cost, &expenses, &rate); err != nil {
				return err
			}
			f.DailyCost = generic.MustParseDecimal(cost)
			f.DailyExpenses = generic.MustParseDecimal(expenses)
			if rate.Valid {
				f.SellRate = generic.DecimalPtr(generic.MustParseDecimal(rate.String))
			}
			ws.Financials = append(ws.Financials, f)
			return nil
		})
}

func (s *Store) loadExpenses(ctx context.Context, ws *staffing.WorkingSet) error {
	return s.each(ctx,
		"SELECT id, project_id, date, amount, description FROM expenses ORDER BY date, id",
		func(rows *sql.Rows) error {
			var e staffing.Expense
			var date, amount string
			if err := rows.Scan(&e.ID, &e.ProjectID, &date, &amount, &e.Description); err != nil {
				return err
			}
			e.Date = parseDate(date)
			e.Amount = generic.MustParseDecimal(amount)
			ws.Expenses = append(ws.Expenses, e)
			return nil
		})
}

func (s *Store) loadMilestones(ctx context.Context, ws *staffing.WorkingSet) error {
	return s.each(ctx,
		"SELECT id, project_id, date, amount, name FROM milestones ORDER BY date, id",
		func(rows *sql.Rows) error {
			var m staffing.Milestone
			var date, amount string
			if err := rows.Scan(&m.ID, &m.ProjectID, &date, &amount, &m.Name); err != nil {
				return err
			}
			m.Date = parseDate(date)
			m.Amount = generic.MustParseDecimal(amount)
			ws.Milestones = append(ws.Milestones, m)
			return nil
		})
}

// =============================================================================
// SCENARIO REPOSITORY (planner.ScenarioRepository interface)
// =============================================================================

// Save stores the scenario document. Saving an existing id increments its
// version.
func (s *Store) Save(ctx context.Context, sc simulation.Scenario) (simulation.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return simulation.Summary{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	var current int
	err = sqlTx.QueryRowContext(ctx, "SELECT version FROM scenarios WHERE id = ?", sc.ID).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return simulation.Summary{}, err
	}

	sc.Version = current + 1
	sc.UpdatedAt = s.now()
	doc, err := factory.EncodeScenario(sc)
	if err != nil {
		return simulation.Summary{}, err
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO scenarios (id, name, version, document, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, sc.ID, sc.Name, sc.Version, string(doc), sc.UpdatedAt.Format(timeLayout))
	if err != nil {
		return simulation.Summary{}, fmt.Errorf("failed to save scenario %s: %w", sc.ID, err)
	}
	if err := sqlTx.Commit(); err != nil {
		return simulation.Summary{}, err
	}
	return sc.Summary(), nil
}

// Load retrieves and decodes a scenario document.
func (s *Store) Load(ctx context.Context, id generic.ScenarioID) (simulation.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM scenarios WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return simulation.Scenario{}, generic.ErrScenarioNotFound
	}
	if err != nil {
		return simulation.Scenario{}, err
	}
	return factory.DecodeScenario(id, []byte(doc))
}

// List returns scenario summaries, most recently updated first.
func (s *Store) List(ctx context.Context) ([]simulation.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []simulation.Summary
	err := s.each(ctx,
		"SELECT id, name, version, updated_at FROM scenarios ORDER BY updated_at DESC, id",
		func(rows *sql.Rows) error {
			var sum simulation.Summary
			var updatedAt string
			if err := rows.Scan(&sum.ID, &sum.Name, &sum.Version, &updatedAt); err != nil {
				return err
			}
			sum.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
			out = append(out, sum)
			return nil
		})
	return out, err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears the live tables (for testing/demo). Scenarios are kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"allocations", "assignments", "leave_requests", "leave_types", "holidays",
		"financials", "expenses", "milestones", "rate_card_entries", "rate_cards",
		"roles", "resources", "projects",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Seed writes a whole working set in one transaction. Existing rows with
// the same ids are overwritten.
func (s *Store) Seed(ctx context.Context, ws staffing.WorkingSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, r := range ws.Resources {
		var last sql.NullString
		if r.LastWorkingDate != nil {
			last = nullString(r.LastWorkingDate.String())
		}
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO resources (id, name, location, cap_percent, hire_date, last_working_date, role_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				location = excluded.location,
				cap_percent = excluded.cap_percent,
				hire_date = excluded.hire_date,
				last_working_date = excluded.last_working_date,
				role_id = excluded.role_id
		`, r.ID, r.Name, r.Location, r.CapPercent, formatDate(r.HireDate), last, r.RoleID); err != nil {
			return fmt.Errorf("failed to seed resource %s: %w", r.ID, err)
		}
	}

	for _, p := range ws.Projects {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO projects (id, name, client_id, billing_type, rate_card_id)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				client_id = excluded.client_id,
				billing_type = excluded.billing_type,
				rate_card_id = excluded.rate_card_id
		`, p.ID, p.Name, p.ClientID, p.BillingType, p.RateCardID); err != nil {
			return fmt.Errorf("failed to seed project %s: %w", p.ID, err)
		}
	}

	for _, a := range ws.Assignments {
		if err := s.insertAssignment(ctx, sqlTx, a); err != nil {
			return err
		}
	}
	if err := upsertAllocations(ctx, sqlTx, ws.Allocations.All()); err != nil {
		return err
	}

	for _, h := range ws.Calendar {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT OR REPLACE INTO holidays (id, date, name, scope, location, recurring)
			VALUES (?, ?, ?, ?, ?, ?)
		`, holidayID(h), h.Date.String(), h.Name, h.Scope, h.Location, h.Recurring); err != nil {
			return fmt.Errorf("failed to seed holiday %s: %w", h.Name, err)
		}
	}

	for _, t := range ws.LeaveTypes {
		if _, err := sqlTx.ExecContext(ctx,
			"INSERT OR REPLACE INTO leave_types (id, name, kind, hours) VALUES (?, ?, ?, ?)",
			t.ID, t.Name, t.Kind, t.Hours.String()); err != nil {
			return fmt.Errorf("failed to seed leave type %s: %w", t.ID, err)
		}
	}
	for _, r := range ws.LeaveRequests {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT OR REPLACE INTO leave_requests (id, resource_id, type_id, start_date, end_date, status)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.ID, r.ResourceID, r.TypeID, r.Start.String(), r.End.String(), r.Status); err != nil {
			return fmt.Errorf("failed to seed leave request %s: %w", r.ID, err)
		}
	}

	for _, r := range ws.Roles {
		if _, err := sqlTx.ExecContext(ctx,
			"INSERT OR REPLACE INTO roles (id, name, default_daily_cost, default_daily_expenses) VALUES (?, ?, ?, ?)",
			r.ID, r.Name, r.DefaultDailyCost.String(), r.DefaultDailyExpenses.String()); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", r.ID, err)
		}
	}
	for _, c := range ws.RateCards {
		if _, err := sqlTx.ExecContext(ctx,
			"INSERT OR REPLACE INTO rate_cards (id, name) VALUES (?, ?)", c.ID, c.Name); err != nil {
			return fmt.Errorf("failed to seed rate card %s: %w", c.ID, err)
		}
		for _, e := range c.Entries {
			if _, err := sqlTx.ExecContext(ctx,
				"INSERT OR REPLACE INTO rate_card_entries (rate_card_id, resource_id, sell_rate) VALUES (?, ?, ?)",
				c.ID, e.ResourceID, e.SellRate.String()); err != nil {
				return fmt.Errorf("failed to seed rate card entry %s/%s: %w", c.ID, e.ResourceID, err)
			}
		}
	}
	for _, f := range ws.Financials {
		if _, err := sqlTx.ExecContext(ctx,
			"INSERT OR REPLACE INTO financials (resource_id, daily_cost, daily_expenses, sell_rate) VALUES (?, ?, ?, ?)",
			f.ResourceID, f.DailyCost.String(), f.DailyExpenses.String(), decimalString(f.SellRate)); err != nil {
			return fmt.Errorf("failed to seed financials %s: %w", f.ResourceID, err)
		}
	}
	for _, e := range ws.Expenses {
		if _, err := sqlTx.ExecContext(ctx,
			"INSERT OR REPLACE INTO expenses (id, project_id, date, amount, description) VALUES (?, ?, ?, ?, ?)",
			e.ID, e.ProjectID, e.Date.String(), e.Amount.String(), e.Description); err != nil {
			return fmt.Errorf("failed to seed expense %s: %w", e.ID, err)
		}
	}
	for _, m := range ws.Milestones {
		if _, err := sqlTx.ExecContext(ctx,
			"INSERT OR REPLACE INTO milestones (id, project_id, date, amount, name) VALUES (?, ?, ?, ?, ?)",
			m.ID, m.ProjectID, m.Date.String(), m.Amount.String(), m.Name); err != nil {
			return fmt.Errorf("failed to seed milestone %s: %w", m.ID, err)
		}
	}

	return sqlTx.Commit()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func decimalString(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return nullString(d.String())
}

func parseDate(s string) generic.Date {
	if s == "" {
		return generic.Date{}
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return generic.Date{}
	}
	return d
}

func formatDate(d generic.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func holidayID(h calendar.Entry) string {
	if h.ID != "" {
		return h.ID
	}
	return h.Date.String() + "/" + string(h.Scope) + "/" + h.Location
}
