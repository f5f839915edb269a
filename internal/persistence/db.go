// Package persistence provides SQLite-based storage for customer records
// and simulation state between runs.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"shopfloor/internal/customer"
	"shopfloor/internal/engine"
	"shopfloor/internal/store"
)

// DB wraps a SQLite connection for simulation state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		archetype_id TEXT NOT NULL,
		trait_ids_json TEXT NOT NULL,
		personal_delta_json TEXT NOT NULL,
		trust INTEGER NOT NULL,
		level INTEGER NOT NULL,
		xp INTEGER NOT NULL,
		wallet_base REAL NOT NULL,
		lifetime_spent REAL NOT NULL,
		visit_count INTEGER NOT NULL,
		purchased_json TEXT NOT NULL,
		last_visit_tick INTEGER NOT NULL,
		last_leave_reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		customer_id INTEGER NOT NULL,
		resource_id INTEGER NOT NULL,
		qty INTEGER NOT NULL,
		amount REAL NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_customers_archetype ON customers(archetype_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRecords writes all customer records to the database (full replace).
func (db *DB) SaveRecords(records []*customer.Record) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM customers"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO customers
		(id, name, archetype_id, trait_ids_json, personal_delta_json,
		 trust, level, xp, wallet_base, lifetime_spent, visit_count,
		 purchased_json, last_visit_tick, last_leave_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		traitsJSON, _ := json.Marshal(rec.TraitIDs)
		deltaJSON, _ := json.Marshal(rec.PersonalDelta)
		purchasedJSON, _ := json.Marshal(rec.PurchasedCategories)

		_, err := stmt.Exec(
			rec.ID, rec.Name, rec.ArchetypeID,
			string(traitsJSON), string(deltaJSON),
			rec.Trust, rec.Level, rec.XP, rec.WalletBase,
			rec.LifetimeSpent, rec.VisitCount,
			string(purchasedJSON), rec.LastVisitTick, rec.LastLeaveReason,
		)
		if err != nil {
			return fmt.Errorf("insert customer %d: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

type customerRow struct {
	ID              customer.ID `db:"id"`
	Name            string      `db:"name"`
	ArchetypeID     string      `db:"archetype_id"`
	TraitIDsJSON    string      `db:"trait_ids_json"`
	DeltaJSON       string      `db:"personal_delta_json"`
	Trust           int         `db:"trust"`
	Level           int         `db:"level"`
	XP              int         `db:"xp"`
	WalletBase      float64     `db:"wallet_base"`
	LifetimeSpent   float64     `db:"lifetime_spent"`
	VisitCount      int         `db:"visit_count"`
	PurchasedJSON   string      `db:"purchased_json"`
	LastVisitTick   uint64      `db:"last_visit_tick"`
	LastLeaveReason string      `db:"last_leave_reason"`
}

// LoadRecords reads every stored customer record.
func (db *DB) LoadRecords() ([]*customer.Record, error) {
	var rows []customerRow
	if err := db.conn.Select(&rows, "SELECT * FROM customers ORDER BY id"); err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}

	records := make([]*customer.Record, 0, len(rows))
	for _, row := range rows {
		rec := &customer.Record{
			ID:              row.ID,
			Name:            row.Name,
			ArchetypeID:     row.ArchetypeID,
			Trust:           row.Trust,
			Level:           row.Level,
			XP:              row.XP,
			WalletBase:      row.WalletBase,
			LifetimeSpent:   row.LifetimeSpent,
			VisitCount:      row.VisitCount,
			LastVisitTick:   row.LastVisitTick,
			LastLeaveReason: row.LastLeaveReason,
		}
		if err := json.Unmarshal([]byte(row.TraitIDsJSON), &rec.TraitIDs); err != nil {
			return nil, fmt.Errorf("customer %d traits: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.DeltaJSON), &rec.PersonalDelta); err != nil {
			return nil, fmt.Errorf("customer %d delta: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.PurchasedJSON), &rec.PurchasedCategories); err != nil {
			return nil, fmt.Errorf("customer %d purchases: %w", row.ID, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			`INSERT INTO events (tick, kind, customer_id, resource_id, qty, amount, detail)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.Tick, string(e.Kind), e.Customer, e.Resource, e.Qty, e.Amount, e.Detail,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in simulation metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO sim_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. Missing keys return "".
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// LastTick returns the tick recorded by the most recent save, 0 if none.
func (db *DB) LastTick() (uint64, error) {
	raw, err := db.GetMeta("last_tick")
	if err != nil || raw == "" {
		return 0, err
	}
	tick, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse last_tick: %w", err)
	}
	return tick, nil
}

// SaveState performs a full save of the simulation's durable state.
func (db *DB) SaveState(sim *engine.Simulation) error {
	records := make([]*customer.Record, 0, len(sim.Records))
	for _, rec := range sim.Records {
		records = append(records, rec)
	}
	slog.Info("saving simulation state", "customers", len(records), "tick", sim.LastTick)

	if err := db.SaveRecords(records); err != nil {
		return fmt.Errorf("save customers: %w", err)
	}
	if err := db.SaveEvents(sim.Events.Recent(0)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(sim.LastTick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("revenue", strconv.FormatFloat(sim.Ledger.Revenue(), 'f', -1, 64)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("simulation state saved")
	return nil
}

// LoadRevenue returns the revenue recorded by the most recent save.
func (db *DB) LoadRevenue() (float64, error) {
	raw, err := db.GetMeta("revenue")
	if err != nil || raw == "" {
		return 0, err
	}
	rev, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse revenue: %w", err)
	}
	return rev, nil
}

// RecentEvents returns the most recent N stored events.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	type eventRow struct {
		Tick     uint64  `db:"tick"`
		Kind     string  `db:"kind"`
		Customer uint64  `db:"customer_id"`
		Resource uint64  `db:"resource_id"`
		Qty      int     `db:"qty"`
		Amount   float64 `db:"amount"`
		Detail   string  `db:"detail"`
	}
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT tick, kind, customer_id, resource_id, qty, amount, detail FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, engine.Event{
			Tick:     row.Tick,
			Kind:     engine.EventKind(row.Kind),
			Customer: customer.ID(row.Customer),
			Resource: store.ResourceID(row.Resource),
			Qty:      row.Qty,
			Amount:   row.Amount,
			Detail:   row.Detail,
		})
	}
	return events, nil
}
