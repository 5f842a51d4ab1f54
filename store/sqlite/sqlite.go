/*
Package sqlite provides SQLite-backed persistence for the contract engine.

PURPOSE:

	Stores the entities the engine consumes: customers, contracts,
	price increases, commission rate cards and the settings singleton.
	The engine itself never touches this package - handlers load
	snapshots here and hand them to the pure calculators.

KEY TABLES:

	customers:        Customer master data
	contracts:        Contracts, FK to customers with ON DELETE CASCADE
	price_increases:  Effective-dated increase rules (JSON stream map)
	commission_rates: Effective-dated rate cards (JSON stream map)
	settings:         Singleton configuration row (id = 'default')

JSON COLUMNS:

	Per-stream maps and the exit payout tier list are stored as JSON
	documents in the factory package's document shapes. Stream-key
	normalization happens in factory when documents are read back, so a
	hand-edited row with an unknown key degrades to a no-op rather than
	an error.

MONEY:

	Amounts are stored as decimal strings, never as floats.

CONCURRENCY:

	Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
	database-level concurrency control handles this instead.

WAL MODE:

	SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
	- Multiple readers don't block
	- Single writer at a time
	- Better crash recovery

USAGE:

	store, err := sqlite.New("./data/contracts.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

MIGRATION:

	Schema is auto-migrated on New(). For production, use a proper
	migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - factory: Document shapes used for the JSON columns
  - api: The HTTP layer driving this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/provisio/contract-engine/engine"
	"github.com/provisio/contract-engine/factory"
	"github.com/provisio/contract-engine/report"
)

// settingsID is the fixed primary key of the settings singleton row.
const settingsID = "default"

// ErrSettingsNotFound is returned when the settings row has never been
// written. Commission and exit computations must refuse to run without
// settings, so callers treat this as a fatal precondition.
var ErrSettingsNotFound = errors.New("settings not configured")

// ErrNotFound is returned for lookups of entities that do not exist.
var ErrNotFound = errors.New("not found")

// Store persists all engine entities in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
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
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		name2 TEXT DEFAULT '',
		city TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		customer_number TEXT NOT NULL UNIQUE,
		country TEXT NOT NULL DEFAULT 'Deutschland',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_customers_name2 ON customers(name2);

	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		software_rental_amount TEXT NOT NULL DEFAULT '0',
		software_care_amount TEXT NOT NULL DEFAULT '0',
		apps_amount TEXT NOT NULL DEFAULT '0',
		purchase_amount TEXT NOT NULL DEFAULT '0',
		cloud_amount TEXT NOT NULL DEFAULT '0',
		start_date TEXT NOT NULL,
		end_date TEXT,
		is_founder_discount BOOLEAN DEFAULT FALSE,
		number_of_seats INTEGER DEFAULT 0,
		excluded_increase_ids_json TEXT DEFAULT '[]',
		included_increase_ids_json TEXT DEFAULT '[]',
		notes TEXT DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_customer ON contracts(customer_id);

	-- Hot path: the customer reference date is MIN(start_date).
	CREATE INDEX IF NOT EXISTS idx_contracts_customer_start
		ON contracts(customer_id, start_date);

	CREATE TABLE IF NOT EXISTS price_increases (
		id TEXT PRIMARY KEY,
		valid_from TEXT NOT NULL,
		lock_in_months INTEGER NOT NULL DEFAULT 24,
		amount_increases_json TEXT NOT NULL DEFAULT '{}',
		description TEXT DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_price_increases_valid_from
		ON price_increases(valid_from);

	CREATE TABLE IF NOT EXISTS commission_rates (
		id TEXT PRIMARY KEY,
		valid_from TEXT NOT NULL,
		rates_json TEXT NOT NULL DEFAULT '{}',
		description TEXT DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_commission_rates_valid_from
		ON commission_rates(valid_from);

	CREATE TABLE IF NOT EXISTS settings (
		id TEXT PRIMARY KEY,
		document_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// SaveCustomer inserts or updates a customer.
func (s *Store) SaveCustomer(ctx context.Context, c engine.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO customers (id, name, name2, city, postal_code, customer_number, country, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			name2 = excluded.name2,
			city = excluded.city,
			postal_code = excluded.postal_code,
			customer_number = excluded.customer_number,
			country = excluded.country,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Name2, c.City, c.PostalCode, c.CustomerNumber, c.Country,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

// GetCustomer retrieves a customer by ID.
func (s *Store) GetCustomer(ctx context.Context, id string) (engine.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c engine.Customer
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, name2, city, postal_code, customer_number, country FROM customers WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.Name2, &c.City, &c.PostalCode, &c.CustomerNumber, &c.Country)

	if err == sql.ErrNoRows {
		return engine.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return engine.Customer{}, fmt.Errorf("failed to load customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns all customers ordered by name.
func (s *Store) ListCustomers(ctx context.Context) ([]engine.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, name2, city, postal_code, customer_number, country FROM customers ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []engine.Customer
	for rows.Next() {
		var c engine.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Name2, &c.City, &c.PostalCode, &c.CustomerNumber, &c.Country); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// DeleteCustomer removes a customer. Their contracts go with them via
// ON DELETE CASCADE.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return nil
}

// =============================================================================
// CONTRACTS
// =============================================================================

// SaveContract inserts or updates a contract.
func (s *Store) SaveContract(ctx context.Context, c engine.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	excludedJSON, _ := json.Marshal(c.ExcludedPriceIncreaseIDs)
	includedJSON, _ := json.Marshal(c.IncludedEarlyPriceIncreaseIDs)

	var endDate *string
	if c.EndDate != nil {
		d := c.EndDate.UTC().Format(time.RFC3339)
		endDate = &d
	}

	query := `
		INSERT INTO contracts
		(id, customer_id, software_rental_amount, software_care_amount, apps_amount,
		 purchase_amount, cloud_amount, start_date, end_date, is_founder_discount,
		 number_of_seats, excluded_increase_ids_json, included_increase_ids_json,
		 notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id,
			software_rental_amount = excluded.software_rental_amount,
			software_care_amount = excluded.software_care_amount,
			apps_amount = excluded.apps_amount,
			purchase_amount = excluded.purchase_amount,
			cloud_amount = excluded.cloud_amount,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			is_founder_discount = excluded.is_founder_discount,
			number_of_seats = excluded.number_of_seats,
			excluded_increase_ids_json = excluded.excluded_increase_ids_json,
			included_increase_ids_json = excluded.included_increase_ids_json,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.CustomerID,
		c.SoftwareRentalAmount.Value.String(),
		c.SoftwareCareAmount.Value.String(),
		c.AppsAmount.Value.String(),
		c.PurchaseAmount.Value.String(),
		c.CloudAmount.Value.String(),
		c.StartDate.UTC().Format(time.RFC3339),
		endDate,
		c.IsFounderDiscount,
		c.NumberOfSeats,
		string(excludedJSON),
		string(includedJSON),
		c.Notes,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

const contractColumns = `id, customer_id, software_rental_amount, software_care_amount,
	apps_amount, purchase_amount, cloud_amount, start_date, end_date,
	is_founder_discount, number_of_seats, excluded_increase_ids_json,
	included_increase_ids_json, notes`

// GetContract retrieves a contract by ID.
func (s *Store) GetContract(ctx context.Context, id string) (engine.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contracts, err := s.queryContracts(ctx,
		"SELECT "+contractColumns+" FROM contracts WHERE id = ?", id)
	if err != nil {
		return engine.Contract{}, err
	}
	if len(contracts) == 0 {
		return engine.Contract{}, fmt.Errorf("contract %s: %w", id, ErrNotFound)
	}
	return contracts[0], nil
}

// ListContracts returns all contracts.
func (s *Store) ListContracts(ctx context.Context) ([]engine.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryContracts(ctx,
		"SELECT "+contractColumns+" FROM contracts ORDER BY start_date")
}

// ListContractsByCustomer returns one customer's contracts.
func (s *Store) ListContractsByCustomer(ctx context.Context, customerID string) ([]engine.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryContracts(ctx,
		"SELECT "+contractColumns+" FROM contracts WHERE customer_id = ? ORDER BY start_date",
		customerID)
}

// FirstContractDate returns the customer's earliest contract start, the
// anchor of the grandfathering clock. ok is false when the customer has
// no contracts.
func (s *Store) FirstContractDate(ctx context.Context, customerID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var startDate sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT MIN(start_date) FROM contracts WHERE customer_id = ?",
		customerID,
	).Scan(&startDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query first contract date: %w", err)
	}
	if !startDate.Valid {
		return time.Time{}, false, nil
	}

	t, err := time.Parse(time.RFC3339, startDate.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt start_date %q: %w", startDate.String, err)
	}
	return t, true, nil
}

// DeleteContract removes a contract.
func (s *Store) DeleteContract(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM contracts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contract %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) queryContracts(ctx context.Context, query string, args ...any) ([]engine.Contract, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []engine.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func scanContract(rows *sql.Rows) (engine.Contract, error) {
	var (
		c            engine.Contract
		rental       string
		care         string
		apps         string
		purchase     string
		cloud        string
		startDate    string
		endDate      sql.NullString
		excludedJSON string
		includedJSON string
	)

	err := rows.Scan(
		&c.ID, &c.CustomerID, &rental, &care, &apps, &purchase, &cloud,
		&startDate, &endDate, &c.IsFounderDiscount, &c.NumberOfSeats,
		&excludedJSON, &includedJSON, &c.Notes,
	)
	if err != nil {
		return c, fmt.Errorf("failed to scan contract: %w", err)
	}

	if c.SoftwareRentalAmount, err = parseMoney(rental); err != nil {
		return c, err
	}
	if c.SoftwareCareAmount, err = parseMoney(care); err != nil {
		return c, err
	}
	if c.AppsAmount, err = parseMoney(apps); err != nil {
		return c, err
	}
	if c.PurchaseAmount, err = parseMoney(purchase); err != nil {
		return c, err
	}
	if c.CloudAmount, err = parseMoney(cloud); err != nil {
		return c, err
	}

	if c.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
		return c, fmt.Errorf("corrupt start date %q: %w", startDate, err)
	}
	if endDate.Valid {
		t, err := time.Parse(time.RFC3339, endDate.String)
		if err != nil {
			return c, fmt.Errorf("corrupt end date %q: %w", endDate.String, err)
		}
		c.EndDate = &t
	}

	if err := json.Unmarshal([]byte(excludedJSON), &c.ExcludedPriceIncreaseIDs); err != nil {
		return c, fmt.Errorf("corrupt excluded increase ids %q: %w", excludedJSON, err)
	}
	if err := json.Unmarshal([]byte(includedJSON), &c.IncludedEarlyPriceIncreaseIDs); err != nil {
		return c, fmt.Errorf("corrupt included increase ids %q: %w", includedJSON, err)
	}

	return c, nil
}

// =============================================================================
// PRICE INCREASES
// =============================================================================

// SavePriceIncrease inserts or updates a price increase rule.
func (s *Store) SavePriceIncrease(ctx context.Context, p engine.PriceIncrease) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := factory.PriceIncreaseToJSON(p)
	increasesJSON, _ := json.Marshal(doc.AmountIncreases)

	query := `
		INSERT INTO price_increases (id, valid_from, lock_in_months, amount_increases_json, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			valid_from = excluded.valid_from,
			lock_in_months = excluded.lock_in_months,
			amount_increases_json = excluded.amount_increases_json,
			description = excluded.description,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.ValidFrom.UTC().Format(time.RFC3339), p.LockInMonths,
		string(increasesJSON), p.Description, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save price increase: %w", err)
	}
	return nil
}

// ListPriceIncreases returns all rules ordered by valid_from.
func (s *Store) ListPriceIncreases(ctx context.Context) ([]engine.PriceIncrease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, valid_from, lock_in_months, amount_increases_json, description FROM price_increases ORDER BY valid_from",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query price increases: %w", err)
	}
	defer rows.Close()

	var increases []engine.PriceIncrease
	for rows.Next() {
		var (
			doc       factory.PriceIncreaseJSON
			lockIn    int
			rawStream string
		)
		if err := rows.Scan(&doc.ID, &doc.ValidFrom, &lockIn, &rawStream, &doc.Description); err != nil {
			return nil, fmt.Errorf("failed to scan price increase: %w", err)
		}
		doc.LockInMonths = &lockIn
		json.Unmarshal([]byte(rawStream), &doc.AmountIncreases)

		p, err := factory.PriceIncreaseFromJSON(doc)
		if err != nil {
			return nil, err
		}
		increases = append(increases, p)
	}
	return increases, rows.Err()
}

// DeletePriceIncrease removes a rule.
func (s *Store) DeletePriceIncrease(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM price_increases WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete price increase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("price increase %s: %w", id, ErrNotFound)
	}
	return nil
}

// =============================================================================
// COMMISSION RATE CARDS
// =============================================================================

// SaveRateSchedule inserts or updates a rate card.
func (s *Store) SaveRateSchedule(ctx context.Context, r engine.RateSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := factory.RateScheduleToJSON(r)
	ratesJSON, _ := json.Marshal(doc.Rates)

	query := `
		INSERT INTO commission_rates (id, valid_from, rates_json, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			valid_from = excluded.valid_from,
			rates_json = excluded.rates_json,
			description = excluded.description,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.ValidFrom.UTC().Format(time.RFC3339),
		string(ratesJSON), r.Description, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save rate schedule: %w", err)
	}
	return nil
}

// ListRateSchedules returns all rate cards ordered by valid_from.
func (s *Store) ListRateSchedules(ctx context.Context) ([]engine.RateSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, valid_from, rates_json, description FROM commission_rates ORDER BY valid_from",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate schedules: %w", err)
	}
	defer rows.Close()

	var schedules []engine.RateSchedule
	for rows.Next() {
		var (
			doc      factory.RateScheduleJSON
			rawRates string
		)
		if err := rows.Scan(&doc.ID, &doc.ValidFrom, &rawRates, &doc.Description); err != nil {
			return nil, fmt.Errorf("failed to scan rate schedule: %w", err)
		}
		json.Unmarshal([]byte(rawRates), &doc.Rates)

		r, err := factory.RateScheduleFromJSON(doc)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, r)
	}
	return schedules, rows.Err()
}

// DeleteRateSchedule removes a rate card.
func (s *Store) DeleteRateSchedule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM commission_rates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rate schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rate schedule %s: %w", id, ErrNotFound)
	}
	return nil
}

// =============================================================================
// SETTINGS SINGLETON
// =============================================================================

// SaveSettings writes the settings singleton row.
func (s *Store) SaveSettings(ctx context.Context, settings engine.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := json.Marshal(factory.SettingsToJSON(settings))
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	query := `
		INSERT INTO settings (id, document_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_json = excluded.document_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query, settingsID, string(doc),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// GetSettings loads the settings singleton. ErrSettingsNotFound when
// the row has never been written.
func (s *Store) GetSettings(ctx context.Context) (engine.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document_json FROM settings WHERE id = ?", settingsID,
	).Scan(&doc)

	if err == sql.ErrNoRows {
		return engine.Settings{}, ErrSettingsNotFound
	}
	if err != nil {
		return engine.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	settings, err := factory.ParseSettings(doc)
	if err != nil {
		return engine.Settings{}, fmt.Errorf("corrupt settings row: %w", err)
	}
	return settings, nil
}

// =============================================================================
// POPULATION SNAPSHOT
// =============================================================================

// LoadPopulation returns every customer grouped with their contracts,
// the shape the aggregation layer consumes.
func (s *Store) LoadPopulation(ctx context.Context) ([]report.CustomerContracts, error) {
	customers, err := s.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	contracts, err := s.ListContracts(ctx)
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[string][]engine.Contract, len(customers))
	for _, c := range contracts {
		byCustomer[c.CustomerID] = append(byCustomer[c.CustomerID], c)
	}

	population := make([]report.CustomerContracts, 0, len(customers))
	for _, customer := range customers {
		population = append(population, report.CustomerContracts{
			Customer:  customer,
			Contracts: byCustomer[customer.ID],
		})
	}
	return population, nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"contracts", "customers", "price_increases", "commission_rates", "settings"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func parseMoney(value string) (engine.Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return engine.Money{}, fmt.Errorf("corrupt amount %q: %w", value, err)
	}
	return engine.Money{Value: d}, nil
}
