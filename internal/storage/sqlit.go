package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"superinvestorResearch/internal/dataroma"
	"superinvestorResearch/internal/htmltable"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Begin() (*sql.Tx, error)
	Close() error
}

type Store struct{ db DB }

func OpenSQLite(dsn string) (DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(db DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS runs(
		id TEXT PRIMARY KEY, source TEXT NOT NULL, started_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS holdings(
		run_id TEXT NOT NULL REFERENCES runs(id), investor TEXT, stock TEXT,
		portfolio_pct TEXT, shares INTEGER, value TEXT
	);
	CREATE TABLE IF NOT EXISTS scraped_tables(
		run_id TEXT NOT NULL REFERENCES runs(id), name TEXT NOT NULL, headers TEXT,
		PRIMARY KEY(run_id, name)
	);
	CREATE TABLE IF NOT EXISTS scraped_rows(
		run_id TEXT NOT NULL, name TEXT NOT NULL, row_idx INTEGER NOT NULL, cells TEXT
	)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db} }

// NewRun registers a scrape run of source and returns its id.
func (s *Store) NewRun(source string, at time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO runs(id,source,started_at) VALUES(?,?,?)`, id, source, at.Unix())
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SaveHoldings(runID string, holdings []dataroma.Holding) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, h := range holdings {
		_, err := tx.Exec(`INSERT INTO holdings(run_id,investor,stock,portfolio_pct,shares,value) VALUES(?,?,?,?,?,?)`,
			runID, h.Investor, h.Stock, h.PortfolioPct.String(), h.Shares, h.Value.String())
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) Holdings(runID string) ([]dataroma.Holding, error) {
	rows, err := s.db.Query(`SELECT investor,stock,portfolio_pct,shares,value FROM holdings WHERE run_id=? ORDER BY rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dataroma.Holding
	for rows.Next() {
		var (
			h          dataroma.Holding
			pct, value string
		)
		if err := rows.Scan(&h.Investor, &h.Stock, &pct, &h.Shares, &value); err != nil {
			return nil, err
		}
		if h.PortfolioPct, err = decimal.NewFromString(pct); err != nil {
			return nil, fmt.Errorf("holding %s: %w", h.Stock, err)
		}
		if h.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("holding %s: %w", h.Stock, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// SaveTable stores a scraped table under name. Rows are kept as JSON arrays
// since tables have no fixed schema.
func (s *Store) SaveTable(runID, name string, t htmltable.Table) error {
	headers, err := json.Marshal(t.Headers)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO scraped_tables(run_id,name,headers) VALUES(?,?,?)`, runID, name, string(headers)); err != nil {
		tx.Rollback()
		return err
	}
	for i, r := range t.Rows {
		cells, err := json.Marshal(r)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO scraped_rows(run_id,name,row_idx,cells) VALUES(?,?,?,?)`, runID, name, i, string(cells)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) Table(runID, name string) (htmltable.Table, error) {
	var t htmltable.Table
	rows, err := s.db.Query(`SELECT headers FROM scraped_tables WHERE run_id=? AND name=?`, runID, name)
	if err != nil {
		return t, err
	}
	found := false
	for rows.Next() {
		var headers string
		if err := rows.Scan(&headers); err != nil {
			rows.Close()
			return t, err
		}
		if err := json.Unmarshal([]byte(headers), &t.Headers); err != nil {
			rows.Close()
			return t, err
		}
		found = true
	}
	rows.Close()
	if !found {
		return t, fmt.Errorf("table %q of run %s: %w", name, runID, sql.ErrNoRows)
	}

	rows, err = s.db.Query(`SELECT cells FROM scraped_rows WHERE run_id=? AND name=? ORDER BY row_idx ASC`, runID, name)
	if err != nil {
		return t, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cells string
			row   []string
		)
		if err := rows.Scan(&cells); err != nil {
			return t, err
		}
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return t, err
		}
		t.Rows = append(t.Rows, row)
	}
	return t, rows.Err()
}
