// Package sqlstore persists expenses in SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"expensetracker/internal/core"
)

// Dialect selects the SQL flavour and database/sql driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string { return string(d) }

// bind rewrites ? placeholders to $n for PostgreSQL.
func (d Dialect) bind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) dateColumn() string {
	if d == Postgres {
		return "to_char(date, 'YYYY-MM-DD')"
	}
	return "date"
}

func (d Dialect) now() string {
	if d == Postgres {
		return "now()"
	}
	return "CURRENT_TIMESTAMP"
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (creating if needed) the database file at dbPath and migrates it.
func OpenSQLite(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

// OpenPostgres connects to the database at url and migrates it.
func OpenPostgres(url string) (*Store, error) {
	return open(Postgres, url)
}

func open(d Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if d == SQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

// List returns every expense, newest date first and newest insert first on ties.
func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	query := "SELECT id, amount, category, description, " + s.dialect.dateColumn() +
		" FROM expenses ORDER BY date DESC, seq DESC"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list expenses: %w", core.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var (
			e      core.Expense
			amount decimal.Decimal
			cat    string
			date   string
		)
		if err := rows.Scan(&e.ID, &amount, &cat, &e.Description, &date); err != nil {
			return nil, fmt.Errorf("%w: scan expense: %w", core.ErrStoreUnavailable, err)
		}
		e.Amount = core.MoneyFromDecimal(amount)
		e.Category = core.Category(cat)
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("expense %s has unreadable date %q: %w", e.ID, date, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate expenses: %w", core.ErrStoreUnavailable, err)
	}
	return expenses, nil
}

// Create inserts e under a fresh UUID.
func (s *Store) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()

	query := s.dialect.bind("INSERT INTO expenses (id, amount, category, description, date) VALUES (?, ?, ?, ?, ?)")
	if _, err := s.db.ExecContext(ctx, query, e.ID, e.Amount.Decimal(), string(e.Category), e.Description, e.Date.String()); err != nil {
		return core.Expense{}, fmt.Errorf("%w: insert expense: %w", core.ErrStoreUnavailable, err)
	}

	slog.DebugContext(ctx, "Expense inserted", "id", e.ID, "dialect", s.dialect)
	return e, nil
}

// Update overwrites the row with the given id.
func (s *Store) Update(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	query := s.dialect.bind("UPDATE expenses SET amount = ?, category = ?, description = ?, date = ?, updated_at = " +
		s.dialect.now() + " WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, e.Amount.Decimal(), string(e.Category), e.Description, e.Date.String(), id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: update expense %s: %w", core.ErrStoreUnavailable, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: update expense %s: %w", core.ErrStoreUnavailable, id, err)
	}
	if n == 0 {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, core.ErrNotFound)
	}

	e.ID = id
	return e, nil
}

// Delete removes the row with the given id; missing rows are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	query := s.dialect.bind("DELETE FROM expenses WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: delete expense %s: %w", core.ErrStoreUnavailable, id, err)
	}
	return nil
}
