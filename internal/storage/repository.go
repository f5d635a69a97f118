// Package storage persists expense records in SQLite. Participants are
// stored alongside the record as a JSON column; records are created and
// deleted, never updated.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"divvy/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no expense exists for the requested id.
var ErrNotFound = errors.New("expense not found")

// Month identifies a year/month combination that has expenses.
type Month struct {
	Year  int
	Month int
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save inserts a new expense record and returns its id.
func (r *SQLiteRepository) Save(ctx context.Context, e core.Expense) (int64, error) {
	participants, err := json.Marshal(e.Participants)
	if err != nil {
		return 0, fmt.Errorf("marshal participants: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (total_amount, num_people, description, created_at, participants)
		VALUES (?, ?, ?, ?, ?)`,
		e.TotalAmount, e.NumPeople, e.Description,
		e.CreatedAt.UTC().Format(time.RFC3339), string(participants))
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"total_amount", e.TotalAmount,
		"num_people", e.NumPeople)

	return id, nil
}

// GetByID returns the expense with the given id, or ErrNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, total_amount, num_people, description, created_at, participants
		FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// ListAll returns every expense, newest first.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, total_amount, num_people, description, created_at, participants
		FROM expenses ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

// ListByMonth returns the expenses created inside one year/month, newest
// first.
func (r *SQLiteRepository) ListByMonth(ctx context.Context, year, month int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, total_amount, num_people, description, created_at, participants
		FROM expenses
		WHERE strftime('%Y', created_at) = ? AND strftime('%m', created_at) = ?
		ORDER BY created_at DESC, id DESC`,
		fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	if err != nil {
		return nil, fmt.Errorf("list expenses for %d-%02d: %w", year, month, err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

// ListMonths returns the distinct year/month combinations with expenses,
// most recent first.
func (r *SQLiteRepository) ListMonths(ctx context.Context) ([]Month, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT
			CAST(strftime('%Y', created_at) AS INTEGER) AS y,
			CAST(strftime('%m', created_at) AS INTEGER) AS m
		FROM expenses ORDER BY y DESC, m DESC`)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	defer rows.Close()

	var months []Month
	for rows.Next() {
		var m Month
		if err := rows.Scan(&m.Year, &m.Month); err != nil {
			return nil, fmt.Errorf("scan month row: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// Delete removes an expense, returning ErrNotFound when the id is unknown.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e            core.Expense
		createdAt    string
		participants string
	)
	if err := row.Scan(&e.ID, &e.TotalAmount, &e.NumPeople, &e.Description, &createdAt, &participants); err != nil {
		return core.Expense{}, err
	}

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = ts

	if err := json.Unmarshal([]byte(participants), &e.Participants); err != nil {
		return core.Expense{}, fmt.Errorf("unmarshal participants: %w", err)
	}
	return e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
