package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"divvy/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "divvy.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleExpense(created time.Time) core.Expense {
	return core.Expense{
		TotalAmount: 90,
		NumPeople:   3,
		Description: "dinner",
		CreatedAt:   created,
		Participants: []core.Participant{
			{Name: "Alice", Contribution: 0, Balance: -30},
			{Name: "Bob", Contribution: 30, Balance: 0},
			{Name: "Carol", Contribution: 60, Phone: "5551234567", Balance: 30},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := time.Date(2026, time.March, 5, 18, 30, 0, 0, time.UTC)
	id, err := repo.Save(ctx, sampleExpense(created))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != id || got.TotalAmount != 90 || got.NumPeople != 3 || got.Description != "dinner" {
		t.Fatalf("unexpected record %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, created)
	}
	if len(got.Participants) != 3 {
		t.Fatalf("participants = %d, want 3", len(got.Participants))
	}
	if got.Participants[2].Phone != "5551234567" || got.Participants[2].Balance != 30 {
		t.Fatalf("participant round-trip lost fields: %+v", got.Participants[2])
	}
}

func TestGetUnknown(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetByID(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListByMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	march := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	april := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	for _, ts := range []time.Time{march, march.Add(time.Hour), april} {
		if _, err := repo.Save(ctx, sampleExpense(ts)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := repo.ListByMonth(ctx, 2026, 3)
	if err != nil {
		t.Fatalf("list by month: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d expenses for March, want 2", len(got))
	}
	// Newest first.
	if got[0].CreatedAt.Before(got[1].CreatedAt) {
		t.Fatalf("expected descending order, got %v then %v", got[0].CreatedAt, got[1].CreatedAt)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d expenses, want 3", len(all))
	}
}

func TestListMonths(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, ts := range []time.Time{
		time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC),
	} {
		if _, err := repo.Save(ctx, sampleExpense(ts)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	months, err := repo.ListMonths(ctx)
	if err != nil {
		t.Fatalf("list months: %v", err)
	}
	want := []Month{{2026, 3}, {2025, 12}}
	if len(months) != len(want) {
		t.Fatalf("months = %v, want %v", months, want)
	}
	for i := range want {
		if months[i] != want[i] {
			t.Fatalf("months = %v, want %v", months, want)
		}
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Save(ctx, sampleExpense(time.Now().UTC()))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after delete", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for repeat delete", err)
	}
}
