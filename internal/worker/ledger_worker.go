// Package worker mirrors expense records into the external ledger, driven
// by lifecycle events with a periodic re-check for anything the queue
// missed.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"divvy/internal/amqp"
	"divvy/internal/core"
	"divvy/internal/export"
	"divvy/internal/services"
)

// ExpenseReader is the slice of storage the worker needs.
type ExpenseReader interface {
	GetByID(ctx context.Context, id int64) (core.Expense, error)
	ListByMonth(ctx context.Context, year, month int) ([]core.Expense, error)
}

// LedgerWorker applies expense lifecycle events to the ledger.
type LedgerWorker struct {
	store  ExpenseReader
	ledger export.LedgerWriter
}

func NewLedgerWorker(store ExpenseReader, ledger export.LedgerWriter) *LedgerWorker {
	return &LedgerWorker{store: store, ledger: ledger}
}

// HandleEvent processes one expense event. Returned errors requeue the
// delivery; an expense already deleted from storage is not an error.
func (w *LedgerWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	switch event.Action {
	case amqp.ActionCreated:
		return w.handleCreated(ctx, event.ID)
	case amqp.ActionDeleted:
		return w.handleDeleted(ctx, event.ID)
	default:
		return fmt.Errorf("unknown action %q", event.Action)
	}
}

func (w *LedgerWorker) handleCreated(ctx context.Context, id int64) error {
	expense, err := w.store.GetByID(ctx, id)
	if err != nil {
		if services.IsNotFound(err) {
			// Deleted before the event was consumed; nothing to mirror.
			slog.WarnContext(ctx, "Expense vanished before export, skipping",
				"expense_id", id)
			return nil
		}
		return fmt.Errorf("get expense %d: %w", id, err)
	}

	_, transfers := core.Settle(expense.Participants, expense.TotalAmount)

	if err := w.ledger.AppendExpense(ctx, expense, transfers); err != nil {
		return fmt.Errorf("append expense %d to ledger: %w", id, err)
	}
	return nil
}

func (w *LedgerWorker) handleDeleted(ctx context.Context, id int64) error {
	if err := w.ledger.RemoveExpense(ctx, id); err != nil {
		return fmt.Errorf("remove expense %d from ledger: %w", id, err)
	}
	return nil
}

// SyncPending exports any current-month expense the ledger is missing.
// Called on startup and on a timer so dropped events eventually converge.
func (w *LedgerWorker) SyncPending(ctx context.Context) error {
	now := time.Now()
	expenses, err := w.store.ListByMonth(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return fmt.Errorf("list current month expenses: %w", err)
	}

	var exported int
	for _, e := range expenses {
		present, err := w.ledger.Contains(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("check ledger for expense %d: %w", e.ID, err)
		}
		if present {
			continue
		}

		_, transfers := core.Settle(e.Participants, e.TotalAmount)
		if err := w.ledger.AppendExpense(ctx, e, transfers); err != nil {
			return fmt.Errorf("append expense %d to ledger: %w", e.ID, err)
		}
		exported++
	}

	if exported > 0 {
		slog.InfoContext(ctx, "Exported pending expenses",
			"count", exported,
			"year", now.Year(),
			"month", int(now.Month()))
	}
	return nil
}
