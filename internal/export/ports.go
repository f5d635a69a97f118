// Package export defines the outbound port for mirroring expense records
// into an external ledger.
package export

import (
	"context"

	"divvy/internal/core"
)

// LedgerWriter mirrors expense records into an external ledger. The export
// is eventually consistent; the API never waits on it.
type LedgerWriter interface {
	AppendExpense(ctx context.Context, e core.Expense, transfers []core.Transfer) error
	// RemoveExpense clears the ledger row for an expense id. Unknown ids
	// are a no-op.
	RemoveExpense(ctx context.Context, id int64) error
	// Contains reports whether the ledger already holds a row for id.
	Contains(ctx context.Context, id int64) (bool, error)
}
