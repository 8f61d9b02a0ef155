// Package reconcile replaces a user's finance and expense rows wholesale.
//
// A replace is a delete of every row the user owns followed by an insert of
// the new set. The two steps are separate store calls: if the insert fails the
// user is left with no rows until the next successful replace, and two
// concurrent replaces for the same user may interleave and leave zero or two
// finance rows. Stores implementing storage.AtomicFinanceReplacer avoid the
// latter for finance rows.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/fintrack-be/internal/finance"
	"github.com/hongminglow/fintrack-be/internal/models"
	"github.com/hongminglow/fintrack-be/internal/storage"
)

// ErrReconciliationFailed wraps a failed delete or insert step.
var ErrReconciliationFailed = errors.New("reconciliation failed")

// Store is the subset of storage the reconciler needs.
type Store interface {
	storage.FinanceStore
	storage.ExpenseStore
}

// Reconciler owns the replace-on-submit semantics for finance and expense rows.
type Reconciler struct {
	store Store
}

// New constructs a Reconciler.
func New(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// ReplaceFinanceSnapshot leaves the user with exactly one finance row holding
// the given values. Values are stored as given, without sign or range checks.
func (r *Reconciler) ReplaceFinanceSnapshot(ctx context.Context, userID uuid.UUID, income, savings decimal.Decimal) error {
	snap := models.FinanceSnapshot{UserID: userID, MonthlyIncome: income, TotalSavings: savings}

	if atomic, ok := r.store.(storage.AtomicFinanceReplacer); ok {
		if err := atomic.ReplaceFinance(ctx, snap); err != nil {
			return fmt.Errorf("%w: replace finance: %w", ErrReconciliationFailed, err)
		}
		return nil
	}

	if err := r.store.DeleteFinances(ctx, userID); err != nil {
		return fmt.Errorf("%w: delete finances: %w", ErrReconciliationFailed, err)
	}
	if err := r.store.InsertFinance(ctx, snap); err != nil {
		return fmt.Errorf("%w: insert finance: %w", ErrReconciliationFailed, err)
	}
	return nil
}

// ReplaceExpenseSet swaps the user's expenses for the valid subset of entries
// and returns how many rows were written. Entries without a category or amount
// are skipped silently; amounts that are not numbers are stored as zero.
func (r *Reconciler) ReplaceExpenseSet(ctx context.Context, userID uuid.UUID, entries []finance.ExpenseEntry) (int, error) {
	valid := finance.NormalizeEntries(entries)

	if err := r.store.DeleteExpenses(ctx, userID); err != nil {
		return 0, fmt.Errorf("%w: delete expenses: %w", ErrReconciliationFailed, err)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	records := make([]models.ExpenseRecord, len(valid))
	for i, e := range valid {
		records[i] = models.ExpenseRecord{UserID: userID, Category: e.Category, Amount: e.Amount}
	}
	if err := r.store.InsertExpenses(ctx, records); err != nil {
		return 0, fmt.Errorf("%w: insert expenses: %w", ErrReconciliationFailed, err)
	}
	return len(records), nil
}

// Snapshot reads back the user's finance row. It returns storage.ErrNotFound
// when there is none and storage.ErrDuplicateSnapshot when an interleaved
// replace left more than one.
func (r *Reconciler) Snapshot(ctx context.Context, userID uuid.UUID) (models.FinanceSnapshot, error) {
	rows, err := r.store.ListFinances(ctx, userID)
	if err != nil {
		return models.FinanceSnapshot{}, err
	}
	switch len(rows) {
	case 0:
		return models.FinanceSnapshot{}, storage.ErrNotFound
	case 1:
		return rows[0], nil
	default:
		return models.FinanceSnapshot{}, storage.ErrDuplicateSnapshot
	}
}

// Expenses reads back the user's expense rows in stored order.
func (r *Reconciler) Expenses(ctx context.Context, userID uuid.UUID) ([]models.ExpenseRecord, error) {
	return r.store.ListExpenses(ctx, userID)
}

// Load assembles the metrics input for a user. ok is false when the user has
// no readable finance row, which callers show as "no data".
func (r *Reconciler) Load(ctx context.Context, userID uuid.UUID) (snap finance.Snapshot, ok bool, err error) {
	row, err := r.Snapshot(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrDuplicateSnapshot):
		return finance.Snapshot{}, false, nil
	case err != nil:
		return finance.Snapshot{}, false, err
	}

	records, err := r.store.ListExpenses(ctx, userID)
	if err != nil {
		return finance.Snapshot{}, false, err
	}
	expenses := make([]finance.Expense, len(records))
	for i, rec := range records {
		expenses[i] = finance.Expense{Category: rec.Category, Amount: rec.Amount}
	}
	return finance.Snapshot{Income: row.MonthlyIncome, Savings: row.TotalSavings, Expenses: expenses}, true, nil
}
