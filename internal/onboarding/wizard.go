// Package onboarding runs the two-step setup wizard that collects a new user's
// income, savings and expenses and performs their first reconciliation.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/fintrack-be/internal/apperr"
	"github.com/hongminglow/fintrack-be/internal/finance"
	"github.com/hongminglow/fintrack-be/internal/users"
)

// State is a wizard step.
type State int

const (
	CollectingIncome State = iota
	CollectingExpenses
	Completed
)

func (s State) String() string {
	switch s {
	case CollectingIncome:
		return "collecting_income"
	case CollectingExpenses:
		return "collecting_expenses"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrWrongState is returned when a step is submitted out of order.
var ErrWrongState = errors.New("setup step not available")

const (
	msgIncomeRequired = "Please fill out both income and savings."
	msgLoginRequired  = "You must be logged in."
)

// UserResolver is the part of users.Resolver the wizard uses.
type UserResolver interface {
	ResolveOrCreate(ctx context.Context, id users.Identity) (uuid.UUID, error)
}

// Reconciler is the part of reconcile.Reconciler the wizard uses.
type Reconciler interface {
	ReplaceFinanceSnapshot(ctx context.Context, userID uuid.UUID, income, savings decimal.Decimal) error
	ReplaceExpenseSet(ctx context.Context, userID uuid.UUID, entries []finance.ExpenseEntry) (int, error)
}

// ExpenseForm is the second wizard step as submitted.
type ExpenseForm struct {
	Fixed  map[finance.FixedCategory]finance.RawAmount
	Custom []finance.CustomExpense
}

// Wizard holds one client's progress through setup.
type Wizard struct {
	state   State
	income  finance.RawAmount
	savings finance.RawAmount
}

// NewWizard starts a wizard at CollectingIncome.
func NewWizard() *Wizard {
	return &Wizard{state: CollectingIncome}
}

// State reports the current step.
func (w *Wizard) State() State {
	return w.state
}

// Income returns what step one collected.
func (w *Wizard) Income() (income, savings finance.RawAmount) {
	return w.income, w.savings
}

// SubmitIncome records step one. Both fields must be filled in; otherwise the
// wizard stays where it is.
func (w *Wizard) SubmitIncome(income, savings finance.RawAmount) error {
	if w.state == Completed {
		return ErrWrongState
	}
	if income.Empty() || savings.Empty() {
		return apperr.Validation(msgIncomeRequired)
	}
	w.income = finance.RawAmount(strings.TrimSpace(string(income)))
	w.savings = finance.RawAmount(strings.TrimSpace(string(savings)))
	w.state = CollectingExpenses
	return nil
}

// Back returns to step one, keeping what was entered.
func (w *Wizard) Back() error {
	if w.state != CollectingExpenses {
		return ErrWrongState
	}
	w.state = CollectingIncome
	return nil
}

// Complete merges and filters the expense form, resolves the user, then
// replaces their finance row and expense set in that order. The wizard only
// moves to Completed when every step succeeds; rows written before a failing
// step stay written.
func (w *Wizard) Complete(ctx context.Context, id users.Identity, form ExpenseForm, resolver UserResolver, rec Reconciler) error {
	if w.state != CollectingExpenses {
		return ErrWrongState
	}
	if strings.TrimSpace(id.UID) == "" {
		return apperr.Validation(msgLoginRequired)
	}

	entries := finance.MergeSetupExpenses(form.Fixed, form.Custom)

	userID, err := resolver.ResolveOrCreate(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	income := finance.ParseAmount(string(w.income))
	savings := finance.ParseAmount(string(w.savings))
	if err := rec.ReplaceFinanceSnapshot(ctx, userID, income, savings); err != nil {
		return fmt.Errorf("save finances: %w", err)
	}
	if _, err := rec.ReplaceExpenseSet(ctx, userID, entries); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}

	w.state = Completed
	return nil
}
