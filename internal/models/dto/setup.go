package dto

import "github.com/hongminglow/fintrack-be/internal/finance"

type SetupIncomeRequest struct {
	Income  finance.RawAmount `json:"income"`
	Savings finance.RawAmount `json:"savings"`
}

// SetupExpensesRequest carries the fixed categories keyed by name plus any
// custom rows the user added.
type SetupExpensesRequest struct {
	Expenses map[string]finance.RawAmount `json:"expenses"`
	Custom   []finance.CustomExpense      `json:"custom"`
}

type SetupCompleteResponse struct {
	Completed bool   `json:"completed"`
	Redirect  string `json:"redirect"`
}
