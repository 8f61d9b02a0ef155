package dto

import (
	"github.com/shopspring/decimal"

	"github.com/hongminglow/fintrack-be/internal/finance"
)

type UpdateFinancesRequest struct {
	MonthlyIncome finance.RawAmount `json:"monthly_income"`
	TotalSavings  finance.RawAmount `json:"total_savings"`
}

type FinancesResponse struct {
	MonthlyIncome      decimal.Decimal `json:"monthly_income"`
	TotalSavings       decimal.Decimal `json:"total_savings"`
	OnboardingNetWorth decimal.Decimal `json:"onboarding_net_worth"`
}

type UpdateExpensesRequest struct {
	Expenses []finance.ExpenseEntry `json:"expenses"`
}

type ExpensesResponse struct {
	Expenses []finance.Expense `json:"expenses"`
	Total    decimal.Decimal   `json:"total"`
}

type UpdateExpensesResponse struct {
	Saved int `json:"saved"`
}

type DashboardResponse struct {
	HasData   bool               `json:"has_data"`
	Dashboard *finance.Dashboard `json:"dashboard,omitempty"`
}
