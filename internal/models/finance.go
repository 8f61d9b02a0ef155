package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinanceSnapshot is the single current income/savings row for a user.
type FinanceSnapshot struct {
	UserID        uuid.UUID       `json:"user_id"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	TotalSavings  decimal.Decimal `json:"total_savings"`
}

// ExpenseRecord is one persisted expense category for a user.
type ExpenseRecord struct {
	UserID   uuid.UUID       `json:"user_id"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}
