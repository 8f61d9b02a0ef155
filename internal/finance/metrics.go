// Package finance derives dashboard figures from a user's income, savings and
// expense categories. Everything here is pure; callers pass the current time.
package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// Snapshot is the input to every metric: one finance row plus the expense set.
type Snapshot struct {
	Income   decimal.Decimal
	Savings  decimal.Decimal
	Expenses []Expense
}

// Point is one labelled value in a chart series.
type Point struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// TotalExpenses sums every expense amount.
func (s Snapshot) TotalExpenses() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// MonthlyNet is income minus total expenses.
func (s Snapshot) MonthlyNet() decimal.Decimal {
	return s.Income.Sub(s.TotalExpenses())
}

// OnboardingNetWorth is the rough estimate shown while editing income:
// savings plus a year of income, ignoring expenses.
func (s Snapshot) OnboardingNetWorth() decimal.Decimal {
	return s.Savings.Add(s.Income.Mul(twelve))
}

// NetWorthEstimate projects savings forward by remainingMonths of net income.
func (s Snapshot) NetWorthEstimate(remainingMonths int) decimal.Decimal {
	return s.Savings.Add(s.MonthlyNet().Mul(decimal.NewFromInt(int64(remainingMonths))))
}

// ProjectedSeries returns one point per label; point i is i+1 months of net
// income on top of savings.
func (s Snapshot) ProjectedSeries(labels []string) []Point {
	net := s.MonthlyNet()
	out := make([]Point, len(labels))
	for i, label := range labels {
		out[i] = Point{
			Label: label,
			Value: s.Savings.Add(net.Mul(decimal.NewFromInt(int64(i + 1)))),
		}
	}
	return out
}

// ComparisonSeries is income, total expenses and savings side by side.
func (s Snapshot) ComparisonSeries() []Point {
	return []Point{
		{Label: "Income", Value: s.Income},
		{Label: "Expenses", Value: s.TotalExpenses()},
		{Label: "Savings", Value: s.Savings},
	}
}

// CategoryBreakdown lists each expense as a point, in stored order.
func (s Snapshot) CategoryBreakdown() []Point {
	out := make([]Point, 0, len(s.Expenses))
	for _, e := range s.Expenses {
		out = append(out, Point{Label: e.Category, Value: e.Amount})
	}
	return out
}

// RemainingMonths counts the calendar months after now's month until year end.
// October gives 2; December gives 0; January gives 11. The formula written as
// 12 minus a 0-based month index would give January 12 but October 3, which
// contradicts the October example, so the 1-based month is used.
func RemainingMonths(now time.Time) int {
	return 12 - int(now.Month())
}

// RemainingMonthLabels returns short names for the months counted by
// RemainingMonths, nearest first.
func RemainingMonthLabels(now time.Time) []string {
	labels := make([]string, 0, RemainingMonths(now))
	for m := now.Month() + 1; m <= time.December; m++ {
		labels = append(labels, m.String()[:3])
	}
	return labels
}

// Dashboard bundles every derived figure for one read of the dashboard.
type Dashboard struct {
	MonthlyIncome      decimal.Decimal `json:"monthly_income"`
	TotalSavings       decimal.Decimal `json:"total_savings"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	MonthlyNet         decimal.Decimal `json:"monthly_net"`
	RemainingMonths    int             `json:"remaining_months"`
	NetWorthEstimate   decimal.Decimal `json:"net_worth_estimate"`
	OnboardingNetWorth decimal.Decimal `json:"onboarding_net_worth"`
	Projection         []Point         `json:"projection"`
	Comparison         []Point         `json:"comparison"`
	Categories         []Point         `json:"categories"`
}

// Dashboard computes the full dashboard view as of now.
func (s Snapshot) Dashboard(now time.Time) Dashboard {
	remaining := RemainingMonths(now)
	return Dashboard{
		MonthlyIncome:      s.Income,
		TotalSavings:       s.Savings,
		TotalExpenses:      s.TotalExpenses(),
		MonthlyNet:         s.MonthlyNet(),
		RemainingMonths:    remaining,
		NetWorthEstimate:   s.NetWorthEstimate(remaining),
		OnboardingNetWorth: s.OnboardingNetWorth(),
		Projection:         s.ProjectedSeries(RemainingMonthLabels(now)),
		Comparison:         s.ComparisonSeries(),
		Categories:         s.CategoryBreakdown(),
	}
}
