package finance

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// FixedCategory is one of the expense categories offered during setup.
type FixedCategory int

const (
	Rent FixedCategory = iota
	Utilities
	Groceries
	Transportation
	Miscellaneous
)

var fixedNames = [...]string{"rent", "utilities", "groceries", "transportation", "miscellaneous"}

func (f FixedCategory) String() string {
	if f < 0 || int(f) >= len(fixedNames) {
		return ""
	}
	return fixedNames[f]
}

// FixedCategories lists the setup categories in display order.
func FixedCategories() []FixedCategory {
	return []FixedCategory{Rent, Utilities, Groceries, Transportation, Miscellaneous}
}

// ParseFixedCategory maps a stored label back to its fixed category.
func ParseFixedCategory(label string) (FixedCategory, bool) {
	for i, name := range fixedNames {
		if name == label {
			return FixedCategory(i), true
		}
	}
	return 0, false
}

// Category is either a fixed setup category or a free-text custom label.
type Category struct {
	fixed  FixedCategory
	custom string
	isCust bool
}

// Fixed wraps a fixed category.
func Fixed(f FixedCategory) Category {
	return Category{fixed: f}
}

// Custom wraps a user-supplied label.
func Custom(label string) Category {
	return Category{custom: label, isCust: true}
}

// IsCustom reports whether the category came from a user label.
func (c Category) IsCustom() bool {
	return c.isCust
}

// Label is the text persisted in the expenses table.
func (c Category) Label() string {
	if c.isCust {
		return c.custom
	}
	return c.fixed.String()
}

// RawAmount is an amount as the client typed it. JSON numbers and strings are
// both accepted and kept verbatim; coercion happens in ParseAmount.
type RawAmount string

func (r *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RawAmount(s)
	default:
		*r = RawAmount(data)
	}
	return nil
}

// Empty reports whether nothing was entered.
func (r RawAmount) Empty() bool {
	return strings.TrimSpace(string(r)) == ""
}

const (
	maxAmountInput    = 64
	maxAmountExponent = 32
	amountScale       = 2
)

// maxAmount is the exclusive magnitude bound for a stored amount: 22 integer
// digits.
var maxAmount = decimal.New(1, 22)

// ParseAmount coerces client input into a decimal rounded to cents. Input that
// is not a number, is longer than 64 characters, carries an exponent beyond
// ±32 or falls outside ±10^22 becomes zero rather than an error.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxAmountInput {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	// Checked before any arithmetic: rescaling a huge exponent allocates
	// 10^exp.
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero
	}
	d = d.Round(amountScale)
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero
	}
	return d
}

// ExpenseEntry is one (category, amount) pair as submitted by a client.
type ExpenseEntry struct {
	Category string    `json:"category"`
	Amount   RawAmount `json:"amount"`
}

// Valid reports whether the entry has both a category and an amount.
func (e ExpenseEntry) Valid() bool {
	return strings.TrimSpace(e.Category) != "" && !e.Amount.Empty()
}

// Expense is a filtered, coerced entry ready to persist or aggregate.
type Expense struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// NormalizeEntries drops entries missing a category or amount and coerces the
// rest, keeping their order.
func NormalizeEntries(entries []ExpenseEntry) []Expense {
	out := make([]Expense, 0, len(entries))
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		out = append(out, Expense{
			Category: strings.TrimSpace(e.Category),
			Amount:   ParseAmount(string(e.Amount)),
		})
	}
	return out
}

// SetupExpense is a category/value pair collected by the setup wizard.
type SetupExpense struct {
	Category Category
	Value    RawAmount
}

// CustomExpense is a user-added row on the setup expense step.
type CustomExpense struct {
	Label string    `json:"label"`
	Value RawAmount `json:"value"`
}

// MergeSetupExpenses combines the fixed categories, in display order, with the
// custom rows. A custom row whose label matches an earlier key replaces that
// key's value in place. Rows without a label or value are dropped.
func MergeSetupExpenses(fixed map[FixedCategory]RawAmount, custom []CustomExpense) []ExpenseEntry {
	merged := make([]SetupExpense, 0, len(fixedNames)+len(custom))
	index := make(map[string]int, len(fixedNames)+len(custom))

	for _, f := range FixedCategories() {
		index[f.String()] = len(merged)
		merged = append(merged, SetupExpense{Category: Fixed(f), Value: fixed[f]})
	}
	for _, c := range custom {
		label := strings.TrimSpace(c.Label)
		if label == "" || c.Value.Empty() {
			continue
		}
		if i, ok := index[label]; ok {
			merged[i].Value = c.Value
			continue
		}
		index[label] = len(merged)
		merged = append(merged, SetupExpense{Category: Custom(label), Value: c.Value})
	}

	entries := make([]ExpenseEntry, 0, len(merged))
	for _, m := range merged {
		entry := ExpenseEntry{Category: m.Category.Label(), Amount: m.Value}
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}
	return entries
}
