package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Categories with balance semantics. Any other string is accepted as a
// category; everything except "Income" (compared case-insensitively)
// counts against the balance.
const (
	CategoryIncome  = "Income"
	CategoryExpense = "Expense"
)

type Transaction struct {
	ID          uuid.UUID       `db:"id"`
	UserID      uuid.UUID       `db:"user_id"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	Date        time.Time       `db:"date"` // calendar date, time part is always midnight UTC
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
