package dto

import "github.com/shopspring/decimal"

// DateLayout is the wire format for transaction dates (calendar date only).
const DateLayout = "2006-01-02"

type TransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"` // YYYY-MM-DD
}

type TransactionResponse struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	CreatedAt   string          `json:"created_at"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type DeleteTransactionResponse struct {
	Message     string              `json:"message"`
	Transaction TransactionResponse `json:"transaction"`
}
