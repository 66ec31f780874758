package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxnDebit  TransactionType = "debit"
	TxnCredit TransactionType = "credit"
)

func (t TransactionType) Valid() bool { return t == TxnDebit || t == TxnCredit }

// Delta is the signed balance effect of a transaction of this type.
func (t TransactionType) Delta(amount decimal.Decimal) decimal.Decimal {
	if t == TxnDebit {
		return amount.Neg()
	}
	return amount
}

const CategoryOther = "Other"

type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"transaction_type"`
	Timestamp   time.Time       `json:"timestamp"`
}
