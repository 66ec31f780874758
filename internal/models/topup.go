package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TopUpRule struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Threshold   decimal.Decimal `json:"threshold"`
	TopUpAmount decimal.Decimal `json:"topup_amount"`
	Enabled     bool            `json:"enabled"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Fires reports whether the rule triggers at the given balance.
func (r TopUpRule) Fires(balance decimal.Decimal) bool {
	return r.Enabled && balance.LessThan(r.Threshold)
}

type TopUpEvent struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	RuleID           string          `json:"rule_id"`
	Amount           decimal.Decimal `json:"amount"`
	TriggeredBalance decimal.Decimal `json:"triggered_balance"`
	Timestamp        time.Time       `json:"timestamp"`
}
