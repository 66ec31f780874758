package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money is stored with MoneyScale fractional digits and must stay below MaxMoney.
const MoneyScale = 2

var MaxMoney = decimal.New(1, 16)

type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	OwnerID   string          `json:"user_id"`
	Version   int64           `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
