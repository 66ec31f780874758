package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/models"
)

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type Accounts interface {
	Create(ctx context.Context, a models.Account) (models.Account, error)
	Get(ctx context.Context, id string) (models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Account, error)
	// AdjustBalance adds delta to the balance if the stored version still equals
	// expectedVersion, otherwise it fails with models.ErrConcurrencyConflict.
	AdjustBalance(ctx context.Context, id string, delta decimal.Decimal, expectedVersion int64) (models.Account, error)
}

type Transactions interface {
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	// List returns newest first; empty accountID lists every account.
	List(ctx context.Context, accountID string) ([]models.Transaction, error)
}

type TopUpRules interface {
	Create(ctx context.Context, r models.TopUpRule) (models.TopUpRule, error)
	Get(ctx context.Context, id string) (models.TopUpRule, error)
	// List returns rules in creation order; empty accountID lists every account.
	List(ctx context.Context, accountID string) ([]models.TopUpRule, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (models.TopUpRule, error)
}

type TopUpEvents interface {
	Create(ctx context.Context, e models.TopUpEvent) (models.TopUpEvent, error)
	List(ctx context.Context, accountID string) ([]models.TopUpEvent, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

type Repositories struct {
	Users        Users
	Accounts     Accounts
	Transactions Transactions
	TopUpRules   TopUpRules
	TopUpEvents  TopUpEvents
	AuditLogs    AuditLogs
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	Repos() Repositories
	// WithinTx runs fn against repositories bound to one unit of work. Nothing fn
	// wrote is kept when fn returns an error.
	WithinTx(ctx context.Context, fn func(r Repositories) error) error
	Close()
}
