package services

import (
	"log/slog"
	"time"

	"github.com/baharkarakas/autotopup-backend/internal/auth"
	"github.com/baharkarakas/autotopup-backend/internal/categorizer"
	"github.com/baharkarakas/autotopup-backend/internal/config"
	"github.com/baharkarakas/autotopup-backend/internal/events"
	"github.com/baharkarakas/autotopup-backend/internal/idempotency"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

type Deps struct {
	Store              repo.Store
	Categorizer        categorizer.Categorizer
	CategorizerTimeout time.Duration
	Idempotency        idempotency.Store
	Emitter            *events.Emitter // nil disables event publishing
	Tokens             *auth.TokenManager
	ManualMode         string
	Log                *slog.Logger
}

type Services struct {
	Accounts     *AccountService
	Transactions *TransactionService
	TopUps       *TopUpService
	Users        *UserService
}

// New wires the services around one shared set of account locks.
func New(d Deps) *Services {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Idempotency == nil {
		d.Idempotency = idempotency.NewMemory()
	}
	if d.CategorizerTimeout <= 0 {
		d.CategorizerTimeout = 2 * time.Second
	}
	if d.ManualMode == "" {
		d.ManualMode = config.ManualModeCheck
	}

	locks := newAccountLocks()
	topups := &TopUpService{store: d.Store, locks: locks, emit: d.Emitter, log: d.Log, mode: d.ManualMode}
	return &Services{
		Accounts: &AccountService{store: d.Store},
		Transactions: &TransactionService{
			store:      d.Store,
			locks:      locks,
			cat:        d.Categorizer,
			catTimeout: d.CategorizerTimeout,
			topups:     topups,
			idem:       d.Idempotency,
			emit:       d.Emitter,
			log:        d.Log,
		},
		TopUps: topups,
		Users:  &UserService{store: d.Store, tokens: d.Tokens},
	}
}
