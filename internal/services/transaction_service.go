package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
	"github.com/baharkarakas/autotopup-backend/internal/categorizer"
	"github.com/baharkarakas/autotopup-backend/internal/events"
	"github.com/baharkarakas/autotopup-backend/internal/idempotency"
	"github.com/baharkarakas/autotopup-backend/internal/metrics"
	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

type TransactionService struct {
	store      repo.Store
	locks      *accountLocks
	cat        categorizer.Categorizer
	catTimeout time.Duration
	topups     *TopUpService
	idem       idempotency.Store
	emit       *events.Emitter
	log        *slog.Logger
}

type SubmitRequest struct {
	AccountID      string                 `json:"account_id"`
	Amount         decimal.Decimal        `json:"amount"`
	Merchant       string                 `json:"merchant"`
	Description    string                 `json:"description"`
	Type           models.TransactionType `json:"transaction_type"`
	IdempotencyKey string                 `json:"-"`
}

func (r SubmitRequest) Validate() error {
	return validate.Collect(
		validate.Required("account_id", r.AccountID),
		validate.Positive("amount", r.Amount),
		validate.MaxScale("amount", r.Amount, models.MoneyScale),
		validate.Below("amount", r.Amount, models.MaxMoney),
		validate.Required("merchant", r.Merchant),
		validate.OneOf("transaction_type", string(r.Type), string(models.TxnDebit), string(models.TxnCredit)),
	)
}

// Submit records one transaction and runs the topup evaluation it triggers.
//
//  1. validate (no side effects on failure)
//  2. look up the account
//  3. under the account lock, in one unit of work: apply the delta, categorize, record
//  4. still under the lock, evaluate topup rules against the new balance
//  5. return the recorded transaction
func (s *TransactionService) Submit(ctx context.Context, req SubmitRequest) (models.Transaction, error) {
	// 1) validate
	if err := req.Validate(); err != nil {
		metrics.TransactionsFailed.Inc()
		return models.Transaction{}, err
	}

	// 2) account
	if _, err := s.store.Repos().Accounts.Get(ctx, req.AccountID); err != nil {
		metrics.TransactionsFailed.Inc()
		return models.Transaction{}, err
	}

	unlock := s.locks.lock(req.AccountID)
	defer unlock()

	if req.IdempotencyKey != "" {
		txID, found, err := s.idem.Lookup(ctx, req.AccountID, req.IdempotencyKey)
		if err != nil {
			s.log.Warn("idempotency lookup failed", "account_id", req.AccountID, "err", err)
		} else if found {
			return s.store.Repos().Transactions.GetByID(ctx, txID)
		}
	}

	// 3) delta + category + record
	var (
		tx       models.Transaction
		acct     models.Account
		fellBack bool
	)
	err := s.store.WithinTx(ctx, func(r repo.Repositories) error {
		cur, err := r.Accounts.Get(ctx, req.AccountID)
		if err != nil {
			return err
		}
		acct, err = r.Accounts.AdjustBalance(ctx, cur.ID, req.Type.Delta(req.Amount), cur.Version)
		if err != nil {
			return err
		}

		var category string
		category, fellBack = s.categorize(ctx, req)

		tx, err = r.Transactions.Create(ctx, models.Transaction{
			AccountID:   req.AccountID,
			Amount:      req.Amount,
			Merchant:    req.Merchant,
			Description: req.Description,
			Category:    category,
			Type:        req.Type,
		})
		if err != nil {
			return err
		}
		return audit(ctx, r, "transaction", tx.ID, "created", map[string]any{
			"account_id": tx.AccountID, "type": string(tx.Type), "amount": tx.Amount.String(), "category": tx.Category,
		})
	})
	if err != nil {
		metrics.TransactionsFailed.Inc()
		if errors.Is(err, models.ErrConcurrencyConflict) {
			s.log.Error("balance version moved inside account scope", "account_id", req.AccountID, "err", err)
		} else {
			s.log.Error("transaction not committed", "account_id", req.AccountID, "err", err)
		}
		return models.Transaction{}, err
	}

	if req.IdempotencyKey != "" {
		if err := s.idem.Remember(ctx, req.AccountID, req.IdempotencyKey, tx.ID); err != nil {
			s.log.Warn("idempotency remember failed", "account_id", req.AccountID, "err", err)
		}
	}
	metrics.TransactionsTotal.WithLabelValues(string(tx.Type), tx.Category).Inc()
	s.log.Info("transaction recorded", "id", tx.ID, "account_id", tx.AccountID,
		"type", tx.Type, "amount", tx.Amount.String(), "category", tx.Category, "balance", acct.Balance.String())
	if fellBack {
		s.emit.Emit(events.New(events.CategorizerFallback, tx.AccountID, map[string]string{"transaction_id": tx.ID}))
	}
	s.emit.Emit(events.New(events.TransactionCreated, tx.AccountID, tx))

	// 4) topups; the transaction is already committed, so a failed firing is logged, not returned
	if _, _, err := s.topups.evaluate(ctx, acct, false); err != nil {
		s.log.Error("topup evaluation failed", "account_id", acct.ID, "transaction_id", tx.ID, "err", err)
	}

	// 5)
	return tx, nil
}

// categorize asks the classifier once within the configured timeout and falls back to "Other".
func (s *TransactionService) categorize(ctx context.Context, req SubmitRequest) (category string, fellBack bool) {
	ctx, cancel := context.WithTimeout(ctx, s.catTimeout)
	defer cancel()

	start := time.Now()
	category, err := s.cat.Categorize(ctx, categorizer.Input{
		Merchant:    req.Merchant,
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
	})
	metrics.CategorizerLatency.Observe(time.Since(start).Seconds())

	if err != nil || category == "" {
		metrics.CategorizerRequests.WithLabelValues("fallback").Inc()
		s.log.Warn("categorizer unavailable, using fallback", "account_id", req.AccountID, "merchant", req.Merchant, "err", err)
		return models.CategoryOther, true
	}
	metrics.CategorizerRequests.WithLabelValues("ok").Inc()
	return category, false
}

func (s *TransactionService) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	return s.store.Repos().Transactions.GetByID(ctx, id)
}

// List returns newest first; an empty accountID lists everything.
func (s *TransactionService) List(ctx context.Context, accountID string) ([]models.Transaction, error) {
	return s.store.Repos().Transactions.List(ctx, accountID)
}
