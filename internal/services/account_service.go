package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

type AccountService struct {
	store repo.Store
}

type CreateAccountRequest struct {
	Name    string          `json:"name"`
	OwnerID string          `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

func (r CreateAccountRequest) Validate() error {
	return validate.Collect(
		validate.Required("name", r.Name),
		validate.NonNegative("balance", r.Balance),
		validate.MaxScale("balance", r.Balance, models.MoneyScale),
		validate.Below("balance", r.Balance, models.MaxMoney),
	)
}

// Create opens an account with its initial balance. Later balance changes go through transactions.
func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest) (models.Account, error) {
	if err := req.Validate(); err != nil {
		return models.Account{}, err
	}
	if req.OwnerID != "" {
		if _, err := s.store.Repos().Users.GetByID(ctx, req.OwnerID); err != nil {
			return models.Account{}, err
		}
	}
	var a models.Account
	err := s.store.WithinTx(ctx, func(r repo.Repositories) error {
		var err error
		if a, err = r.Accounts.Create(ctx, models.Account{Name: req.Name, OwnerID: req.OwnerID, Balance: req.Balance}); err != nil {
			return err
		}
		return audit(ctx, r, "account", a.ID, "created", map[string]any{"balance": a.Balance.String()})
	})
	return a, err
}

func (s *AccountService) Get(ctx context.Context, id string) (models.Account, error) {
	return s.store.Repos().Accounts.Get(ctx, id)
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	return s.store.Repos().Accounts.List(ctx)
}

func (s *AccountService) ListByOwner(ctx context.Context, ownerID string) ([]models.Account, error) {
	return s.store.Repos().Accounts.ListByOwner(ctx, ownerID)
}
