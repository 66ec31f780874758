// Package seed loads the demo data set into an empty store.
package seed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/auth"
	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password123"
)

// Demo creates the demo user, two accounts and a topup rule on the current account.
// It does nothing when the demo user already exists.
func Demo(ctx context.Context, store repo.Store, log *slog.Logger) error {
	_, err := store.Repos().Users.GetByEmail(ctx, DemoEmail)
	if err == nil {
		log.Info("demo data already present")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	return store.WithinTx(ctx, func(r repo.Repositories) error {
		u, err := r.Users.Create(ctx, models.User{Name: "Demo User", Email: DemoEmail, PasswordHash: hash, Role: "user"})
		if err != nil {
			return err
		}
		current, err := r.Accounts.Create(ctx, models.Account{Name: "Current Account", OwnerID: u.ID, Balance: decimal.RequireFromString("150.50")})
		if err != nil {
			return err
		}
		if _, err := r.Accounts.Create(ctx, models.Account{Name: "Savings Account", OwnerID: u.ID, Balance: decimal.RequireFromString("1250.00")}); err != nil {
			return err
		}
		rule, err := r.TopUpRules.Create(ctx, models.TopUpRule{
			AccountID:   current.ID,
			Threshold:   decimal.NewFromInt(50),
			TopUpAmount: decimal.NewFromInt(100),
			Enabled:     true,
		})
		if err != nil {
			return err
		}
		log.Info("demo data seeded", "user_id", u.ID, "account_id", current.ID, "rule_id", rule.ID)
		return nil
	})
}
