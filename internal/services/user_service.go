package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
	"github.com/baharkarakas/autotopup-backend/internal/auth"
	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

type UserService struct {
	store  repo.Store
	tokens *auth.TokenManager
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

// starterAccounts are opened for every new user.
var starterAccounts = []struct {
	name    string
	balance decimal.Decimal
}{
	{"Current Account", decimal.NewFromInt(100)},
	{"Savings Account", decimal.NewFromInt(500)},
}

// Signup creates the user with its starter accounts in one unit of work and logs it in.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (models.User, TokenPair, error) {
	u := models.User{Name: strings.TrimSpace(req.Name), Email: req.Email}
	if err := u.Validate(); err != nil {
		return models.User{}, TokenPair{}, err
	}
	if err := validate.Collect(validate.MinLen("password", req.Password, 6)); err != nil {
		return models.User{}, TokenPair{}, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	u.PasswordHash = hash

	err = s.store.WithinTx(ctx, func(r repo.Repositories) error {
		var err error
		if u, err = r.Users.Create(ctx, u); err != nil {
			return err
		}
		for _, sa := range starterAccounts {
			if _, err := r.Accounts.Create(ctx, models.Account{Name: sa.name, OwnerID: u.ID, Balance: sa.balance}); err != nil {
				return err
			}
		}
		return audit(ctx, r, "user", u.ID, "signed_up", nil)
	})
	if err != nil {
		return models.User{}, TokenPair{}, err
	}

	pair, err := s.issue(u.ID, u.Role)
	return u, pair, err
}

func (s *UserService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.store.Repos().Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNotFound) {
		return TokenPair{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, err
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return TokenPair{}, models.ErrInvalidCredentials
	}
	return s.issue(u.ID, u.Role)
}

func (s *UserService) Refresh(_ context.Context, refreshToken string) (TokenPair, error) {
	claims, isRefresh, err := s.tokens.ParseAny(refreshToken)
	if err != nil || !isRefresh {
		return TokenPair{}, models.ErrInvalidCredentials
	}
	return s.issue(claims.UserID, claims.Role)
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	return s.store.Repos().Users.GetByID(ctx, id)
}

func (s *UserService) issue(userID, role string) (TokenPair, error) {
	access, refresh, exp, err := s.tokens.GeneratePair(userID, role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Truncate(time.Second).Seconds()),
	}, nil
}
