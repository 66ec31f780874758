package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
	"github.com/baharkarakas/autotopup-backend/internal/config"
	"github.com/baharkarakas/autotopup-backend/internal/events"
	"github.com/baharkarakas/autotopup-backend/internal/metrics"
	"github.com/baharkarakas/autotopup-backend/internal/models"
	repo "github.com/baharkarakas/autotopup-backend/internal/repository"
)

type TopUpService struct {
	store repo.Store
	locks *accountLocks
	emit  *events.Emitter
	log   *slog.Logger
	mode  string
}

type CreateRuleRequest struct {
	AccountID   string          `json:"account_id"`
	Threshold   decimal.Decimal `json:"threshold"`
	TopUpAmount decimal.Decimal `json:"topup_amount"`
}

func (r CreateRuleRequest) Validate() error {
	return validate.Collect(
		validate.Required("account_id", r.AccountID),
		validate.Positive("topup_amount", r.TopUpAmount),
		validate.MaxScale("threshold", r.Threshold, models.MoneyScale),
		validate.Below("threshold", r.Threshold, models.MaxMoney),
		validate.MaxScale("topup_amount", r.TopUpAmount, models.MoneyScale),
		validate.Below("topup_amount", r.TopUpAmount, models.MaxMoney),
	)
}

// TriggerResult is the outcome of a manual evaluation.
type TriggerResult struct {
	Triggered bool                `json:"triggered"`
	Message   string              `json:"message"`
	Events    []models.TopUpEvent `json:"events"`
}

func (s *TopUpService) CreateRule(ctx context.Context, req CreateRuleRequest) (models.TopUpRule, error) {
	if err := req.Validate(); err != nil {
		return models.TopUpRule{}, err
	}
	if _, err := s.store.Repos().Accounts.Get(ctx, req.AccountID); err != nil {
		return models.TopUpRule{}, err
	}

	var rule models.TopUpRule
	err := s.store.WithinTx(ctx, func(r repo.Repositories) error {
		var err error
		rule, err = r.TopUpRules.Create(ctx, models.TopUpRule{
			AccountID:   req.AccountID,
			Threshold:   req.Threshold,
			TopUpAmount: req.TopUpAmount,
			Enabled:     true,
		})
		if err != nil {
			return err
		}
		return audit(ctx, r, "topup_rule", rule.ID, "created", map[string]any{
			"account_id": rule.AccountID, "threshold": rule.Threshold.String(), "topup_amount": rule.TopUpAmount.String(),
		})
	})
	return rule, err
}

// SetEnabled is the only mutation a rule supports after creation.
func (s *TopUpService) SetEnabled(ctx context.Context, id string, enabled bool) (models.TopUpRule, error) {
	var rule models.TopUpRule
	err := s.store.WithinTx(ctx, func(r repo.Repositories) error {
		var err error
		if rule, err = r.TopUpRules.SetEnabled(ctx, id, enabled); err != nil {
			return err
		}
		action := "disabled"
		if enabled {
			action = "enabled"
		}
		return audit(ctx, r, "topup_rule", id, action, nil)
	})
	return rule, err
}

func (s *TopUpService) ListRules(ctx context.Context, accountID string) ([]models.TopUpRule, error) {
	return s.store.Repos().TopUpRules.List(ctx, accountID)
}

func (s *TopUpService) ListEvents(ctx context.Context, accountID string) ([]models.TopUpEvent, error) {
	return s.store.Repos().TopUpEvents.List(ctx, accountID)
}

// Trigger runs one evaluation pass on demand. In force mode every enabled rule fires once regardless of balance.
func (s *TopUpService) Trigger(ctx context.Context, accountID string) (TriggerResult, error) {
	if err := validate.Collect(validate.Required("account_id", accountID)); err != nil {
		return TriggerResult{}, err
	}
	if _, err := s.store.Repos().Accounts.Get(ctx, accountID); err != nil {
		return TriggerResult{}, err
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	acct, err := s.store.Repos().Accounts.Get(ctx, accountID)
	if err != nil {
		return TriggerResult{}, err
	}
	fired, _, err := s.evaluate(ctx, acct, s.mode == config.ManualModeForce)
	res := TriggerResult{Triggered: len(fired) > 0, Events: fired}
	if res.Events == nil {
		res.Events = []models.TopUpEvent{}
	}
	switch {
	case err != nil:
		return res, err
	case res.Triggered:
		res.Message = fmt.Sprintf("%d topup rule(s) fired", len(fired))
	default:
		res.Message = "no topup rule fired"
	}
	return res, nil
}

// evaluate fires the account's enabled rules in creation order against a balance
// that each firing updates. The caller must hold the account's lock; acct is the
// state observed under that lock. It returns the events recorded and the account
// after the last successful credit.
func (s *TopUpService) evaluate(ctx context.Context, acct models.Account, force bool) ([]models.TopUpEvent, models.Account, error) {
	rules, err := s.store.Repos().TopUpRules.List(ctx, acct.ID)
	if err != nil {
		return nil, acct, err
	}

	var fired []models.TopUpEvent
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if !force && !rule.Fires(acct.Balance) {
			continue
		}

		var (
			ev      models.TopUpEvent
			updated models.Account
		)
		err := s.store.WithinTx(ctx, func(r repo.Repositories) error {
			var err error
			updated, err = r.Accounts.AdjustBalance(ctx, acct.ID, rule.TopUpAmount, acct.Version)
			if err != nil {
				return err
			}
			ev, err = r.TopUpEvents.Create(ctx, models.TopUpEvent{
				AccountID:        acct.ID,
				RuleID:           rule.ID,
				Amount:           rule.TopUpAmount,
				TriggeredBalance: acct.Balance,
			})
			if err != nil {
				return err
			}
			return audit(ctx, r, "topup_event", ev.ID, "fired", map[string]any{
				"rule_id": rule.ID, "triggered_balance": acct.Balance.String(), "amount": rule.TopUpAmount.String(),
			})
		})
		if err != nil {
			s.log.Error("topup failed", "account_id", acct.ID, "rule_id", rule.ID, "err", err)
			return fired, acct, fmt.Errorf("topup rule %s: %w", rule.ID, err)
		}

		s.log.Info("topup fired", "account_id", acct.ID, "rule_id", rule.ID,
			"triggered_balance", acct.Balance.String(), "balance", updated.Balance.String())
		metrics.TopUpsTriggered.Inc()
		metrics.TopUpCredited.Add(rule.TopUpAmount.InexactFloat64())
		s.emit.Emit(events.New(events.TopUpTriggered, acct.ID, ev))

		fired = append(fired, ev)
		acct = updated
	}
	return fired, acct, nil
}
