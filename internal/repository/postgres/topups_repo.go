package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/baharkarakas/autotopup-backend/internal/models"
)

type rulesRepo struct{ q querier }

const ruleColumns = `id, account_id, threshold, topup_amount, enabled, created_at`

func scanRule(row pgx.Row) (models.TopUpRule, error) {
	var r models.TopUpRule
	err := row.Scan(&r.ID, &r.AccountID, &r.Threshold, &r.TopUpAmount, &r.Enabled, &r.CreatedAt)
	return r, err
}

func (r *rulesRepo) Create(ctx context.Context, rule models.TopUpRule) (models.TopUpRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	out, err := scanRule(r.q.QueryRow(ctx,
		`INSERT INTO topup_rules(id, account_id, threshold, topup_amount, enabled)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING `+ruleColumns,
		rule.ID, rule.AccountID, rule.Threshold, rule.TopUpAmount, rule.Enabled,
	))
	if err != nil {
		return models.TopUpRule{}, mapErr("topup_rules.create", "topup rule", rule.ID, err)
	}
	return out, nil
}

func (r *rulesRepo) Get(ctx context.Context, id string) (models.TopUpRule, error) {
	if err := lookupID("topup rule", id); err != nil {
		return models.TopUpRule{}, err
	}
	rule, err := scanRule(r.q.QueryRow(ctx, `SELECT `+ruleColumns+` FROM topup_rules WHERE id=$1`, id))
	return rule, mapErr("topup_rules.get", "topup rule", id, err)
}

// List orders by the insert sequence so firing order matches creation order.
func (r *rulesRepo) List(ctx context.Context, accountID string) ([]models.TopUpRule, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+ruleColumns+`
		   FROM topup_rules
		  WHERE $1 = '' OR account_id::text = $1
		  ORDER BY seq`,
		accountID,
	)
	if err != nil {
		return nil, models.NewStorageError("topup_rules.list", err)
	}
	defer rows.Close()

	var out []models.TopUpRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, models.NewStorageError("topup_rules.list", err)
		}
		out = append(out, rule)
	}
	return out, models.NewStorageError("topup_rules.list", rows.Err())
}

func (r *rulesRepo) SetEnabled(ctx context.Context, id string, enabled bool) (models.TopUpRule, error) {
	if err := lookupID("topup rule", id); err != nil {
		return models.TopUpRule{}, err
	}
	rule, err := scanRule(r.q.QueryRow(ctx,
		`UPDATE topup_rules SET enabled=$2 WHERE id=$1 RETURNING `+ruleColumns, id, enabled))
	return rule, mapErr("topup_rules.set_enabled", "topup rule", id, err)
}

type eventsRepo struct{ q querier }

const eventColumns = `id, account_id, rule_id, amount, triggered_balance, created_at`

func (r *eventsRepo) Create(ctx context.Context, e models.TopUpEvent) (models.TopUpEvent, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.q.QueryRow(ctx,
		`INSERT INTO topup_events(id, account_id, rule_id, amount, triggered_balance)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING `+eventColumns,
		e.ID, e.AccountID, e.RuleID, e.Amount, e.TriggeredBalance,
	).Scan(&e.ID, &e.AccountID, &e.RuleID, &e.Amount, &e.TriggeredBalance, &e.Timestamp)
	if err != nil {
		return models.TopUpEvent{}, mapErr("topup_events.create", "topup event", e.ID, err)
	}
	return e, nil
}

func (r *eventsRepo) List(ctx context.Context, accountID string) ([]models.TopUpEvent, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+eventColumns+`
		   FROM topup_events
		  WHERE $1 = '' OR account_id::text = $1
		  ORDER BY created_at DESC, seq DESC`,
		accountID,
	)
	if err != nil {
		return nil, models.NewStorageError("topup_events.list", err)
	}
	defer rows.Close()

	var out []models.TopUpEvent
	for rows.Next() {
		var e models.TopUpEvent
		if err := rows.Scan(&e.ID, &e.AccountID, &e.RuleID, &e.Amount, &e.TriggeredBalance, &e.Timestamp); err != nil {
			return nil, models.NewStorageError("topup_events.list", err)
		}
		out = append(out, e)
	}
	return out, models.NewStorageError("topup_events.list", rows.Err())
}
