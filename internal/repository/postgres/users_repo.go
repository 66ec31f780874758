package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/baharkarakas/autotopup-backend/internal/models"
)

type usersRepo struct{ q querier }

const userColumns = `id, name, email, password_hash, role, created_at`

func (r *usersRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := r.q.QueryRow(ctx,
		`INSERT INTO users(id, name, email, password_hash, role)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return models.User{}, mapErr("users.create", "user", u.Email, err)
	}
	return u, nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	if err := lookupID("user", id); err != nil {
		return models.User{}, err
	}
	var u models.User
	err := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, mapErr("users.get", "user", id, err)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, mapErr("users.get_by_email", "user", email, err)
}
