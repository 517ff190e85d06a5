package user

import (
	"context"
	"database/sql"
	"errors"

	"warehouse-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	FindByID(ctx context.Context, id uint) (*User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uint) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, role FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Username, &u.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to find user", zap.Uint("user_id", id), zap.Error(err))
		return nil, err
	}
	return &u, nil
}
