package repository

import (
	"context"

	"pmboard/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// CreateUser inserts a new user. A taken email yields ErrDuplicate.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (email, name, role, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, u.Email, u.Name, u.Role, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return mapError(err)
	}
	r.logger.Info("User created", zap.Int("user_id", u.ID), zap.String("role", u.Role))
	return nil
}

// FindByEmail returns user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, email, name, role, password_hash, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	query := `
        SELECT id, email, name, role, password_hash, created_at
        FROM users
        WHERE id = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}
