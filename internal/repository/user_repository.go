package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/f-lab-edu/retry-lee/internal/model"
)

// UserRepo owns the 'users' role table, including the single
// refresh-token slot each user carries.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "u.id, u.account_id, u.nickname, u.grade, COALESCE(u.refresh_token_hash,''), u.created_at, u.updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.AccountID, &u.Nickname, &u.Grade, &u.RefreshTokenHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by its role-row id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.id=? LIMIT 1", id))
}

// GetByAccountID fetches a user by its account reference.
func (r *UserRepo) GetByAccountID(ctx context.Context, accountID uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u WHERE u.account_id=? LIMIT 1", accountID))
}

// GetByEmail fetches a user by joining through accounts on the
// normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN accounts a ON a.id=u.account_id WHERE a.email=? LIMIT 1",
		NormalizeEmail(email)))
}

// Email returns the account email backing the given user row.
func (r *UserRepo) Email(ctx context.Context, id uint64) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx,
		"SELECT a.email FROM users u JOIN accounts a ON a.id=u.account_id WHERE u.id=? LIMIT 1",
		id).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return email, err
}

// RotateRefreshTokenHash replaces the refresh-token slot only while it
// still holds the expected digest. The guard lives in the UPDATE itself
// so two rotations presenting the same stale digest cannot both commit.
// ErrRefreshMismatch means another rotation won; ErrNotFound means the
// row is gone.
func (r *UserRepo) RotateRefreshTokenHash(ctx context.Context, id uint64, expected, next string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=? AND COALESCE(refresh_token_hash,'')=?",
		next, id, expected)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return ErrRefreshMismatch
	}
	return nil
}

// SetRefreshTokenHash overwrites the user's refresh-token slot
// unconditionally. Sign-in uses this; rotation goes through
// RotateRefreshTokenHash.
func (r *UserRepo) SetRefreshTokenHash(ctx context.Context, id uint64, hash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		// MySQL reports 0 for a no-op update of the same value too, so
		// distinguish a missing row explicitly.
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
	}
	return err
}
