package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/f-lab-edu/retry-lee/internal/model"
)

// AdminRepo owns the 'admins' role table. It mirrors UserRepo; the two
// tables are disjoint and an account appears in exactly one of them.
type AdminRepo struct {
	db *sql.DB
}

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{db: db} }

const adminColumns = "m.id, m.account_id, m.nickname, COALESCE(m.refresh_token_hash,''), m.created_at, m.updated_at"

func scanAdmin(row *sql.Row) (model.Admin, error) {
	var a model.Admin
	err := row.Scan(&a.ID, &a.AccountID, &a.Nickname, &a.RefreshTokenHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Admin{}, ErrNotFound
	}
	return a, err
}

// GetByID fetches an admin by its role-row id.
func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (model.Admin, error) {
	return scanAdmin(r.db.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins m WHERE m.id=? LIMIT 1", id))
}

// GetByAccountID fetches an admin by its account reference.
func (r *AdminRepo) GetByAccountID(ctx context.Context, accountID uint64) (model.Admin, error) {
	return scanAdmin(r.db.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins m WHERE m.account_id=? LIMIT 1", accountID))
}

// GetByEmail fetches an admin by joining through accounts on the
// normalized email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	return scanAdmin(r.db.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins m JOIN accounts a ON a.id=m.account_id WHERE a.email=? LIMIT 1",
		NormalizeEmail(email)))
}

// Email returns the account email backing the given admin row.
func (r *AdminRepo) Email(ctx context.Context, id uint64) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx,
		"SELECT a.email FROM admins m JOIN accounts a ON a.id=m.account_id WHERE m.id=? LIMIT 1",
		id).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return email, err
}

// RotateRefreshTokenHash replaces the refresh-token slot only while it
// still holds the expected digest. Same compare-and-overwrite semantics
// as UserRepo.RotateRefreshTokenHash.
func (r *AdminRepo) RotateRefreshTokenHash(ctx context.Context, id uint64, expected, next string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE admins SET refresh_token_hash=? WHERE id=? AND COALESCE(refresh_token_hash,'')=?",
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

// SetRefreshTokenHash overwrites the admin's refresh-token slot
// unconditionally.
func (r *AdminRepo) SetRefreshTokenHash(ctx context.Context, id uint64, hash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE admins SET refresh_token_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
	}
	return err
}
