package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/f-lab-edu/retry-lee/internal/model"
)

// AccountRepo owns the 'accounts' table and the registration
// transaction that creates an account together with its role row.
type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

// NormalizeEmail lowercases and trims an email so the uniqueness check
// and every lookup see the same value.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ExistsByEmail reports whether an account with the (normalized) email
// already exists.
func (r *AccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM accounts WHERE email=? LIMIT 1",
		NormalizeEmail(email)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByEmail fetches an account by normalized email. Returns
// ErrNotFound when no account matches.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	var a model.Account
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at, updated_at FROM accounts WHERE email=? LIMIT 1",
		NormalizeEmail(email)).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	return a, err
}

// CreateWithRole inserts an account and exactly one role row (users or
// admins) in a single transaction. If either insert fails nothing
// survives. A duplicate email maps to ErrEmailExists.
func (r *AccountRepo) CreateWithRole(ctx context.Context, email, passwordHash, nickname string, isAdmin bool) error {
	email = NormalizeEmail(email)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO accounts (email, password_hash) VALUES (?,?)",
		email, passwordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	accountID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if isAdmin {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO admins (account_id, nickname) VALUES (?,?)",
			accountID, nickname)
	} else {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO users (account_id, nickname, grade) VALUES (?,?,?)",
			accountID, nickname, model.DefaultUserGrade)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// isDuplicateKey detects MySQL error 1062 (duplicate entry for a
// unique index).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
