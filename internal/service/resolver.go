// Package service holds the business logic sitting between HTTP
// handlers and the repositories: identity resolution, the
// sign-in/refresh state machine and accommodation registration.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/f-lab-edu/retry-lee/internal/model"
	"github.com/f-lab-edu/retry-lee/internal/repository"
)

// ErrDataIntegrity signals a state the registration invariant forbids,
// e.g. one account present in both role tables. It is an internal
// fault, never mapped onto a client-facing auth code.
var ErrDataIntegrity = errors.New("identity data integrity violation")

// UserStore is the slice of UserRepo the resolver needs.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Email(ctx context.Context, id uint64) (string, error)
	SetRefreshTokenHash(ctx context.Context, id uint64, hash string) error
	RotateRefreshTokenHash(ctx context.Context, id uint64, expected, next string) error
}

// AdminStore is the slice of AdminRepo the resolver needs.
type AdminStore interface {
	GetByID(ctx context.Context, id uint64) (model.Admin, error)
	GetByEmail(ctx context.Context, email string) (model.Admin, error)
	Email(ctx context.Context, id uint64) (string, error)
	SetRefreshTokenHash(ctx context.Context, id uint64, hash string) error
	RotateRefreshTokenHash(ctx context.Context, id uint64, expected, next string) error
}

// Resolver answers "which table does this principal live in" for the
// two disjoint role tables, and owns the refresh-token slot primitives.
type Resolver struct {
	users  UserStore
	admins AdminStore
}

func NewResolver(users UserStore, admins AdminStore) *Resolver {
	return &Resolver{users: users, admins: admins}
}

// ResolveByEmail determines whether the email belongs to a user or an
// admin and returns a uniform principal. Both tables are always
// checked: a hit in both violates the one-role-per-account invariant
// and fails closed with ErrDataIntegrity instead of silently picking
// one. No match returns repository.ErrNotFound.
func (r *Resolver) ResolveByEmail(ctx context.Context, email string) (model.Principal, error) {
	u, uerr := r.users.GetByEmail(ctx, email)
	if uerr != nil && !errors.Is(uerr, repository.ErrNotFound) {
		return model.Principal{}, uerr
	}
	a, aerr := r.admins.GetByEmail(ctx, email)
	if aerr != nil && !errors.Is(aerr, repository.ErrNotFound) {
		return model.Principal{}, aerr
	}

	switch {
	case uerr == nil && aerr == nil:
		return model.Principal{}, fmt.Errorf("%w: email in both role tables", ErrDataIntegrity)
	case uerr == nil:
		return model.Principal{
			Role: model.RoleUser, ID: u.ID, AccountID: u.AccountID,
			Email: repository.NormalizeEmail(email), Nickname: u.Nickname,
		}, nil
	case aerr == nil:
		return model.Principal{
			Role: model.RoleAdmin, ID: a.ID, AccountID: a.AccountID,
			Email: repository.NormalizeEmail(email), Nickname: a.Nickname,
		}, nil
	default:
		return model.Principal{}, repository.ErrNotFound
	}
}

// ResolveByRoleAndID is the hot-path lookup behind every authenticated
// request: a direct single-table fetch keyed by the token's claims.
func (r *Resolver) ResolveByRoleAndID(ctx context.Context, role model.RoleKind, id uint64) (model.Principal, error) {
	switch role {
	case model.RoleUser:
		u, err := r.users.GetByID(ctx, id)
		if err != nil {
			return model.Principal{}, err
		}
		email, err := r.users.Email(ctx, id)
		if err != nil {
			return model.Principal{}, err
		}
		return model.Principal{Role: model.RoleUser, ID: u.ID, AccountID: u.AccountID, Email: email, Nickname: u.Nickname}, nil
	case model.RoleAdmin:
		a, err := r.admins.GetByID(ctx, id)
		if err != nil {
			return model.Principal{}, err
		}
		email, err := r.admins.Email(ctx, id)
		if err != nil {
			return model.Principal{}, err
		}
		return model.Principal{Role: model.RoleAdmin, ID: a.ID, AccountID: a.AccountID, Email: email, Nickname: a.Nickname}, nil
	default:
		return model.Principal{}, fmt.Errorf("%w: unknown role %q", repository.ErrNotFound, role)
	}
}

// CurrentRefreshHash returns the digest currently stored in the
// principal's refresh slot, "" when none was ever issued.
func (r *Resolver) CurrentRefreshHash(ctx context.Context, role model.RoleKind, id uint64) (string, error) {
	switch role {
	case model.RoleUser:
		u, err := r.users.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return u.RefreshTokenHash, nil
	case model.RoleAdmin:
		a, err := r.admins.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return a.RefreshTokenHash, nil
	default:
		return "", repository.ErrNotFound
	}
}

// StoreRefreshHash overwrites the refresh slot unconditionally. Sign-in
// uses this; whatever digest was there before is superseded.
func (r *Resolver) StoreRefreshHash(ctx context.Context, role model.RoleKind, id uint64, hash string) error {
	switch role {
	case model.RoleUser:
		return r.users.SetRefreshTokenHash(ctx, id, hash)
	case model.RoleAdmin:
		return r.admins.SetRefreshTokenHash(ctx, id, hash)
	default:
		return repository.ErrNotFound
	}
}

// RotateRefreshHash is the compare-and-overwrite behind refresh
// rotation: the slot is replaced only while it still holds expected, so
// of two concurrent rotations presenting the same digest exactly one
// commits and the other sees repository.ErrRefreshMismatch.
func (r *Resolver) RotateRefreshHash(ctx context.Context, role model.RoleKind, id uint64, expected, next string) error {
	switch role {
	case model.RoleUser:
		return r.users.RotateRefreshTokenHash(ctx, id, expected, next)
	case model.RoleAdmin:
		return r.admins.RotateRefreshTokenHash(ctx, id, expected, next)
	default:
		return repository.ErrNotFound
	}
}
