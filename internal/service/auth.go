package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/f-lab-edu/retry-lee/internal/apperr"
	"github.com/f-lab-edu/retry-lee/internal/model"
	"github.com/f-lab-edu/retry-lee/internal/repository"
	"github.com/f-lab-edu/retry-lee/internal/utils"
)

// AccountStore is the slice of AccountRepo the auth service needs.
type AccountStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	CreateWithRole(ctx context.Context, email, passwordHash, nickname string, isAdmin bool) error
}

// TokenPair is what sign-in and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Role         model.RoleKind
}

// Auth implements registration, sign-in and refresh rotation. Session
// state per principal is exactly one stored refresh digest; every
// successful sign-in or refresh supersedes it.
type Auth struct {
	accounts   AccountStore
	resolver   *Resolver
	codec      *utils.TokenCodec
	bcryptCost int
	now        func() time.Time
}

func NewAuth(accounts AccountStore, resolver *Resolver, codec *utils.TokenCodec, bcryptCost int) *Auth {
	return &Auth{
		accounts:   accounts,
		resolver:   resolver,
		codec:      codec,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates an account plus exactly one role row. The email
// check is case-insensitive; a taken email fails with
// apperr.ErrDuplicateEmail and leaves no partial rows behind (the
// repository runs both inserts in one transaction).
func (s *Auth) Register(ctx context.Context, email, password, nickname string, isAdmin bool) error {
	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return apperr.ErrDuplicateEmail
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.CreateWithRole(ctx, email, hash, nickname, isAdmin); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Lost the race against a concurrent registration.
			return apperr.ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// SignIn verifies the credential pair, resolves which role table the
// principal lives in and mints a fresh token pair. An unknown email
// and a wrong password return the identical apperr.ErrInvalidCredentials
// so the response never reveals which one it was.
func (s *Auth) SignIn(ctx context.Context, email, password string) (TokenPair, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, apperr.ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("load account: %w", err)
	}
	if !utils.VerifyPassword(account.PasswordHash, password) {
		return TokenPair{}, apperr.ErrInvalidCredentials
	}

	p, err := s.resolver.ResolveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Account without a role row breaks the registration
			// invariant; surface it as an internal fault, not an auth code.
			return TokenPair{}, fmt.Errorf("%w: account %d has no role row", ErrDataIntegrity, account.ID)
		}
		return TokenPair{}, err
	}

	return s.issuePair(ctx, p.Role, p.ID)
}

// Refresh rotates a refresh token. Order matters: first the signature
// and expiry check, then the claim extraction, then the exact-match
// comparison against the stored digest. Signature validity only proves
// the token came from this service; only the stored-digest match proves
// it is the most recent one, which is what makes rotation stick.
func (s *Auth) Refresh(ctx context.Context, oldRefreshToken string) (TokenPair, error) {
	claims, err := s.codec.Decode(oldRefreshToken)
	if err != nil {
		return TokenPair{}, apperr.ErrInvalidToken
	}
	if claims.Kind != utils.TokenRefresh {
		return TokenPair{}, apperr.ErrInvalidToken
	}

	stored, err := s.resolver.CurrentRefreshHash(ctx, claims.Role, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, apperr.ErrPrincipalNotFound
		}
		return TokenPair{}, fmt.Errorf("load refresh slot: %w", err)
	}
	presented := utils.HashRefreshRaw(oldRefreshToken)
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		// Already rotated away (or never issued): a replay, not a
		// missing principal.
		return TokenPair{}, apperr.ErrInvalidToken
	}

	access, refresh, err := s.mintPair(claims.Role, claims.PrincipalID)
	if err != nil {
		return TokenPair{}, err
	}
	// The overwrite is conditional on the slot still holding the
	// presented digest. The in-process compare above is only a fast
	// path; this is where a lost race actually fails.
	err = s.resolver.RotateRefreshHash(ctx, claims.Role, claims.PrincipalID, presented, utils.HashRefreshRaw(refresh))
	switch {
	case err == nil:
		return TokenPair{AccessToken: access, RefreshToken: refresh, Role: claims.Role}, nil
	case errors.Is(err, repository.ErrRefreshMismatch):
		return TokenPair{}, apperr.ErrInvalidToken
	case errors.Is(err, repository.ErrNotFound):
		return TokenPair{}, apperr.ErrPrincipalNotFound
	default:
		return TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
}

// mintPair signs a fresh access+refresh pair. Storage is the caller's
// concern: sign-in overwrites the slot, refresh compare-and-overwrites.
func (s *Auth) mintPair(role model.RoleKind, id uint64) (access, refresh string, err error) {
	now := s.now()
	access, err = s.codec.Issue(utils.TokenAccess, role, id, now)
	if err != nil {
		return "", "", fmt.Errorf("issue access token: %w", err)
	}
	refresh, err = s.codec.Issue(utils.TokenRefresh, role, id, now)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh token: %w", err)
	}
	return access, refresh, nil
}

// issuePair mints a pair and overwrites the refresh slot. The overwrite
// is the last storage mutation before returning; a caller never
// receives a refresh token the store does not know.
func (s *Auth) issuePair(ctx context.Context, role model.RoleKind, id uint64) (TokenPair, error) {
	access, refresh, err := s.mintPair(role, id)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.resolver.StoreRefreshHash(ctx, role, id, utils.HashRefreshRaw(refresh)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, apperr.ErrPrincipalNotFound
		}
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, Role: role}, nil
}
