package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f-lab-edu/retry-lee/internal/apperr"
	"github.com/f-lab-edu/retry-lee/internal/model"
	"github.com/f-lab-edu/retry-lee/internal/utils"
)

func TestRegister_CreatesAccountWithRoleRow(t *testing.T) {
	auth, _, db := newTestAuth()
	ctx := context.Background()

	require.NoError(t, auth.Register(ctx, "a@x.com", "Secret1!", "nick", false))
	require.NoError(t, auth.Register(ctx, "boss@x.com", "Secret1!", "boss", true))

	assert.Len(t, db.accounts, 2)
	assert.Len(t, db.users, 1)
	assert.Len(t, db.admins, 1)

	a, ok := db.accountByEmail("a@x.com")
	require.True(t, ok)
	assert.NotEqual(t, "Secret1!", a.PasswordHash)
	assert.True(t, utils.VerifyPassword(a.PasswordHash, "Secret1!"))
}

func TestRegister_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	auth, _, db := newTestAuth()
	ctx := context.Background()

	require.NoError(t, auth.Register(ctx, "A@x.com", "Secret1!", "first", false))

	err := auth.Register(ctx, "a@X.COM", "Other2@", "second", true)
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	// The failed attempt must leave no rows behind.
	assert.Len(t, db.accounts, 1)
	assert.Len(t, db.users, 1)
	assert.Empty(t, db.admins)
}

func TestSignIn_UnknownEmailAndWrongPasswordShareOneError(t *testing.T) {
	auth, _, _ := newTestAuth()
	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, "a@x.com", "Secret1!", "nick", false))

	_, errUnknown := auth.SignIn(ctx, "ghost@x.com", "whatever")
	_, errWrongPw := auth.SignIn(ctx, "a@x.com", "not-the-password")

	assert.ErrorIs(t, errUnknown, apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, apperr.ErrInvalidCredentials)

	// Identical code and message: the response must not reveal whether
	// the email exists.
	eu, _ := apperr.As(errUnknown)
	ew, _ := apperr.As(errWrongPw)
	assert.Equal(t, eu.Code, ew.Code)
	assert.Equal(t, eu.Message, ew.Message)
}

func TestSignIn_MintsPairAndStoresRefreshDigest(t *testing.T) {
	auth, _, db := newTestAuth()
	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, "a@x.com", "Secret1!", "nick", false))

	pair, err := auth.SignIn(ctx, "a@x.com", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, pair.Role)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := auth.codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, utils.TokenAccess, claims.Kind)
	assert.Equal(t, model.RoleUser, claims.Role)

	u := db.users[claims.PrincipalID]
	assert.Equal(t, utils.HashRefreshRaw(pair.RefreshToken), u.RefreshTokenHash)
}

func TestSignIn_AdminRoleResolved(t *testing.T) {
	auth, _, db := newTestAuth()
	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, "boss@x.com", "Secret1!", "boss", true))

	pair, err := auth.SignIn(ctx, "boss@x.com", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, pair.Role)

	claims, err := auth.codec.Decode(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, utils.TokenRefresh, claims.Kind)
	assert.Equal(t, utils.HashRefreshRaw(pair.RefreshToken), db.admins[claims.PrincipalID].RefreshTokenHash)
}

func TestSignIn_AccountWithoutRoleRowIsInternalFault(t *testing.T) {
	auth, _, db := newTestAuth()
	ctx := context.Background()

	hash, err := utils.HashPassword("Secret1!", 4)
	require.NoError(t, err)
	db.addAccount("orphan@x.com", hash)

	_, err = auth.SignIn(ctx, "orphan@x.com", "Secret1!")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataIntegrity)
	// Internal faults never wear an auth code.
	_, isAppErr := apperr.As(err)
	assert.False(t, isAppErr)
}

func TestRefresh_RotationScenario(t *testing.T) {
	auth, _, _ := newTestAuth()
	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, "a@x.com", "Secret1!", "nick", false))

	signedIn, err := auth.SignIn(ctx, "a@x.com", "Secret1!")
	require.NoError(t, err)

	rotated, err := auth.Refresh(ctx, signedIn.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, signedIn.RefreshToken, rotated.RefreshToken)
	assert.NotEmpty(t, rotated.AccessToken)

	// The superseded token is dead even though its signature and expiry
	// are still fine.
	_, err = auth.Refresh(ctx, signedIn.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	// The fresh one works exactly once more.
	again, err := auth.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, rotated.RefreshToken, again.RefreshToken)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	auth, _, _ := newTestAuth()
	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, "a@x.com", "Secret1!", "nick", false))

	pair, err := auth.SignIn(ctx, "a@x.com", "Secret1!")
	require.NoError(t, err)

	_, err = auth.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestRefresh_RejectsGarbageAndForgedTokens(t *testing.T) {
	auth, _, _ := newTestAuth()
	ctx := context.Background()

	_, err := auth.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	forged := utils.NewTokenCodec("attacker-controlled-secret-000001", time.Minute, time.Hour)
	tok, err := forged.Issue(utils.TokenRefresh, model.RoleUser, 1, time.Now())
	require.NoError(t, err)
	_, err = auth.Refresh(ctx, tok)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestRefresh_OwnerRowGone(t *testing.T) {
	auth, _, db := newTestAuth()
	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, "a@x.com", "Secret1!", "nick", false))

	pair, err := auth.SignIn(ctx, "a@x.com", "Secret1!")
	require.NoError(t, err)

	// The role row disappears between issuance and refresh.
	for id := range db.users {
		delete(db.users, id)
	}
	_, err = auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrPrincipalNotFound)
}

func TestRefresh_NeverSignedInPrincipal(t *testing.T) {
	auth, _, db := newTestAuth()
	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, "a@x.com", "Secret1!", "nick", false))

	// A self-issued token for an existing principal whose slot is
	// empty: signature valid, but nothing stored to match.
	var userID uint64
	for id := range db.users {
		userID = id
	}
	tok, err := auth.codec.Issue(utils.TokenRefresh, model.RoleUser, userID, time.Now())
	require.NoError(t, err)

	_, err = auth.Refresh(ctx, tok)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestRefresh_CollidingIDsNeverCrossRoleTables(t *testing.T) {
	auth, resolver, db := newTestAuth()
	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, "user@x.com", "Secret1!", "user", false))
	require.NoError(t, auth.Register(ctx, "boss@x.com", "Secret1!", "boss", true))

	// Role-row ids collide across the two tables by construction.
	require.Contains(t, db.users, uint64(1))
	require.Contains(t, db.admins, uint64(1))

	userPair, err := auth.SignIn(ctx, "user@x.com", "Secret1!")
	require.NoError(t, err)
	adminBefore := db.admins[1].RefreshTokenHash

	_, err = auth.Refresh(ctx, userPair.RefreshToken)
	require.NoError(t, err)

	// Rotating the user's token must not have touched the admin row.
	assert.Equal(t, adminBefore, db.admins[1].RefreshTokenHash)

	p, err := resolver.ResolveByRoleAndID(ctx, model.RoleUser, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, p.Role)
	assert.Equal(t, "user@x.com", p.Email)

	p, err = resolver.ResolveByRoleAndID(ctx, model.RoleAdmin, 1)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, p.Role)
	assert.Equal(t, "boss@x.com", p.Email)
}

func TestRefresh_ConcurrentUseOfSameToken(t *testing.T) {
	auth, _, _ := newTestAuth()
	ctx := context.Background()
	require.NoError(t, auth.Register(ctx, "a@x.com", "Secret1!", "nick", false))

	pair, err := auth.SignIn(ctx, "a@x.com", "Secret1!")
	require.NoError(t, err)

	// Two sequential uses of the same stale token: whichever write
	// lands first wins, the other observes a mismatched slot.
	_, err1 := auth.Refresh(ctx, pair.RefreshToken)
	_, err2 := auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err1)
	assert.ErrorIs(t, err2, apperr.ErrInvalidToken)
}

// rendezvousUsers delays GetByID until both refreshers have read the
// slot, forcing the widest possible window between read and write.
type rendezvousUsers struct {
	UserStore
	barrier *sync.WaitGroup
}

func (r *rendezvousUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := r.UserStore.GetByID(ctx, id)
	r.barrier.Done()
	r.barrier.Wait()
	return u, err
}

func TestRefresh_InterleavedReadsStillRotateOnce(t *testing.T) {
	db := newFakeDB()
	var barrier sync.WaitGroup
	users := &rendezvousUsers{UserStore: &fakeUsers{db}, barrier: &barrier}
	resolver := NewResolver(users, &fakeAdmins{db})
	codec := utils.NewTokenCodec("unit-test-signing-secret-000000001", 30*time.Minute, 14*24*time.Hour)
	auth := NewAuth(&fakeAccounts{db}, resolver, codec, 4)
	ctx := context.Background()

	// Sign-in resolves by email and never reads the slot by id, so the
	// barrier only engages once both refreshes are in flight.
	require.NoError(t, auth.Register(ctx, "a@x.com", "Secret1!", "nick", false))
	pair, err := auth.SignIn(ctx, "a@x.com", "Secret1!")
	require.NoError(t, err)

	// Both goroutines read the same stored digest and both pass the
	// in-process compare; only one compare-and-overwrite may commit.
	barrier.Add(2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = auth.Refresh(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	var won, replayed int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, apperr.ErrInvalidToken):
			replayed++
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}
	assert.Equal(t, 1, won, "exactly one refresh may succeed")
	assert.Equal(t, 1, replayed, "the loser must fail its exact-match check")
}

func TestRegister_RaceLostMapsToDuplicateEmail(t *testing.T) {
	auth, _, db := newTestAuth()
	ctx := context.Background()

	// ExistsByEmail said no, but the insert still conflicts.
	hash, err := utils.HashPassword("pw", 4)
	require.NoError(t, err)
	a := db.addAccount("racer@x.com", hash)
	db.addUser(a.ID, "racer")

	err = auth.Register(ctx, "racer@x.com", "pw2", "late", false)
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)
}

func TestErrorsAreStable(t *testing.T) {
	// Handlers switch on these codes; keep them pinned.
	assert.Equal(t, "BE1001", apperr.ErrDuplicateEmail.Code)
	assert.Equal(t, "BE1003", apperr.ErrInvalidCredentials.Code)
	assert.Equal(t, "BE1004", apperr.ErrPrincipalNotFound.Code)
	assert.Equal(t, "BE1005", apperr.ErrInvalidToken.Code)
	assert.True(t, errors.Is(apperr.ErrInvalidToken, apperr.ErrInvalidToken))
}
