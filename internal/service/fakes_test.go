package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/f-lab-edu/retry-lee/internal/model"
	"github.com/f-lab-edu/retry-lee/internal/repository"
	"github.com/f-lab-edu/retry-lee/internal/utils"
)

// fakeDB is an in-memory stand-in for the three identity tables. The
// adapters below expose the same interfaces the real repositories do
// and take the mutex, so concurrent service calls are safe; the helper
// methods and direct map access in tests are single-goroutine only.
type fakeDB struct {
	mu       sync.Mutex
	accounts map[uint64]model.Account
	users    map[uint64]model.User
	admins   map[uint64]model.Admin

	nextAccountID uint64
	nextUserID    uint64
	nextAdminID   uint64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		accounts: map[uint64]model.Account{},
		users:    map[uint64]model.User{},
		admins:   map[uint64]model.Admin{},
	}
}

func (d *fakeDB) accountByEmail(email string) (model.Account, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range d.accounts {
		if a.Email == email {
			return a, true
		}
	}
	return model.Account{}, false
}

func (d *fakeDB) addAccount(email, passwordHash string) model.Account {
	d.nextAccountID++
	a := model.Account{ID: d.nextAccountID, Email: strings.ToLower(strings.TrimSpace(email)), PasswordHash: passwordHash}
	d.accounts[a.ID] = a
	return a
}

func (d *fakeDB) addUser(accountID uint64, nickname string) model.User {
	d.nextUserID++
	u := model.User{ID: d.nextUserID, AccountID: accountID, Nickname: nickname, Grade: model.DefaultUserGrade}
	d.users[u.ID] = u
	return u
}

func (d *fakeDB) addAdmin(accountID uint64, nickname string) model.Admin {
	d.nextAdminID++
	a := model.Admin{ID: d.nextAdminID, AccountID: accountID, Nickname: nickname}
	d.admins[a.ID] = a
	return a
}

// ----- AccountStore adapter -----

type fakeAccounts struct{ db *fakeDB }

var _ AccountStore = (*fakeAccounts)(nil)

func (f *fakeAccounts) ExistsByEmail(_ context.Context, email string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	_, ok := f.db.accountByEmail(email)
	return ok, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.accountByEmail(email)
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) CreateWithRole(_ context.Context, email, passwordHash, nickname string, isAdmin bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.accountByEmail(email); ok {
		return repository.ErrEmailExists
	}
	a := f.db.addAccount(email, passwordHash)
	if isAdmin {
		f.db.addAdmin(a.ID, nickname)
	} else {
		f.db.addUser(a.ID, nickname)
	}
	return nil
}

// ----- UserStore adapter -----

type fakeUsers struct{ db *fakeDB }

var _ UserStore = (*fakeUsers)(nil)

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.accountByEmail(email)
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	for _, u := range f.db.users {
		if u.AccountID == a.ID {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) Email(_ context.Context, id uint64) (string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	a, ok := f.db.accounts[u.AccountID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return a.Email, nil
}

func (f *fakeUsers) SetRefreshTokenHash(_ context.Context, id uint64, hash string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshTokenHash = hash
	f.db.users[id] = u
	return nil
}

func (f *fakeUsers) RotateRefreshTokenHash(_ context.Context, id uint64, expected, next string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.RefreshTokenHash != expected {
		return repository.ErrRefreshMismatch
	}
	u.RefreshTokenHash = next
	f.db.users[id] = u
	return nil
}

// ----- AdminStore adapter -----

type fakeAdmins struct{ db *fakeDB }

var _ AdminStore = (*fakeAdmins)(nil)

func (f *fakeAdmins) GetByID(_ context.Context, id uint64) (model.Admin, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.admins[id]
	if !ok {
		return model.Admin{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (model.Admin, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	acc, ok := f.db.accountByEmail(email)
	if !ok {
		return model.Admin{}, repository.ErrNotFound
	}
	for _, a := range f.db.admins {
		if a.AccountID == acc.ID {
			return a, nil
		}
	}
	return model.Admin{}, repository.ErrNotFound
}

func (f *fakeAdmins) Email(_ context.Context, id uint64) (string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	m, ok := f.db.admins[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	a, ok := f.db.accounts[m.AccountID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return a.Email, nil
}

func (f *fakeAdmins) SetRefreshTokenHash(_ context.Context, id uint64, hash string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.RefreshTokenHash = hash
	f.db.admins[id] = a
	return nil
}

func (f *fakeAdmins) RotateRefreshTokenHash(_ context.Context, id uint64, expected, next string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	a, ok := f.db.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.RefreshTokenHash != expected {
		return repository.ErrRefreshMismatch
	}
	a.RefreshTokenHash = next
	f.db.admins[id] = a
	return nil
}

// newTestAuth wires an Auth service over a fresh fake database. The
// low bcrypt cost keeps the suite fast.
func newTestAuth() (*Auth, *Resolver, *fakeDB) {
	db := newFakeDB()
	resolver := NewResolver(&fakeUsers{db}, &fakeAdmins{db})
	codec := utils.NewTokenCodec("unit-test-signing-secret-000000001", 30*time.Minute, 14*24*time.Hour)
	return NewAuth(&fakeAccounts{db}, resolver, codec, 4), resolver, db
}
