package model

import "time"

// Account mirrors the 'accounts' table. It holds the credential pair
// shared by exactly one role row (users or admins). Email is stored
// lowercase so uniqueness is case-insensitive.
type Account struct {
	ID           uint64    // accounts.id
	Email        string    // accounts.email (unique, lowercase)
	PasswordHash string    // accounts.password_hash (bcrypt)
	CreatedAt    time.Time // accounts.created_at
	UpdatedAt    time.Time // accounts.updated_at
}

// User mirrors the 'users' table. RefreshTokenHash stores the SHA-256
// digest of the most recently issued refresh token; the raw token is
// never persisted. The column is NULL until the first sign-in.
type User struct {
	ID               uint64    // users.id
	AccountID        uint64    // users.account_id (unique)
	Nickname         string    // users.nickname
	Grade            string    // users.grade (e.g. "silver")
	RefreshTokenHash string    // users.refresh_token_hash ("" when NULL)
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}

// Admin mirrors the 'admins' table. Same refresh-token slot semantics
// as User.
type Admin struct {
	ID               uint64    // admins.id
	AccountID        uint64    // admins.account_id (unique)
	Nickname         string    // admins.nickname
	RefreshTokenHash string    // admins.refresh_token_hash ("" when NULL)
	CreatedAt        time.Time // admins.created_at
	UpdatedAt        time.Time // admins.updated_at
}

// DefaultUserGrade is assigned to every newly registered user.
const DefaultUserGrade = "silver"
