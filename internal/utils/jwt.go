package utils // token issuing, parsing and refresh-token hashing helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/f-lab-edu/retry-lee/internal/model"
)

// TokenKind marks what a token may be used for. It travels in the JWT
// "sub" claim so a refresh token can never pass for an access token.
type TokenKind string

const (
	TokenAccess  TokenKind = "ACCESS"
	TokenRefresh TokenKind = "REFRESH"
)

// Codec decode failures. Validate never returns these; Decode does.
var (
	// ErrTokenMalformed: not a JWT, wrong algorithm, or a required
	// claim is missing or has the wrong type.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenInvalid: the signature does not verify.
	ErrTokenInvalid = errors.New("token signature invalid")
	// ErrTokenExpired: signature is fine but exp has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the typed view of a decoded token.
type Claims struct {
	Kind        TokenKind
	Role        model.RoleKind
	PrincipalID uint64
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TokenCodec signs and verifies HS256 JWTs carrying the token kind,
// the principal's role and its role-row id. TTLs come from
// configuration; nothing here hardcodes them.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenCodec(secret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Issue mints a signed token of the given kind for (role, principalID).
// The expiry is now + the TTL configured for the kind.
func (c *TokenCodec) Issue(kind TokenKind, role model.RoleKind, principalID uint64, now time.Time) (string, error) {
	ttl := c.accessTTL
	if kind == TokenRefresh {
		ttl = c.refreshTTL
	}
	// A random jti keeps two tokens minted within the same second from
	// serializing identically, so every rotation really supersedes the
	// previous refresh value.
	jti, err := randomHex(16)
	if err != nil {
		return "", err
	}
	now = now.UTC()
	claims := jwt.MapClaims{
		"sub":  string(kind),
		"role": string(role),
		"id":   principalID,
		"jti":  jti,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Decode parses and verifies a token string and extracts its claims.
// Failures are classified: ErrTokenExpired, ErrTokenInvalid (bad
// signature) or ErrTokenMalformed (anything else, including a claim of
// the wrong type).
func (c *TokenCodec) Decode(tokenString string) (Claims, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrTokenInvalid
		default:
			return Claims{}, ErrTokenMalformed
		}
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, ErrTokenMalformed
	}

	kind, ok := claimString(mc, "sub")
	if !ok || (TokenKind(kind) != TokenAccess && TokenKind(kind) != TokenRefresh) {
		return Claims{}, ErrTokenMalformed
	}
	role, ok := claimString(mc, "role")
	if !ok || !model.RoleKind(role).Valid() {
		return Claims{}, ErrTokenMalformed
	}
	id, ok := claimUint64(mc, "id")
	if !ok || id == 0 {
		return Claims{}, ErrTokenMalformed
	}

	out := Claims{
		Kind:        TokenKind(kind),
		Role:        model.RoleKind(role),
		PrincipalID: id,
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Validate reports whether the token's signature verifies and it has
// not expired. It never returns an error; any failure is just false.
func (c *TokenCodec) Validate(tokenString string) bool {
	_, err := c.Decode(tokenString)
	return err == nil
}

// claimString fetches a string claim; absence or a non-string value
// yields ok=false instead of panicking.
func claimString(mc jwt.MapClaims, name string) (string, bool) {
	v, ok := mc[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// claimUint64 fetches a numeric claim. JSON numbers decode as float64;
// a negative or fractional value does not fit an id and yields ok=false.
func claimUint64(mc jwt.MapClaims, name string) (uint64, bool) {
	v, ok := mc[name]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f < 0 || f != float64(uint64(f)) {
		return 0, false
	}
	return uint64(f), true
}

// randomHex returns a hex string built from n bytes of secure random
// data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a raw refresh token.
// Only the digest is persisted, so a leaked database row cannot be
// replayed as a session.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
