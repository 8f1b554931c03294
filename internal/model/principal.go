package model

// RoleKind names the table a principal lives in. A principal is either
// a USER (users table) or an ADMIN (admins table), never both.
type RoleKind string

const (
	RoleUser  RoleKind = "USER"
	RoleAdmin RoleKind = "ADMIN"
)

// Valid reports whether k is one of the two known role kinds.
func (k RoleKind) Valid() bool { return k == RoleUser || k == RoleAdmin }

// Authority values attached to an authenticated principal.
const (
	AuthorityUser  = "ROLE_USER"
	AuthorityAdmin = "ROLE_ADMIN"
)

// Principal is the resolved, authenticated identity used for
// authorization decisions. It is derived from an Account plus its role
// row and never persisted.
type Principal struct {
	Role      RoleKind
	ID        uint64 // id of the users/admins row, not the account
	AccountID uint64
	Email     string
	Nickname  string
}

// Authorities returns the authority set for the principal's role.
// Admins hold ROLE_USER as well, so every check a user passes an admin
// passes too.
func (p Principal) Authorities() []string {
	if p.Role == RoleAdmin {
		return []string{AuthorityAdmin, AuthorityUser}
	}
	return []string{AuthorityUser}
}

// HasAuthority reports whether the principal carries the given authority.
func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities() {
		if a == authority {
			return true
		}
	}
	return false
}
