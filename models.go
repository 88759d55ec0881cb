package bearer

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleConsumer is the default role for self-registered users
	RoleConsumer UserRole = "consumer"
	// RoleAdmin is the staff role (i.e. manage users, archive accounts)
	RoleAdmin UserRole = "admin"
)

// UserRealm is a coarse trust domain, checked alongside role
type UserRealm = string

const (
	// RealmUser is the external consumer realm
	RealmUser UserRealm = "user"
	// RealmInternal is the internal staff realm
	RealmInternal UserRealm = "internal"
)

// RoleWildcard matches any role or realm in an access check
const RoleWildcard = "*"

// RevokedTokenValue is the sentinel stored in place of a live token value.
// A lookup by value can never match it, so revoked tokens are structurally
// excluded from authentication.
const RevokedTokenValue = "EMPTY"

// User is the identity record
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole       `bun:"role,notnull" json:"role,omitempty"`
	Realm          UserRealm      `bun:"realm,notnull" json:"realm,omitempty"`
	FirstName      string         `bun:"first_name" json:"first_name,omitempty"`
	LastName       string         `bun:"last_name" json:"last_name,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"-"`
	Archived       bool           `bun:"archived,notnull,default:false" json:"archived,omitempty"`
	LoginAttempts  int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LastLogin      *time.Time     `bun:"last_login" json:"last_login,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// PublicUser is the projection of a User that is safe to put on the wire.
// The credential hash never leaves the package.
type PublicUser struct {
	ID        uuid.UUID  `json:"_id"`
	Email     string     `json:"email,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Role      UserRole   `json:"role,omitempty"`
	Realm     UserRealm  `json:"realm,omitempty"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Public returns the whitelisted projection of the user
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Realm:     u.Realm,
		LastLogin: u.LastLogin,
	}
}

// PrincipalID implements the middleware principal contract.
func (u *User) PrincipalID() string {
	if u == nil {
		return ""
	}
	return u.ID.String()
}

func (u *User) PrincipalRole() string {
	if u == nil {
		return ""
	}
	return string(u.Role)
}

func (u *User) PrincipalRealm() string {
	if u == nil {
		return ""
	}
	return string(u.Realm)
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// Token is the capability record bound to exactly one User. At most one
// non-deleted row exists per user, enforced by the unique user_id index and
// the insert-if-absent create path.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tok"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Value         string         `bun:"value,notnull" json:"value,omitempty"`
	UserID        uuid.UUID      `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	User          *User          `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Revoked       bool           `bun:"revoked,notnull,default:true" json:"revoked"`
	ExpiresAt     *time.Time     `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Live reports whether the token can authenticate a request at the given
// instant: issued, not revoked, not the sentinel, and not expired.
func (t *Token) Live(now time.Time) bool {
	if t == nil {
		return false
	}
	if t.Revoked || t.Value == "" || t.Value == RevokedTokenValue {
		return false
	}
	if t.ExpiresAt != nil && !t.ExpiresAt.After(now) {
		return false
	}
	return true
}
