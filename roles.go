package bearer

// Allowed reports whether the user's role OR realm matches any entry in
// roles, or roles carries the wildcard. The check is flat membership: an
// admin does not implicitly satisfy a check for another named role.
func Allowed(user *User, roles []string) bool {
	if user == nil {
		return false
	}

	for _, role := range roles {
		switch role {
		case RoleWildcard, string(user.Role), string(user.Realm):
			return true
		}
	}

	return false
}

// CheckAccess runs the authorization policy for the given principal. A nil
// principal fails with a login prompt, a present principal with no role or
// realm match fails with an authorization error.
func CheckAccess(user *User, roles ...string) error {
	if user == nil {
		return ErrLoginRequired
	}

	if !Allowed(user, roles) {
		return ErrNotAuthorized
	}

	return nil
}

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleConsumer, RoleAdmin:
		return true
	default:
		return false
	}
}

// DefaultRealm returns the realm a user type gets when none was assigned
func DefaultRealm(role UserRole) UserRealm {
	if role == RoleAdmin {
		return RealmInternal
	}
	return RealmUser
}
