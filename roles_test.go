package bearer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	consumer := &User{Role: RoleConsumer, Realm: RealmUser}
	admin := &User{Role: RoleAdmin, Realm: RealmInternal}

	tests := []struct {
		name  string
		user  *User
		roles []string
		want  bool
	}{
		{"nil user never allowed", nil, []string{"*"}, false},
		{"wildcard allows anyone", consumer, []string{"*"}, true},
		{"role match", admin, []string{"admin"}, true},
		{"realm match", admin, []string{"internal"}, true},
		{"consumer rejected from admin list", consumer, []string{"admin"}, false},
		{"consumer realm match", consumer, []string{"user"}, true},
		{"no hierarchy between roles", admin, []string{"consumer"}, false},
		{"empty list rejects", admin, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.user, tt.roles))
		})
	}
}

func TestCheckAccess(t *testing.T) {
	err := CheckAccess(nil, "*")
	require.ErrorIs(t, err, ErrLoginRequired)

	consumer := &User{Role: RoleConsumer, Realm: RealmUser}
	err = CheckAccess(consumer, "admin")
	require.ErrorIs(t, err, ErrNotAuthorized)

	assert.NoError(t, CheckAccess(consumer, "*"))
	assert.NoError(t, CheckAccess(consumer, "admin", "user"))
}

func TestDefaultRealm(t *testing.T) {
	assert.Equal(t, RealmInternal, DefaultRealm(RoleAdmin))
	assert.Equal(t, RealmUser, DefaultRealm(RoleConsumer))
	assert.Equal(t, RealmUser, DefaultRealm(UserRole("unknown")))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleConsumer))
	assert.True(t, IsValidRole(RoleAdmin))
	assert.False(t, IsValidRole(UserRole("root")))
}
