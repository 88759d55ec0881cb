package bearer_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bearer "github.com/goliatone/go-bearer"
)

func TestSessionManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown identifier", func(t *testing.T) {
		session, _ := newTestStack(t, nil)

		result, err := session.Login(ctx, "nobody@example.com", "secret-password")
		require.Error(t, err)
		assert.Nil(t, result)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, bearer.TextAuthentication, richErr.TextCode)
		assert.Equal(t, "User does not exist", richErr.Message)
	})

	t.Run("wrong password tracks the attempt", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		result, err := session.Login(ctx, user.Email, "not-the-password")
		require.Error(t, err)
		assert.Nil(t, result)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, bearer.TextAuthentication, richErr.TextCode)
		assert.Equal(t, "Password provided is invalid", richErr.Message)

		record, err := repo.Users().GetByIdentifier(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, 1, record.LoginAttempts)
		assert.NotNil(t, record.LoginAttemptAt)
	})

	t.Run("archived user reads as unknown", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "gone@example.com", "secret-password", bearer.RoleConsumer)

		_, err := repo.Users().SetArchived(ctx, user.ID, true)
		require.NoError(t, err)

		_, err = session.Login(ctx, user.Email, "secret-password")
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "User does not exist", richErr.Message)
	})

	t.Run("success mints a token and stamps last login", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		// seed a failed attempt so we can see it reset
		_, err := session.Login(ctx, user.Email, "not-the-password")
		require.Error(t, err)

		result, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.NotEmpty(t, result.Token)
		require.NotNil(t, result.User)
		assert.Equal(t, user.Email, result.User.Email)

		record, err := repo.Users().GetByIdentifier(ctx, user.Email)
		require.NoError(t, err)
		assert.NotNil(t, record.LastLogin)
		assert.Equal(t, 0, record.LoginAttempts)
		assert.Nil(t, record.LoginAttemptAt)
	})

	t.Run("repeat login reuses the live token", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		first, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)

		second, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)
		assert.Equal(t, first.Token, second.Token)
	})

	t.Run("login by id", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		result, err := session.Login(ctx, user.ID.String(), "secret-password")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("throttle kicks in after repeated failures", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		session.WithLoginThrottle(3, time.Hour)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		for i := 0; i < 3; i++ {
			_, err := session.Login(ctx, user.Email, "not-the-password")
			require.Error(t, err)
			require.NotErrorIs(t, err, bearer.ErrTooManyLoginAttempts)
		}

		// even the right password is refused inside the cooldown window
		_, err := session.Login(ctx, user.Email, "secret-password")
		assert.ErrorIs(t, err, bearer.ErrTooManyLoginAttempts)

		session.WithClock(func() time.Time {
			return time.Now().Add(2 * time.Hour)
		})

		result, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("mint failure surfaces as server error", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		minter := bearer.NewTokenMinter()
		minter.Rand = failingReader{}
		session.WithTokenMinter(minter)

		_, err := session.Login(ctx, user.Email, "secret-password")
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, bearer.TextServer, richErr.TextCode)
	})
}

func TestSessionManager_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes the active token", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		result, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)

		require.NoError(t, session.Logout(ctx, user))

		record, err := repo.Tokens().GetByUser(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.Revoked)
		assert.Equal(t, bearer.RevokedTokenValue, record.Value)

		_, err = session.ResolveToken(ctx, result.Token)
		assert.ErrorIs(t, err, bearer.ErrTokenInvalid)
	})

	t.Run("idempotent for an already revoked token", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		_, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)

		require.NoError(t, session.Logout(ctx, user))
		require.NoError(t, session.Logout(ctx, user))
	})

	t.Run("nil principal", func(t *testing.T) {
		session, _ := newTestStack(t, nil)
		assert.ErrorIs(t, session.Logout(ctx, nil), bearer.ErrNotLoggedIn)
	})

	t.Run("user without a token", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		assert.ErrorIs(t, session.Logout(ctx, user), bearer.ErrNotLoggedIn)
	})

	t.Run("login after logout rotates the value", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		first, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)

		require.NoError(t, session.Logout(ctx, user))

		second, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)
		assert.NotEqual(t, first.Token, second.Token)

		_, err = session.ResolveToken(ctx, first.Token)
		assert.ErrorIs(t, err, bearer.ErrTokenInvalid)

		principal, err := session.ResolveToken(ctx, second.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, principal.ID)
	})
}

func TestSessionManager_Archive(t *testing.T) {
	ctx := context.Background()

	t.Run("archives the user and kills the session", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		result, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)

		archived, err := session.Archive(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, archived)
		assert.True(t, archived.Archived)

		_, err = session.ResolveToken(ctx, result.Token)
		assert.ErrorIs(t, err, bearer.ErrTokenInvalid)

		_, err = session.Login(ctx, user.Email, "secret-password")
		require.Error(t, err)
	})

	t.Run("nil id", func(t *testing.T) {
		session, _ := newTestStack(t, nil)
		_, err := session.Archive(ctx, uuid.Nil)
		assert.ErrorIs(t, err, bearer.ErrNotAuthorized)
	})
}

func TestSessionManager_ResolveToken(t *testing.T) {
	ctx := context.Background()

	t.Run("maps the raw value to its owner", func(t *testing.T) {
		session, repo := newTestStack(t, nil)
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		result, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)

		principal, err := session.ResolveToken(ctx, result.Token)
		require.NoError(t, err)
		require.NotNil(t, principal)
		assert.Equal(t, user.ID, principal.ID)
		assert.Equal(t, user.Email, principal.Email)
	})

	t.Run("unknown value", func(t *testing.T) {
		session, _ := newTestStack(t, nil)
		_, err := session.ResolveToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, bearer.ErrTokenInvalid)
	})

	t.Run("empty and sentinel values never resolve", func(t *testing.T) {
		session, _ := newTestStack(t, nil)

		_, err := session.ResolveToken(ctx, "")
		assert.ErrorIs(t, err, bearer.ErrTokenInvalid)

		_, err = session.ResolveToken(ctx, bearer.RevokedTokenValue)
		assert.ErrorIs(t, err, bearer.ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		session, repo := newTestStack(t, bearer.BaseConfig{TokenTTL: time.Hour})
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		result, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)

		principal, err := session.ResolveToken(ctx, result.Token)
		require.NoError(t, err)
		require.NotNil(t, principal)

		session.WithClock(func() time.Time {
			return time.Now().Add(2 * time.Hour)
		})

		_, err = session.ResolveToken(ctx, result.Token)
		assert.ErrorIs(t, err, bearer.ErrTokenInvalid)
	})

	t.Run("expired token rotates on next login", func(t *testing.T) {
		session, repo := newTestStack(t, bearer.BaseConfig{TokenTTL: time.Hour})
		user := registerUser(t, repo, "pepe@example.com", "secret-password", bearer.RoleConsumer)

		first, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)

		session.WithClock(func() time.Time {
			return time.Now().Add(2 * time.Hour)
		})

		second, err := session.Login(ctx, user.Email, "secret-password")
		require.NoError(t, err)
		assert.NotEqual(t, first.Token, second.Token)

		principal, err := session.ResolveToken(ctx, second.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, principal.ID)
	})
}
