package bearer

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionManager drives the bearer token lifecycle: login mints or reuses
// opaque tokens, logout neutralizes them, archive retires the account and
// its session in one transaction.
type SessionManager struct {
	repo         RepositoryManager
	minter       *TokenMinter
	cfg          Config
	logger       Logger
	tokenTTL     time.Duration
	maxAttempts  int
	attemptsCool time.Duration
	now          func() time.Time
}

var (
	_ SessionAuthenticator = (*SessionManager)(nil)
	_ TokenResolver        = (*SessionManager)(nil)
)

// NewSessionManager returns a new SessionManager
func NewSessionManager(repo RepositoryManager, opts Config) *SessionManager {
	minter := NewTokenMinter()
	minter.ByteLength = opts.GetTokenByteLength()

	return &SessionManager{
		repo:     repo,
		minter:   minter,
		cfg:      opts,
		logger:   defLogger{},
		tokenTTL: opts.GetTokenTTL(),
		now:      time.Now,
	}
}

func (s *SessionManager) WithLogger(logger Logger) *SessionManager {
	s.logger = logger
	return s
}

func (s *SessionManager) WithTokenMinter(minter *TokenMinter) *SessionManager {
	if minter != nil {
		s.minter = minter
	}
	return s
}

// WithLoginThrottle rejects logins once the account has failed maxAttempts
// times within the cooldown window. Zero values disable the throttle.
func (s *SessionManager) WithLoginThrottle(maxAttempts int, cooldown time.Duration) *SessionManager {
	s.maxAttempts = maxAttempts
	s.attemptsCool = cooldown
	return s
}

func (s *SessionManager) WithClock(now func() time.Time) *SessionManager {
	if now != nil {
		s.now = now
	}
	return s
}

// Login verifies the credential pair and returns the user's bearer token,
// reusing the live token if one exists so that parallel logins for the same
// account all hand back the same session.
func (s *SessionManager) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("login attempt for unknown identifier %q", identifier)
			return nil, AuthenticationError(s.cfg.GetUnknownUserMessage())
		}
		return nil, ServerError(err, "unable to load user")
	}

	if user == nil || user.Archived {
		s.logger.Debug("login attempt for archived identifier %q", identifier)
		return nil, AuthenticationError(s.cfg.GetUnknownUserMessage())
	}

	if s.throttled(user) {
		s.logger.Debug("login throttled for identifier %q", identifier)
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if trackErr := s.repo.Users().TrackAttemptedLogin(ctx, user); trackErr != nil {
			s.logger.Error("unable to track login attempt: %s", trackErr)
		}
		return nil, AuthenticationError(s.cfg.GetInvalidPasswordMessage())
	}

	token, err := s.ensureToken(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Users().TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Error("unable to track successful login: %s", err)
	}

	return &LoginResult{
		Token: token.Value,
		User:  user.Public(),
	}, nil
}

func (s *SessionManager) throttled(user *User) bool {
	if s.maxAttempts <= 0 || user.LoginAttempts < s.maxAttempts {
		return false
	}
	if user.LoginAttemptAt == nil {
		return false
	}
	return s.now().Sub(*user.LoginAttemptAt) < s.attemptsCool
}

// ensureToken returns the user's live token, rotating the stored record or
// creating one when no usable token exists.
func (s *SessionManager) ensureToken(ctx context.Context, user *User) (*Token, error) {
	now := s.now()

	current, err := s.repo.Tokens().GetByUser(ctx, user.ID)
	if err != nil {
		return nil, ServerError(err, "unable to load access token")
	}

	if current != nil && current.Live(now) {
		return current, nil
	}

	value, err := s.minter.Mint()
	if err != nil {
		return nil, err
	}

	expiresAt := s.expiry(now)

	if current == nil {
		created, err := s.repo.Tokens().Create(ctx, &Token{
			Value:     value,
			UserID:    user.ID,
			Revoked:   false,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			return nil, ServerError(err, "unable to store access token")
		}
		if created == nil {
			return nil, ServerError(nil, "access token record missing after create")
		}
		// A concurrent login may have won the insert; its token is just
		// as valid, so hand that one back.
		if created.Live(now) {
			return created, nil
		}
		current = created
	}

	updated, err := s.repo.Tokens().Update(ctx, user.ID, Changes{
		"value":      value,
		"revoked":    false,
		"expires_at": expiresAt,
	})
	if err != nil {
		return nil, ServerError(err, "unable to rotate access token")
	}
	if updated == nil {
		return nil, ServerError(nil, "access token record missing during rotation")
	}

	return updated, nil
}

func (s *SessionManager) expiry(now time.Time) *time.Time {
	if s.tokenTTL <= 0 {
		return nil
	}
	at := now.Add(s.tokenTTL)
	return &at
}

// Logout revokes the principal's token. Revoking an already revoked token
// succeeds silently; only a request with no principal, or a user that was
// never issued a token, is an error.
func (s *SessionManager) Logout(ctx context.Context, principal *User) error {
	if principal == nil {
		return ErrNotLoggedIn
	}

	// The revocation should land even if the caller's request context is
	// canceled mid-flight.
	ctx = context.WithoutCancel(ctx)

	revoked, err := s.repo.Tokens().Revoke(ctx, principal.ID)
	if err != nil {
		return ServerError(err, "unable to revoke access token")
	}

	if revoked == nil {
		return ErrNotLoggedIn
	}

	return nil
}

// Archive flags the account as archived and revokes its token so the change
// takes effect immediately rather than at next token expiry.
func (s *SessionManager) Archive(ctx context.Context, userID uuid.UUID) (*User, error) {
	if userID == uuid.Nil {
		return nil, ErrNotAuthorized
	}

	ctx = context.WithoutCancel(ctx)

	var archived *User
	err := s.repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.Users().SetArchivedTx(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		archived = record

		_, err = s.repo.Tokens().RevokeTx(ctx, tx, userID)
		return err
	})

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, err
		}
		return nil, ServerError(err, "unable to archive user")
	}

	return archived, nil
}

// ResolveToken maps a raw bearer value to its owning user. Unknown, revoked,
// and expired values are indistinguishable to the caller.
func (s *SessionManager) ResolveToken(ctx context.Context, raw string) (*User, error) {
	record, err := s.repo.Tokens().GetByValue(ctx, raw)
	if err != nil {
		return nil, ServerError(err, "unable to load access token")
	}

	if record == nil || !record.Live(s.now()) {
		return nil, ErrTokenInvalid
	}

	return record.User, nil
}
