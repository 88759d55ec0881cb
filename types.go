package bearer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetAuthScheme() string
	GetContextKey() string
	GetTokenQueryParam() string
	GetOpenEndpoints() []string
	GetTokenByteLength() int
	GetTokenTTL() time.Duration
	GetUnknownUserMessage() string
	GetInvalidPasswordMessage() string
	GetEnv() string
}

// LoginPayload carries the credentials posted to the login endpoint
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// LoginResult is what a successful login returns: the bearer token value and
// the public projection of its owner.
type LoginResult struct {
	Token string      `json:"token"`
	User  *PublicUser `json:"user"`
}

// SessionAuthenticator holds methods to deal with the token lifecycle
type SessionAuthenticator interface {
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Logout(ctx context.Context, principal *User) error
	Archive(ctx context.Context, userID uuid.UUID) (*User, error)
}

// TokenResolver resolves a raw bearer value to its owning user. A nil user
// with a nil error means the token record has no owner; downstream checks
// must treat that as unauthenticated.
type TokenResolver interface {
	ResolveToken(ctx context.Context, raw string) (*User, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// BaseConfig is a plain implementation of Config with env-style defaults
type BaseConfig struct {
	AuthScheme             string
	ContextKey             string
	TokenQueryParam        string
	OpenEndpoints          []string
	TokenByteLength        int
	TokenTTL               time.Duration
	UnknownUserMessage     string
	InvalidPasswordMessage string
	Env                    string
}

func (c BaseConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c BaseConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c BaseConfig) GetTokenQueryParam() string {
	if c.TokenQueryParam == "" {
		return "access-token"
	}
	return c.TokenQueryParam
}

func (c BaseConfig) GetOpenEndpoints() []string {
	if c.OpenEndpoints == nil {
		return []string{
			"/",
			"/login",
			"/signup",
			"/users/login",
			"/users/signup",
			"/documentation/*",
			"/media/*",
		}
	}
	return c.OpenEndpoints
}

func (c BaseConfig) GetTokenByteLength() int {
	if c.TokenByteLength <= 0 {
		return DefaultTokenByteLength
	}
	return c.TokenByteLength
}

func (c BaseConfig) GetTokenTTL() time.Duration {
	return c.TokenTTL
}

func (c BaseConfig) GetUnknownUserMessage() string {
	if c.UnknownUserMessage == "" {
		return "User does not exist"
	}
	return c.UnknownUserMessage
}

func (c BaseConfig) GetInvalidPasswordMessage() string {
	if c.InvalidPasswordMessage == "" {
		return "Password provided is invalid"
	}
	return c.InvalidPasswordMessage
}

func (c BaseConfig) GetEnv() string {
	if c.Env == "" {
		return "development"
	}
	return c.Env
}

// IsProduction reports whether error envelopes should omit diagnostics
func IsProduction(cfg Config) bool {
	return cfg != nil && cfg.GetEnv() == "production"
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] BEARER "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] BEARER "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] BEARER "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
