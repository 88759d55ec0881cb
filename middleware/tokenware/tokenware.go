package tokenware

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// Wire-visible type codes for credential failures. They match the codes the
// session package attaches to its own errors so both render the same way.
const (
	TextCredentialsFormat      = "CREDENTIALS_FORMAT_ERROR"
	TextCredentialsScheme      = "CREDENTIALS_SCHEME_ERROR"
	TextCredentialsRequirement = "CREDENTIALS_REQUIREMENT_ERROR"
)

var (
	// ErrMalformedHeader is returned when the Authorization header does not
	// split into exactly a scheme and a value.
	ErrMalformedHeader = goerrors.New("Format is Authorization: Bearer [token]", goerrors.CategoryBadInput).
				WithTextCode(TextCredentialsFormat).
				WithCode(goerrors.CodeBadRequest)

	// ErrUnsupportedScheme is returned when the Authorization header carries
	// a scheme other than the configured one.
	ErrUnsupportedScheme = goerrors.New("Format is Authorization: Bearer [token]", goerrors.CategoryBadInput).
				WithTextCode(TextCredentialsScheme).
				WithCode(goerrors.CodeBadRequest)

	// ErrMissingCredential is returned when neither the header nor the query
	// parameter carry a token.
	ErrMissingCredential = goerrors.New("No authorization token was found", goerrors.CategoryAuth).
				WithTextCode(TextCredentialsRequirement).
				WithCode(goerrors.CodeUnauthorized)
)

// Principal interface for the authenticated identity without import cycles.
// This mirrors the User record resolved by the session package.
type Principal interface {
	PrincipalID() string
	PrincipalRole() string
	PrincipalRealm() string
}

// TokenResolver interface for resolving raw bearer values without import
// cycles. This mirrors the SessionManager.ResolveToken method.
type TokenResolver interface {
	ResolveToken(ctx context.Context, raw string) (Principal, error)
}

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	ContextKey     string
	AuthScheme     string
	// QueryParam is the query string fallback checked when no Authorization
	// header is present.
	QueryParam string
	// OpenEndpoints lists exact paths and trailing-star prefixes that skip
	// authentication entirely. Ignored when Filter is set.
	OpenEndpoints []string
	// TokenResolver is required to map raw values to principals
	TokenResolver TokenResolver

	// ContextEnricher is an optional function to propagate the principal to
	// the standard Go context. If provided, it will be called after a
	// successful token resolution.
	ContextEnricher func(c context.Context, principal Principal) context.Context
}

func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractCredential(ctx, cfg.AuthScheme, cfg.QueryParam)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			principal, err := cfg.TokenResolver.ResolveToken(ctx.Context(), raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			// A token record without an owner still authenticates the
			// request; authorization checks downstream reject the nil
			// principal where it matters.
			ctx.Locals(cfg.ContextKey, principal)

			if cfg.ContextEnricher != nil && principal != nil {
				stdCtx := ctx.Context()
				ctx.SetContext(cfg.ContextEnricher(stdCtx, principal))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return c.Status(richErr.Code).SendString(richErr.Message)
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.TokenResolver == nil {
		panic("AUTH: bearer middleware configuration: TokenResolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.QueryParam == "" {
		cfg.QueryParam = "access-token"
	}

	if cfg.Filter == nil && len(cfg.OpenEndpoints) > 0 {
		endpoints := cfg.OpenEndpoints
		cfg.Filter = func(ctx router.Context) bool {
			return IsOpenEndpoint(ctx.Path(), endpoints)
		}
	}

	return cfg
}

// ExtractCredential pulls the raw bearer value out of a request. The header
// wins over the query parameter; a present but malformed header is an error
// rather than a fallthrough.
func ExtractCredential(ctx router.Context, authScheme, queryParam string) (string, error) {
	header := ctx.GetString(router.HeaderAuthorization, "")
	if header != "" {
		return CredentialFromHeader(header, authScheme)
	}

	if queryParam != "" {
		if raw := ctx.Query(queryParam, ""); raw != "" {
			return raw, nil
		}
	}

	return "", ErrMissingCredential
}

// CredentialFromHeader parses an Authorization header that is known to be
// present: exactly two whitespace-separated parts, scheme matched without
// regard to case.
func CredentialFromHeader(header, authScheme string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", ErrMalformedHeader
	}

	if !strings.EqualFold(parts[0], authScheme) {
		return "", ErrUnsupportedScheme
	}

	return parts[1], nil
}

// IsOpenEndpoint reports whether path matches the allow-list. Entries ending
// in "*" match as prefixes, everything else must match exactly.
func IsOpenEndpoint(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		if strings.HasSuffix(pattern, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(pattern, "*")) {
				return true
			}
			continue
		}

		if path == pattern {
			return true
		}
	}

	return false
}
