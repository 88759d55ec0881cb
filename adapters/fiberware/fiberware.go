// Package fiberware exposes the bearer authentication gate as a native
// Fiber middleware for applications that do not go through the router
// abstraction.
package fiberware

import (
	"github.com/gofiber/fiber/v2"

	bearer "github.com/goliatone/go-bearer"
	"github.com/goliatone/go-bearer/middleware/tokenware"
)

type Config struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	ContextKey     string
	AuthScheme     string
	QueryParam     string
	OpenEndpoints  []string
	// TokenResolver is required to map raw values to principals
	TokenResolver bearer.TokenResolver
}

func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractCredential(c, cfg.AuthScheme, cfg.QueryParam)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		principal, err := cfg.TokenResolver.ResolveToken(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, principal)

		if principal != nil {
			c.SetUserContext(bearer.WithContext(c.UserContext(), principal))
		}

		return cfg.SuccessHandler(c)
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = RenderError
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
		cfg.Filter = func(c *fiber.Ctx) bool {
			return tokenware.IsOpenEndpoint(c.Path(), endpoints)
		}
	}

	return cfg
}

// ExtractCredential pulls the raw bearer value out of a Fiber request using
// the same precedence as the router middleware.
func ExtractCredential(c *fiber.Ctx, authScheme, queryParam string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header != "" {
		return tokenware.CredentialFromHeader(header, authScheme)
	}

	if queryParam != "" {
		if raw := c.Query(queryParam); raw != "" {
			return raw, nil
		}
	}

	return "", tokenware.ErrMissingCredential
}

// CurrentUser returns the principal attached by the middleware, if any.
func CurrentUser(c *fiber.Ctx, contextKey string) (*bearer.User, bool) {
	user, ok := c.Locals(contextKey).(*bearer.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// RenderError writes the uniform error envelope through Fiber.
func RenderError(c *fiber.Ctx, err error) error {
	richErr := bearer.Classify(err)

	return c.Status(richErr.Code).JSON(bearer.ErrorResponse{
		Error: bearer.ErrorBody{
			Status:  richErr.Code,
			Type:    richErr.TextCode,
			Message: richErr.Message,
		},
	})
}
