package bearer

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-bearer/middleware/tokenware"
)

// ErrorResponse is the uniform envelope every auth failure renders as.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Status  int    `json:"status"`
	Type    string `json:"type"`
	Message string `json:"message"`
	// Details carries the underlying failure in non-production
	// deployments only.
	Details any `json:"details,omitempty"`
}

// RouteAuthenticator wires the session manager into a router: the protected
// middleware, the guard factory, and the error envelope.
type RouteAuthenticator struct {
	session      SessionAuthenticator
	resolver     TokenResolver
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(session *SessionManager, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		session:  session,
		resolver: session,
		cfg:      cfg,
		Logger:   defLogger{},
	}

	a.ErrorHandler = a.RenderError

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// Protected returns the authentication gate for every route not listed in
// the open-endpoint allow-list.
func (a *RouteAuthenticator) Protected(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.ErrorHandler
	}

	return tokenware.New(tokenware.Config{
		ErrorHandler:  errorHandler,
		AuthScheme:    a.cfg.GetAuthScheme(),
		ContextKey:    a.cfg.GetContextKey(),
		QueryParam:    a.cfg.GetTokenQueryParam(),
		OpenEndpoints: a.cfg.GetOpenEndpoints(),
		TokenResolver:   resolverAdapter{a.resolver},
		ContextEnricher: ContextEnricherAdapter,
	})
}

// RequireRoles returns a guard middleware for routes that need a role or
// realm match beyond plain authentication.
func (a *RouteAuthenticator) RequireRoles(roles ...string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			principal, _ := a.CurrentUser(ctx)
			if err := CheckAccess(principal, roles...); err != nil {
				return a.ErrorHandler(ctx, err)
			}
			return ctx.Next()
		}
	}
}

// CurrentUser returns the principal the middleware attached to the request.
func (a *RouteAuthenticator) CurrentUser(ctx router.Context) (*User, bool) {
	return PrincipalFromRouter(ctx, a.cfg.GetContextKey())
}

// RenderError classifies err and writes the error envelope.
func (a *RouteAuthenticator) RenderError(c router.Context, err error) error {
	richErr := Classify(err)

	a.Logger.Debug(
		"request failed type=%s status=%d message=%q",
		richErr.TextCode, richErr.Code, richErr.Message,
	)

	body := ErrorBody{
		Status:  richErr.Code,
		Type:    richErr.TextCode,
		Message: richErr.Message,
	}

	if !IsProduction(a.cfg) {
		body.Details = errorDetails(richErr)
	}

	return c.JSON(richErr.Code, ErrorResponse{Error: body})
}

func errorDetails(richErr *goerrors.Error) map[string]any {
	details := map[string]any{
		"category": richErr.Category,
	}

	if richErr.Source != nil {
		details["source"] = richErr.Source.Error()
	}

	if len(richErr.Metadata) > 0 {
		details["metadata"] = print.MaybePrettyJSON(richErr.Metadata)
	}

	return details
}

// resolverAdapter bridges the session manager's typed resolver to the
// middleware's cycle-free interface.
type resolverAdapter struct {
	resolver TokenResolver
}

func (r resolverAdapter) ResolveToken(ctx context.Context, raw string) (tokenware.Principal, error) {
	user, err := r.resolver.ResolveToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user, nil
}
