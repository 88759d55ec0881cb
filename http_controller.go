package bearer

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RegisterAuthRoutes mounts the session endpoints on the given router. The
// caller is expected to have installed the Protected middleware with the
// login, signup, and root paths in the open-endpoint allow-list.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Get(controller.Routes.Root, controller.RootInfo).
		SetName("root.get")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("sign-out.post")

	app.Post(controller.Routes.Signup, controller.SignupPost).
		SetName("sign-up.post")

	app.Post(controller.Routes.PasswordUpdate, controller.PasswordUpdatePost).
		SetName("pwd-update.post")

	app.Post(controller.Routes.Archive, controller.ArchivePost).
		SetName("archive.post")
}

type AuthControllerRoutes struct {
	Root           string
	Login          string
	Logout         string
	Signup         string
	PasswordUpdate string
	Archive        string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Session      SessionAuthenticator
	Auther       *RouteAuthenticator
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Root:           "/",
			Login:          "/users/login",
			Logout:         "/users/logout",
			Signup:         "/users/signup",
			PasswordUpdate: "/users/password/update",
			Archive:        "/users/:id/archive",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Session == nil {
		panic("Missing SessionAuthenticator in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.Auther.RenderError
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerSession(session SessionAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Session = session
		return c
	}
}

func WithControllerAuther(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

func WithControllerErrorHandler(handler router.ErrorHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ErrorHandler = handler
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func (a *AuthController) RootInfo(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"name":   "bearer",
		"status": "ok",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %s", err)
		return a.ErrorHandler(ctx, AuthenticationError("unable to parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, AuthenticationError(err.Error()))
	}

	if a.Debug {
		a.Logger.Debug("login payload %s", print.MaybePrettyJSON(payload))
	}

	result, err := a.Session.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("login error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	principal, ok := a.Auther.CurrentUser(ctx)
	if !ok || principal == nil {
		return a.ErrorHandler(ctx, ErrNotLoggedIn)
	}

	if err := a.Session.Logout(ctx.Context(), principal); err != nil {
		a.Logger.Error("logout error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"logged_out": true,
	})
}

// SignupRequest payload
type SignupRequest struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) SignupPost(ctx router.Context) error {
	payload := new(SignupRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload: %s", err)
		return a.ErrorHandler(ctx, UserCreationError("unable to parse signup payload"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload: %s", err)
		return a.ErrorHandler(ctx, UserCreationError(err.Error()))
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(ctx.Context(), RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
	}); err != nil {
		a.Logger.Error("signup error: %s", err)
		return a.ErrorHandler(ctx, ClassifyUserFacing(err, UserCreationError))
	}

	// Hand back a session right away so clients skip the extra login round.
	result, err := a.Session.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("signup login error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, result)
}

// PasswordUpdateRequest payload
type PasswordUpdateRequest struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordUpdateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

func (a *AuthController) PasswordUpdatePost(ctx router.Context) error {
	principal, ok := a.Auther.CurrentUser(ctx)
	if !ok || principal == nil {
		return a.ErrorHandler(ctx, ErrLoginRequired)
	}

	payload := new(PasswordUpdateRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password update parse payload: %s", err)
		return a.ErrorHandler(ctx, PasswordUpdateError("unable to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, PasswordUpdateError(err.Error()))
	}

	handler := NewUpdatePasswordHandler(a.Repo).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), UpdatePasswordMessage{
		Identifier:      principal.Email,
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	}); err != nil {
		a.Logger.Error("password update error: %s", err)
		return a.ErrorHandler(ctx, ClassifyUserFacing(err, PasswordUpdateError))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"updated": true,
	})
}

func (a *AuthController) ArchivePost(ctx router.Context) error {
	principal, _ := a.Auther.CurrentUser(ctx)
	if err := CheckAccess(principal, string(RoleAdmin), string(RealmInternal)); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, ErrNotAuthorized)
	}

	archived, err := a.Session.Archive(ctx.Context(), id)
	if err != nil {
		a.Logger.Error("archive error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"archived": true,
		"user":     archived.Public(),
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
