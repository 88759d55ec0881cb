package bearer

import (
	goerrors "github.com/goliatone/go-errors"
)

// Wire-visible error type codes. Every failure that reaches the HTTP boundary
// is classified into exactly one of these.
const (
	TextCredentialsFormat      = "CREDENTIALS_FORMAT_ERROR"
	TextCredentialsScheme      = "CREDENTIALS_SCHEME_ERROR"
	TextCredentialsRequirement = "CREDENTIALS_REQUIREMENT_ERROR"
	TextAuthentication         = "AUTHENTICATION_ERROR"
	TextAuthorization          = "AUTHORIZATION_ERROR"
	TextLogout                 = "LOGOUT_ERROR"
	TextServer                 = "SERVER_ERROR"
	TextUserCreation           = "USER_CREATION_ERROR"
	TextPasswordUpdate         = "PASSWORD_UPDATE_ERROR"
)

// ErrCredentialsFormat is returned for a malformed Authorization header.
var ErrCredentialsFormat = goerrors.New("Format is Authorization: Bearer [token]", goerrors.CategoryBadInput).
	WithTextCode(TextCredentialsFormat).
	WithCode(goerrors.CodeBadRequest)

// ErrCredentialsScheme is returned for a non-Bearer authorization scheme.
var ErrCredentialsScheme = goerrors.New("Format is Authorization: Bearer [token]", goerrors.CategoryBadInput).
	WithTextCode(TextCredentialsScheme).
	WithCode(goerrors.CodeBadRequest)

// ErrCredentialsMissing is returned when a request carries no credential at all.
var ErrCredentialsMissing = goerrors.New("No authorization token was found", goerrors.CategoryAuth).
	WithTextCode(TextCredentialsRequirement).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid is returned when the presented token matches no live record.
var ErrTokenInvalid = goerrors.New("Access Token provided is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCredentialsRequirement).
	WithCode(goerrors.CodeUnauthorized)

// ErrLoginRequired is returned when an access check runs without a principal.
var ErrLoginRequired = goerrors.New("Please Login or register to continue", goerrors.CategoryAuthz).
	WithTextCode(TextAuthorization).
	WithCode(goerrors.CodeForbidden)

// ErrNotAuthorized is returned when the principal fails a role/realm check.
var ErrNotAuthorized = goerrors.New("You are not authorized to perform this action", goerrors.CategoryAuthz).
	WithTextCode(TextAuthorization).
	WithCode(goerrors.CodeForbidden)

// ErrNotLoggedIn is returned for a logout without an active session.
var ErrNotLoggedIn = goerrors.New("You are not Logged in", goerrors.CategoryAuth).
	WithTextCode(TextLogout).
	WithCode(goerrors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned once the attempt counter passes the
// threshold inside the cooldown window.
var ErrTooManyLoginAttempts = goerrors.New("Too many login attempts, try again later", goerrors.CategoryAuth).
	WithTextCode(TextAuthentication).
	WithCode(goerrors.CodeUnauthorized)

// AuthenticationError builds a login failure with configurable wording. The
// status and type code are fixed; only the message varies (see Config).
func AuthenticationError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryAuth).
		WithTextCode(TextAuthentication).
		WithCode(goerrors.CodeUnauthorized)
}

// ServerError classifies an infrastructure failure (store, hash, entropy)
// before it crosses the middleware boundary.
func ServerError(err error, message string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(TextServer).
		WithCode(goerrors.CodeInternal)
}

// UserCreationError reports a failed signup.
func UserCreationError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithTextCode(TextUserCreation).
		WithCode(goerrors.CodeBadRequest)
}

// PasswordUpdateError reports a failed credential change.
func PasswordUpdateError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithTextCode(TextPasswordUpdate).
		WithCode(goerrors.CodeBadRequest)
}

// Classify guarantees err carries a taxonomy type code. Rich errors without
// one inherit the code of their cause or fall back to their category; anything
// else is treated as an infrastructure failure.
func Classify(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ServerError(err, "Internal Server Error")
	}

	if richErr.TextCode != "" {
		return richErr
	}

	if richErr.Source != nil {
		var cause *goerrors.Error
		if goerrors.As(richErr.Source, &cause) && cause.TextCode != "" {
			return cause
		}
	}

	switch richErr.Category {
	case goerrors.CategoryAuth:
		clone := richErr.Clone()
		clone.TextCode = TextAuthentication
		clone.Code = goerrors.CodeUnauthorized
		return clone
	case goerrors.CategoryAuthz:
		clone := richErr.Clone()
		clone.TextCode = TextAuthorization
		clone.Code = goerrors.CodeForbidden
		return clone
	}

	return ServerError(err, "Internal Server Error")
}

// ClassifyUserFacing routes unclassified validation and conflict failures
// through the given constructor so they surface as 400s rather than opaque
// server errors. Already classified and infrastructure failures pass through.
func ClassifyUserFacing(err error, fallback func(string) *goerrors.Error) error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return err
	}

	if richErr.TextCode != "" {
		return richErr
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return fallback(richErr.Message)
	}

	return err
}
