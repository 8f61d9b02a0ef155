package auth

import "errors"

// AuthError carries one of the fixed messages shown to users on sign-in
// failures.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrEmailInUse     = &AuthError{Message: "Email already in use."}
	ErrUserNotFound   = &AuthError{Message: "User not found."}
	ErrWrongPassword  = &AuthError{Message: "Incorrect password."}
	ErrAuthFailed     = &AuthError{Message: "Authentication failed. Try again."}
	ErrUpdateEmail    = &AuthError{Message: "Failed to update email. Try logging in again."}
	ErrUpdatePassword = &AuthError{Message: "Failed to update password. Try logging in again."}
)

// AsAuthError extracts an *AuthError from err.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
