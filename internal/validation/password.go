package validation

import (
	"errors"
)

var (
	ErrMissingPassword = errors.New("missing password")
	ErrPasswordTooLong = errors.New("password must not exceed 72 characters")
)

// ValidatePassword checks a registration password.
// bcrypt silently truncates passwords longer than 72 bytes, so those are refused.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrMissingPassword
	}

	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	return nil
}
