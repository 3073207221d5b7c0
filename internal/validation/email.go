package validation

import (
	"errors"
)

var (
	ErrMissingEmail = errors.New("missing email")
	ErrEmailTooLong = errors.New("email address is too long (max 254 characters)")
)

// ValidateEmail checks presence and length only. Registration accepts any
// address the client supplies; uniqueness is enforced by the store.
func ValidateEmail(email string) error {
	err := validate.Var(email, "required,max=254")
	if err == nil {
		return nil
	}

	_, tag, _ := firstField(err)
	if tag == "max" {
		return ErrEmailTooLong
	}
	return ErrMissingEmail
}
