// Package validate holds the pure form validators. Each returns "" when the
// value is acceptable and a user-facing message otherwise; callers branch on
// the message being non-empty.
package validate

import "github.com/go-playground/validator/v10"

var emailCheck = validator.New()

const (
	minPasswordLen = 8
	minNameLen     = 3
)

// Password checks the length rule before the confirmation match, so a short
// password reports as short even when the confirmation also differs.
func Password(pass, confirm string) string {
	if len(pass) < minPasswordLen {
		return "Password is too short"
	}
	if pass != confirm {
		return "Passwords do not match"
	}
	return ""
}

// Email checks the local@domain.tld shape.
func Email(email string) string {
	if err := emailCheck.Var(email, "required,email"); err != nil {
		return "This email does not exist"
	}
	return ""
}

// Name rejects names shorter than three characters.
func Name(name string) string {
	if len(name) < minNameLen {
		return "Name is too short"
	}
	return ""
}
