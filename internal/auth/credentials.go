// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package auth

import (
	"regexp"

	"github.com/samber/oops"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// User-facing validation messages. The web forms pre-validate with the same
// rules and must show identical wording, so these strings are part of the
// contract with the presentation layer.
const (
	MsgInvalidEmail     = "Please enter a valid email address"
	MsgPasswordTooShort = "Password must be at least 6 characters long"
)

// emailRegex matches addresses of the form local@domain.tld. It rejects
// whitespace and bare domains without being stricter than what the sign-up
// form accepts.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Credentials is an email/password pair supplied to prove or establish
// identity. It is consumed within a single workflow call and never persisted.
type Credentials struct {
	Email    string
	Password string
}

// Validate checks the structural rules for credentials. It is pure and
// performs no I/O. On the first failing rule it stops and returns that
// single error.
func (c Credentials) Validate() error {
	if !emailRegex.MatchString(c.Email) {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("field", "email").
			Errorf("%s", MsgInvalidEmail)
	}
	if len(c.Password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("field", "password").
			With("min", MinPasswordLength).
			Errorf("%s", MsgPasswordTooShort)
	}
	return nil
}
