// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package errutil

import (
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// domainCodePrefixes is the closed set of error code families the service
// emits. The HTTP boundary switches on these, so a code outside the set is a
// bug, not a new category.
var domainCodePrefixes = []string{
	"AUTH_", "SESSION_", "ACCOUNT_", "CONFIG_", "MIGRATION_",
	"DB_", "INVALID_",
}

// AssertErrorCode asserts that err is an oops error carrying the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	_, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, Code(err))
}

// AssertDomainError asserts that err carries a code from one of the service's
// known code families.
func AssertDomainError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	code := Code(err)
	require.NotEmpty(t, code, "expected a coded oops error, got %v", err)
	for _, prefix := range domainCodePrefixes {
		if strings.HasPrefix(code, prefix) {
			return
		}
	}
	t.Errorf("error code %q is outside the known code families", code)
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}
