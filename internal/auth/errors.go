// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when an account with the given email already
// exists. Repositories wrap this when the database uniqueness constraint
// rejects an insert, so a concurrent duplicate registration fails atomically
// at the store rather than slipping past the advisory pre-check.
var ErrEmailTaken = errors.New("email already registered")
