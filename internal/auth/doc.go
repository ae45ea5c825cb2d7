// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Beacon Contributors

// Package auth provides account and session primitives for Beacon.
//
// # Domain Types
//
// Domain types (Account, Session) should be created using their
// constructors:
//   - NewAccount - creates an Account with a validated email and password hash
//   - NewSession - creates a Session with a validated account and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - RegistrationService - account creation with duplicate detection
//   - Service - login, logout, session validation
//
// Services are created with New*Service constructors that validate
// dependencies.
package auth
