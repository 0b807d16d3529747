/* Copyright 2025 Vylite Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package app provides the application logic of the server
package app

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/clock"
	"gorm.io/gorm"
)

var (
	// ErrEmptyDB is an error for missing database connection in the app configuration
	ErrEmptyDB = errors.New("No database connection was provided")
	// ErrEmptyClock is an error for missing clock in the app configuration
	ErrEmptyClock = errors.New("No clock was provided")

	// ErrNotFound is an error for a nonexistent resource
	ErrNotFound = errors.New("not found")
	// ErrLoginInvalid is an error for invalid credentials
	ErrLoginInvalid = errors.New("wrong credentials")
	// ErrEmailRequired is an error for an empty email
	ErrEmailRequired = errors.New("email is required")
	// ErrPasswordRequired is an error for an empty password
	ErrPasswordRequired = errors.New("password is required")
	// ErrPasswordTooShort is an error for a password that is too short
	ErrPasswordTooShort = errors.New("password should be longer than 8 characters")
	// ErrDuplicateEmail is an error for an email that is already registered
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrRegistrationDisabled is an error for registration being disabled
	ErrRegistrationDisabled = errors.New("registration is disabled")
)

// OwnershipConflictError is an error for an upsert batch that contained
// rows whose ids already belong to a different account. UUIDs lists every
// offending row in the batch.
type OwnershipConflictError struct {
	UUIDs []string
}

func (e *OwnershipConflictError) Error() string {
	return fmt.Sprintf("rows owned by another account: %s", strings.Join(e.UUIDs, ", "))
}

// App is an application context
type App struct {
	DB                  *gorm.DB
	Clock               clock.Clock
	DisableRegistration bool
	Port                string
	DBPath              string
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.DB == nil {
		return ErrEmptyDB
	}
	if a.Clock == nil {
		return ErrEmptyClock
	}

	return nil
}
