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

// Package context provides helpers for storing request-scoped values
package context

import (
	"context"

	"github.com/vylite/vylite/pkg/server/database"
)

type contextKey string

const userKey contextKey = "user"

// WithUser returns a context with the given user
func WithUser(ctx context.Context, user *database.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// User retrieves the authenticated user from the given context. It returns
// nil if the context has no user.
func User(ctx context.Context) *database.User {
	if v, ok := ctx.Value(userKey).(*database.User); ok {
		return v
	}

	return nil
}
