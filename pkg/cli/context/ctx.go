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

// Package context defines the vylite runtime context
package context

import (
	"net/http"

	"github.com/vylite/vylite/pkg/cli/database"
	"github.com/vylite/vylite/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
}

// VyliteCtx is a context holding the information of the current runtime
type VyliteCtx struct {
	Paths               Paths
	APIEndpoint         string
	Version             string
	DB                  *database.DB
	SessionKey          string
	SessionKeyExpiry    int64
	AccountID           string
	AccountEmail        string
	Editor              string
	AutoSync            bool
	SyncIntervalMinutes int
	EnableUpgradeCheck  bool
	Clock               clock.Clock
	HTTPClient          *http.Client
}

// Redact replaces private information in the context with placeholder
// values for safe logging
func Redact(ctx VyliteCtx) VyliteCtx {
	if ctx.SessionKey != "" {
		ctx.SessionKey = "1"
	} else {
		ctx.SessionKey = "0"
	}

	return ctx
}
