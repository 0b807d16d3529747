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

package login

import (
	"fmt"
	"testing"

	"github.com/vylite/vylite/pkg/assert"
	"github.com/vylite/vylite/pkg/cli/client"
	"github.com/vylite/vylite/pkg/cli/consts"
	"github.com/vylite/vylite/pkg/cli/context"
	"github.com/vylite/vylite/pkg/cli/database"
)

func TestGetServerDisplayURL(t *testing.T) {
	testCases := []struct {
		apiEndpoint string
		expected    string
	}{
		{
			apiEndpoint: "https://vylite.mydomain.com/api",
			expected:    "https://vylite.mydomain.com",
		},
		{
			apiEndpoint: "https://mysubdomain.mydomain.com/vylite/api",
			expected:    "https://mysubdomain.mydomain.com",
		},
		{
			apiEndpoint: "some-string",
			expected:    "",
		},
		{
			apiEndpoint: "",
			expected:    "",
		},
		{
			apiEndpoint: "https://",
			expected:    "",
		},
		{
			apiEndpoint: "https://abc",
			expected:    "https://abc",
		},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("for input %s", tc.apiEndpoint), func(t *testing.T) {
			got := getServerDisplayURL(context.VyliteCtx{APIEndpoint: tc.apiEndpoint})
			assert.Equal(t, got, tc.expected, "result mismatch")
		})
	}
}

func TestSaveSession(t *testing.T) {
	db := database.InitTestDB(t)

	resp := client.SigninResponse{
		Key:       "session-key",
		ExpiresAt: 1700000000,
		User:      client.Principal{ID: "user-1", Email: "alice@example.com"},
	}

	if err := saveSession(db, resp, "alice@example.com"); err != nil {
		t.Fatal(err)
	}

	var key, accountID, email, fresh string
	database.MustScan(t, "getting session key",
		db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemSessionKey), &key)
	database.MustScan(t, "getting account id",
		db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemAccountID), &accountID)
	database.MustScan(t, "getting account email",
		db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemAccountEmail), &email)
	database.MustScan(t, "getting fresh login flag",
		db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemPendingFreshLogin), &fresh)

	assert.Equal(t, key, "session-key", "session key mismatch")
	assert.Equal(t, accountID, "user-1", "account id mismatch")
	assert.Equal(t, email, "alice@example.com", "account email mismatch")
	assert.Equal(t, fresh, "1", "fresh login flag mismatch")
}
