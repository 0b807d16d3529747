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

// Package consts provides definitions of constants
package consts

var (
	// VyliteDirName is the name of the directory containing vylite files
	VyliteDirName = "vylite"
	// VyliteDBFileName is the filename for the vylite SQLite database
	VyliteDBFileName = "vylite.db"
	// ConfigFilename is the name of the config file
	ConfigFilename = "vyliterc"
	// TmpContentFileBase is the base for the filename for a temporary content
	TmpContentFileBase = "VYLITE_TMPCONTENT"
	// TmpContentFileExt is the extension for the temporary content file
	TmpContentFileExt = "md"

	// SystemSchema is the key for the local schema version in the system table
	SystemSchema = "schema"
	// SystemSyncWatermark is the key for the highest remote updated_at pulled so far
	SystemSyncWatermark = "sync_watermark"
	// SystemSessionKey is the key for the session token
	SystemSessionKey = "session_token"
	// SystemSessionKeyExpiry is the key for the timestamp at which the session token expires
	SystemSessionKeyExpiry = "session_token_expiry"
	// SystemAccountID is the key for the id of the signed-in account
	SystemAccountID = "account_id"
	// SystemAccountEmail is the key for the email of the signed-in account
	SystemAccountEmail = "account_email"
	// SystemPendingFreshLogin is the key for the short-lived marker set right
	// before an interactive login. It distinguishes a fresh login from a
	// silent session restore and is cleared once the post-login flow reads it.
	SystemPendingFreshLogin = "pending_fresh_login"
	// SystemLastUpgrade is the key for the timestamp of the most recent upgrade check
	SystemLastUpgrade = "last_upgrade"
)
