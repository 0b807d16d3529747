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

package database

import (
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/assert"
)

func TestUpsertSystem(t *testing.T) {
	db := InitTestDB(t)

	if err := UpsertSystem(db, "watermark", "2024-01-01T00:00:00Z"); err != nil {
		t.Fatal(errors.Wrap(err, "inserting"))
	}

	var got string
	if err := GetSystem(db, "watermark", &got); err != nil {
		t.Fatal(errors.Wrap(err, "getting"))
	}
	assert.Equal(t, got, "2024-01-01T00:00:00Z", "value mismatch")

	if err := UpsertSystem(db, "watermark", "2024-02-01T00:00:00Z"); err != nil {
		t.Fatal(errors.Wrap(err, "updating"))
	}

	if err := GetSystem(db, "watermark", &got); err != nil {
		t.Fatal(errors.Wrap(err, "getting"))
	}
	assert.Equal(t, got, "2024-02-01T00:00:00Z", "value mismatch after update")

	var count int
	MustScan(t, "counting rows", db.QueryRow("SELECT count(*) FROM system WHERE key = ?", "watermark"), &count)
	assert.Equal(t, count, 1, "upsert should not duplicate the key")
}

func TestGetSystemMissing(t *testing.T) {
	db := InitTestDB(t)

	var got string
	err := GetSystem(db, "no-such-key", &got)
	assert.Equal(t, err, sql.ErrNoRows, "error mismatch")
}

func TestGetSystemOptional(t *testing.T) {
	db := InitTestDB(t)

	got, err := GetSystemOptional(db, "no-such-key")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting an absent key"))
	}
	assert.Equal(t, got, "", "absent key should read as empty")

	if err := UpsertSystem(db, "session_token", "abc123"); err != nil {
		t.Fatal(errors.Wrap(err, "inserting"))
	}

	got, err = GetSystemOptional(db, "session_token")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting"))
	}
	assert.Equal(t, got, "abc123", "value mismatch")
}

func TestDeleteSystem(t *testing.T) {
	db := InitTestDB(t)

	if err := UpsertSystem(db, "session_token", "abc123"); err != nil {
		t.Fatal(errors.Wrap(err, "inserting"))
	}

	if err := DeleteSystem(db, "session_token"); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}

	var got string
	err := GetSystem(db, "session_token", &got)
	assert.Equal(t, err, sql.ErrNoRows, "key should be gone")

	// deleting an absent key is a no-op
	if err := DeleteSystem(db, "session_token"); err != nil {
		t.Fatal(errors.Wrap(err, "deleting an absent key"))
	}
}
