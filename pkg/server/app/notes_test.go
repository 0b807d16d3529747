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

package app

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/vylite/vylite/pkg/assert"
	"github.com/vylite/vylite/pkg/server/database"
)

func mustCreateUser(t *testing.T, a App, email string) database.User {
	t.Helper()

	user, err := a.CreateUser(email, "correct-password")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating user"))
	}

	return user
}

func mustGetNote(t *testing.T, a App, uuid string) database.Note {
	t.Helper()

	var note database.Note
	if err := a.DB.Where("uuid = ?", uuid).First(&note).Error; err != nil {
		t.Fatal(errors.Wrapf(err, "finding note %s", uuid))
	}

	return note
}

func mustCountNotes(t *testing.T, a App) int64 {
	t.Helper()

	var count int64
	if err := a.DB.Model(&database.Note{}).Count(&count).Error; err != nil {
		t.Fatal(errors.Wrap(err, "counting notes"))
	}

	return count
}

func TestUpsertNotesCreate(t *testing.T) {
	a := NewTest()
	alice := mustCreateUser(t, a, "alice@example.com")

	now := time.Now().UnixNano()
	err := a.UpsertNotes(alice, []NoteUpsert{
		{UUID: "n1-uuid", Title: "es6", Content: "es6\nlet is block-scoped", AddedOn: now, EditedOn: now},
		{UUID: "n2-uuid", Title: "css", Content: "css\nflexbox", AddedOn: now, EditedOn: now + 1},
	})
	assert.NoErr(t, err, "upserting")

	assert.Equal(t, mustCountNotes(t, a), int64(2), "note count mismatch")

	got := mustGetNote(t, a, "n1-uuid")
	assert.Equal(t, got.UserUUID, alice.UUID, "ownership should be assigned from the session")
	assert.Equal(t, got.Title, "es6", "title mismatch")
	assert.Equal(t, got.Body, "es6\nlet is block-scoped", "content mismatch")
	assert.Equal(t, got.AddedOn, now, "added_on mismatch")
	assert.Equal(t, got.EditedOn, now, "edited_on mismatch")
	assert.Equal(t, got.Deleted, false, "deleted mismatch")
}

func TestUpsertNotesUpdate(t *testing.T) {
	a := NewTest()
	alice := mustCreateUser(t, a, "alice@example.com")

	now := time.Now().UnixNano()
	err := a.UpsertNotes(alice, []NoteUpsert{
		{UUID: "n1-uuid", Title: "original", Content: "original", AddedOn: now, EditedOn: now},
	})
	assert.NoErr(t, err, "upserting")

	err = a.UpsertNotes(alice, []NoteUpsert{
		{UUID: "n1-uuid", Title: "replaced", Content: "replaced", AddedOn: now, EditedOn: now + 1, Deleted: true},
	})
	assert.NoErr(t, err, "upserting again")

	assert.Equal(t, mustCountNotes(t, a), int64(1), "upsert should not create a second row")

	got := mustGetNote(t, a, "n1-uuid")
	assert.Equal(t, got.Body, "replaced", "content mismatch")
	assert.Equal(t, got.EditedOn, now+1, "edited_on mismatch")
	assert.Equal(t, got.Deleted, true, "deleted mismatch")
}

func TestUpsertNotesOwnershipConflict(t *testing.T) {
	a := NewTest()
	alice := mustCreateUser(t, a, "alice@example.com")
	bob := mustCreateUser(t, a, "bob@example.com")

	now := time.Now().UnixNano()
	err := a.UpsertNotes(alice, []NoteUpsert{
		{UUID: "n1-uuid", Title: "alice 1", Content: "alice 1", AddedOn: now, EditedOn: now},
		{UUID: "n2-uuid", Title: "alice 2", Content: "alice 2", AddedOn: now, EditedOn: now},
	})
	assert.NoErr(t, err, "seeding alice's rows")

	err = a.UpsertNotes(bob, []NoteUpsert{
		{UUID: "n1-uuid", Title: "bob 1", Content: "bob 1", AddedOn: now, EditedOn: now + 1},
		{UUID: "n3-uuid", Title: "bob 3", Content: "bob 3", AddedOn: now, EditedOn: now + 1},
		{UUID: "n2-uuid", Title: "bob 2", Content: "bob 2", AddedOn: now, EditedOn: now + 1},
	})
	assert.Err(t, err, "upserting rows owned by another account should fail")

	var conflictErr *OwnershipConflictError
	if !stderrors.As(err, &conflictErr) {
		t.Fatalf("expected an ownership conflict, got %v", err)
	}
	assert.DeepEqual(t, conflictErr.UUIDs, []string{"n1-uuid", "n2-uuid"}, "conflicting uuids mismatch")

	// the batch is atomic: the conflict discards the non-conflicting row too
	assert.Equal(t, mustCountNotes(t, a), int64(2), "no row of the failed batch should be written")

	got := mustGetNote(t, a, "n1-uuid")
	assert.Equal(t, got.Body, "alice 1", "the conflicting row should be untouched")
	assert.Equal(t, got.UserUUID, alice.UUID, "ownership should be untouched")
}

func TestListNotesScoped(t *testing.T) {
	a := NewTest()
	alice := mustCreateUser(t, a, "alice@example.com")
	bob := mustCreateUser(t, a, "bob@example.com")

	now := time.Now().UnixNano()
	err := a.UpsertNotes(alice, []NoteUpsert{
		{UUID: "a2-uuid", Title: "alice 2", AddedOn: now, EditedOn: now + 2},
		{UUID: "a1-uuid", Title: "alice 1", AddedOn: now, EditedOn: now + 1},
	})
	assert.NoErr(t, err, "seeding alice's rows")

	err = a.UpsertNotes(bob, []NoteUpsert{
		{UUID: "b1-uuid", Title: "bob 1", AddedOn: now, EditedOn: now + 1},
	})
	assert.NoErr(t, err, "seeding bob's rows")

	got, err := a.ListNotes(alice, 0)
	assert.NoErr(t, err, "listing")

	assert.Equal(t, len(got), 2, "count mismatch")
	assert.Equal(t, got[0].UUID, "a1-uuid", "rows should be ordered by modification time")
	assert.Equal(t, got[1].UUID, "a2-uuid", "ordering mismatch")
}

func TestListNotesEditedAfter(t *testing.T) {
	a := NewTest()
	alice := mustCreateUser(t, a, "alice@example.com")

	base := time.Now().UnixNano()
	err := a.UpsertNotes(alice, []NoteUpsert{
		{UUID: "n1-uuid", AddedOn: base, EditedOn: base},
		{UUID: "n2-uuid", AddedOn: base, EditedOn: base + 1},
		{UUID: "n3-uuid", AddedOn: base, EditedOn: base + 2},
	})
	assert.NoErr(t, err, "seeding")

	// the bound is strict: the row at the bound itself is excluded
	got, err := a.ListNotes(alice, base)
	assert.NoErr(t, err, "listing")
	assert.Equal(t, len(got), 2, "count mismatch")
	assert.Equal(t, got[0].UUID, "n2-uuid", "uuid mismatch")
	assert.Equal(t, got[1].UUID, "n3-uuid", "uuid mismatch")

	got, err = a.ListNotes(alice, base+2)
	assert.NoErr(t, err, "listing past the newest row")
	assert.Equal(t, len(got), 0, "count mismatch")
}
